package resource

import "sync"

// CollectionState is the observable snapshot of a Collection. Items keep
// arrival order: fetched items in server order, created items appended.
type CollectionState[T any] struct {
	Items   []T
	Loading bool
	Err     string
}

// Collection holds an ordered set of records unique by id, with the same
// loading/error lifecycle as Store. Generation tokens arbitrate only the
// Loading/Err fields: a replace is a lost-update hazard and is discarded when
// stale, but a confirmed append carries no conflict and is always applied.
type Collection[T any] struct {
	mu      sync.Mutex
	state   CollectionState[T]
	gen     uint64
	idOf    func(T) string
	subs    map[int]func(CollectionState[T])
	nextSub int
}

// NewCollection returns an empty Collection. idOf extracts the record id used
// by RemoveByID and Patch.
func NewCollection[T any](idOf func(T) string) *Collection[T] {
	return &Collection[T]{
		idOf: idOf,
		subs: make(map[int]func(CollectionState[T])),
	}
}

// State returns a snapshot; the Items slice is copied.
func (c *Collection[T]) State() CollectionState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CollectionState[T]{
		Items:   append([]T(nil), c.state.Items...),
		Loading: c.state.Loading,
		Err:     c.state.Err,
	}
}

// Items returns a copy of the current records.
func (c *Collection[T]) Items() []T {
	return c.State().Items
}

// Get returns the record with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.state.Items {
		if c.idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// SetLoading marks an operation in flight, clearing any stale error.
func (c *Collection[T]) SetLoading(loading bool) {
	c.mu.Lock()
	c.state.Loading = loading
	if loading {
		c.state.Err = ""
	}
	c.notifyLocked()
}

// SetError records an error and ends loading; items are retained.
func (c *Collection[T]) SetError(msg string) {
	c.mu.Lock()
	c.state.Err = msg
	c.state.Loading = false
	c.notifyLocked()
}

// Append adds a confirmed record without re-fetching the collection.
func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	c.state.Items = append(c.state.Items, item)
	c.state.Err = ""
	c.notifyLocked()
}

// RemoveByID filters out the record with the given id after the remote delete
// is confirmed. Removing an absent id is a no-op and reports false.
func (c *Collection[T]) RemoveByID(id string) bool {
	c.mu.Lock()
	kept := c.state.Items[:0]
	removed := false
	for _, item := range c.state.Items {
		if c.idOf(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	c.state.Items = kept
	if !removed {
		c.mu.Unlock()
		return false
	}
	c.notifyLocked()
	return true
}

// Patch mutates the record with the given id in place, for status-only
// updates that must not touch the record's other fields.
func (c *Collection[T]) Patch(id string, mutate func(*T)) bool {
	c.mu.Lock()
	for i := range c.state.Items {
		if c.idOf(c.state.Items[i]) == id {
			mutate(&c.state.Items[i])
			c.notifyLocked()
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// Begin issues a new generation token and enters the loading state.
func (c *Collection[T]) Begin() uint64 {
	c.mu.Lock()
	c.gen++
	token := c.gen
	c.state.Loading = true
	c.state.Err = ""
	c.notifyLocked()
	return token
}

// ResolveReplace applies a full fetch result for the given token.
func (c *Collection[T]) ResolveReplace(token uint64, items []T) bool {
	c.mu.Lock()
	if token != c.gen {
		c.mu.Unlock()
		return false
	}
	c.state.Items = append([]T(nil), items...)
	c.state.Err = ""
	c.state.Loading = false
	c.notifyLocked()
	return true
}

// ResolveAppend applies a create result, appending the new record to the
// existing collection. A confirmed record is appended even when newer
// operations have been issued since; only the latest token may end the loading
// state. Reports whether the token was the latest.
func (c *Collection[T]) ResolveAppend(token uint64, item T) bool {
	c.mu.Lock()
	c.state.Items = append(c.state.Items, item)
	c.state.Err = ""
	latest := token == c.gen
	if latest {
		c.state.Loading = false
	}
	c.notifyLocked()
	return latest
}

// ResolveAppendMany applies a bulk-create result with the same semantics as
// ResolveAppend.
func (c *Collection[T]) ResolveAppendMany(token uint64, items []T) bool {
	c.mu.Lock()
	c.state.Items = append(c.state.Items, items...)
	c.state.Err = ""
	latest := token == c.gen
	if latest {
		c.state.Loading = false
	}
	c.notifyLocked()
	return latest
}

// Fail records an error for the given token. Stale tokens are discarded.
func (c *Collection[T]) Fail(token uint64, msg string) bool {
	c.mu.Lock()
	if token != c.gen {
		c.mu.Unlock()
		return false
	}
	c.state.Err = msg
	c.state.Loading = false
	c.notifyLocked()
	return true
}

// Subscribe registers an observer invoked after every applied mutation.
func (c *Collection[T]) Subscribe(fn func(CollectionState[T])) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Collection[T]) notifyLocked() {
	snapshot := CollectionState[T]{
		Items:   append([]T(nil), c.state.Items...),
		Loading: c.state.Loading,
		Err:     c.state.Err,
	}
	observers := make([]func(CollectionState[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
