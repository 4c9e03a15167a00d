// Package resource provides the reactive state containers shared by every
// controller: a Store for a single remote entity and a Collection for an
// ordered set of them. State moves through Idle -> Loading -> Ready|Errored
// and may re-enter Loading at any time.
package resource

import "sync"

// State is the observable snapshot of a Store.
//
// Invariants: Loading=true means no authoritative error is surfaced, and
// setting data always clears the error. Loading is NOT cleared by SetData;
// callers pairing SetLoading(true) with SetData must issue SetLoading(false)
// themselves. The token-based Resolve/Fail operations clear it atomically and
// are what controllers use.
type State[T any] struct {
	Data    *T
	Loading bool
	Err     string
}

// Store holds the state of one remote entity and notifies subscribers after
// every applied mutation. Overlapping in-flight operations are arbitrated by
// generation tokens: only the most recently issued token may apply its
// result, so a slow stale response can never overwrite a newer one.
type Store[T any] struct {
	mu      sync.Mutex
	state   State[T]
	gen     uint64
	subs    map[int]func(State[T])
	nextSub int
}

// NewStore returns an empty Store in the Idle state.
func NewStore[T any]() *Store[T] {
	return &Store[T]{subs: make(map[int]func(State[T]))}
}

// State returns a snapshot of the current state.
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetLoading marks a fetch in flight. Entering the loading state clears any
// stale error; a fetch in flight supersedes it.
func (s *Store[T]) SetLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	if loading {
		s.state.Err = ""
	}
	s.notifyLocked()
}

// SetData replaces the stored entity and clears the error.
func (s *Store[T]) SetData(data T) {
	s.mu.Lock()
	s.state.Data = &data
	s.state.Err = ""
	s.notifyLocked()
}

// SetError records an error message and ends loading. Existing data is
// retained so callers can keep showing the last good value.
func (s *Store[T]) SetError(msg string) {
	s.mu.Lock()
	s.state.Err = msg
	s.state.Loading = false
	s.notifyLocked()
}

// Begin issues a new generation token and enters the loading state. The
// returned token must be passed to Resolve or Fail; results carrying an older
// token are discarded.
func (s *Store[T]) Begin() uint64 {
	s.mu.Lock()
	s.gen++
	token := s.gen
	s.state.Loading = true
	s.state.Err = ""
	s.notifyLocked()
	return token
}

// Resolve applies data for the given token. Returns false when a newer
// operation has been issued since, in which case the state is untouched.
func (s *Store[T]) Resolve(token uint64, data T) bool {
	s.mu.Lock()
	if token != s.gen {
		s.mu.Unlock()
		return false
	}
	s.state.Data = &data
	s.state.Err = ""
	s.state.Loading = false
	s.notifyLocked()
	return true
}

// Fail records an error for the given token. Returns false for stale tokens.
func (s *Store[T]) Fail(token uint64, msg string) bool {
	s.mu.Lock()
	if token != s.gen {
		s.mu.Unlock()
		return false
	}
	s.state.Err = msg
	s.state.Loading = false
	s.notifyLocked()
	return true
}

// Subscribe registers an observer invoked after every applied mutation with a
// snapshot of the new state. The returned function cancels the subscription.
func (s *Store[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// notifyLocked snapshots state and subscribers, releases the lock, then
// invokes observers. Observers may therefore call back into the store.
func (s *Store[T]) notifyLocked() {
	snapshot := s.state
	observers := make([]func(State[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
