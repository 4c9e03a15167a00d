package resource

import (
	"sync"
	"testing"
)

type record struct {
	ID   string
	Name string
}

func TestStoreInitialState(t *testing.T) {
	s := NewStore[record]()
	state := s.State()
	if state.Data != nil || state.Loading || state.Err != "" {
		t.Fatalf("expected idle zero state, got %+v", state)
	}
}

func TestSetDataClearsErrorButNotLoading(t *testing.T) {
	s := NewStore[record]()
	s.SetError("boom")
	s.SetLoading(true)
	s.SetData(record{ID: "1", Name: "alpha"})

	state := s.State()
	if state.Data == nil || state.Data.ID != "1" {
		t.Fatalf("expected data applied, got %+v", state)
	}
	if state.Err != "" {
		t.Fatalf("expected error cleared by SetData, got %q", state.Err)
	}
	if !state.Loading {
		t.Fatalf("SetData must not clear loading; an explicit SetLoading(false) is required")
	}

	s.SetLoading(false)
	if s.State().Loading {
		t.Fatalf("expected loading cleared")
	}
}

func TestSetLoadingClearsStaleError(t *testing.T) {
	s := NewStore[record]()
	s.SetError("previous failure")
	s.SetLoading(true)

	state := s.State()
	if state.Err != "" {
		t.Fatalf("a fetch in flight must supersede a stale error, got %q", state.Err)
	}
}

func TestSetErrorRetainsData(t *testing.T) {
	s := NewStore[record]()
	s.SetData(record{ID: "1"})
	s.SetLoading(true)
	s.SetError("fetch failed")

	state := s.State()
	if state.Data == nil || state.Data.ID != "1" {
		t.Fatalf("expected stale data retained, got %+v", state)
	}
	if state.Err != "fetch failed" || state.Loading {
		t.Fatalf("expected errored state with loading cleared, got %+v", state)
	}
}

func TestResolveDiscardsStaleToken(t *testing.T) {
	s := NewStore[record]()
	first := s.Begin()
	second := s.Begin()

	if s.Resolve(first, record{ID: "stale"}) {
		t.Fatalf("stale token must not apply")
	}
	if state := s.State(); state.Data != nil {
		t.Fatalf("stale resolve mutated state: %+v", state)
	}

	if !s.Resolve(second, record{ID: "fresh"}) {
		t.Fatalf("latest token must apply")
	}
	state := s.State()
	if state.Data == nil || state.Data.ID != "fresh" {
		t.Fatalf("expected fresh data, got %+v", state)
	}
	if state.Loading || state.Err != "" {
		t.Fatalf("resolve must clear loading and error, got %+v", state)
	}
}

func TestFailDiscardsStaleToken(t *testing.T) {
	s := NewStore[record]()
	first := s.Begin()
	second := s.Begin()

	if s.Fail(first, "old failure") {
		t.Fatalf("stale failure must not apply")
	}
	if !s.Fail(second, "new failure") {
		t.Fatalf("latest failure must apply")
	}
	if state := s.State(); state.Err != "new failure" {
		t.Fatalf("expected new failure, got %+v", state)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s := NewStore[record]()

	var got []State[record]
	cancel := s.Subscribe(func(state State[record]) {
		got = append(got, state)
	})

	s.SetLoading(true)
	s.SetData(record{ID: "1"})
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if !got[0].Loading {
		t.Fatalf("first notification should reflect loading, got %+v", got[0])
	}
	if got[1].Data == nil || got[1].Data.ID != "1" {
		t.Fatalf("second notification should carry data, got %+v", got[1])
	}

	cancel()
	s.SetLoading(false)
	if len(got) != 2 {
		t.Fatalf("expected no notifications after unsubscribe, got %d", len(got))
	}
}

func TestStoreConcurrentCompletions(t *testing.T) {
	s := NewStore[record]()

	var wg sync.WaitGroup
	tokens := make([]uint64, 16)
	for i := range tokens {
		tokens[i] = s.Begin()
	}
	for _, token := range tokens {
		token := token
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Resolve(token, record{ID: "r", Name: "n"})
		}()
	}
	wg.Wait()

	// Only the final token may have applied; everything else was discarded.
	state := s.State()
	if state.Err != "" {
		t.Fatalf("unexpected error state %+v", state)
	}
}
