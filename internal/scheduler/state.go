package scheduler

import (
	"slices"
	"sync"
)

// StateStore holds one QueryState per key (a view name or a node ID). Entries
// are created on first use with the store's default page size.
type StateStore struct {
	mu       sync.Mutex
	pageSize int
	states   map[string]QueryState
}

// NewStateStore creates an empty store.
func NewStateStore(pageSize int) *StateStore {
	return &StateStore{
		pageSize: pageSize,
		states:   make(map[string]QueryState),
	}
}

// Get returns the state for key, creating it if needed.
func (s *StateStore) Get(key string) QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(key)
}

// Update applies fn to the state for key and stores the result.
func (s *StateStore) Update(key string, fn func(*QueryState)) QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.lookup(key)
	fn(&state)
	s.states[key] = state
	return state
}

// Transient returns a fresh state with fn applied (when non-nil) without
// storing it.
func (s *StateStore) Transient(fn func(*QueryState)) QueryState {
	state := NewQueryState(s.pageSize)
	if fn != nil {
		fn(&state)
	}
	return state
}

// Keys returns the keys that have a state, sorted.
func (s *StateStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Delete drops the state for key.
func (s *StateStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
}

func (s *StateStore) lookup(key string) QueryState {
	state, ok := s.states[key]
	if !ok {
		state = NewQueryState(s.pageSize)
		s.states[key] = state
	}
	return state
}
