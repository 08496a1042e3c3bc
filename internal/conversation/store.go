package conversation

import "sync"

// StateStore holds per-conversation state with per-key serialization.
type StateStore interface {
	// LockKey serializes turns for one conversation key. The returned
	// function releases the key. Distinct keys never contend.
	LockKey(key string) (unlock func())
	Get(key string) (*State, bool)
	Put(key string, st *State)
	Delete(key string)
}

// MemoryStateStore is the in-process StateStore. State does not survive a
// restart; that is a documented limitation, not something to fix here.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]*State
	locks  map[string]*keyLock
}

// keyLock tracks how many turns currently hold or wait on the key, so
// idle entries can be reaped instead of accumulating one per caller ever
// seen.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]*State),
		locks:  make(map[string]*keyLock),
	}
}

// LockKey acquires the per-key mutex, creating it on first use. The
// release func drops the map entry once nobody holds or waits on the key
// and no conversation state keeps it alive.
func (s *MemoryStateStore) LockKey(key string) func() {
	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &keyLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			if _, alive := s.states[key]; !alive {
				delete(s.locks, key)
			}
		}
		s.mu.Unlock()
	}
}

// Get returns the state for key, if any.
func (s *MemoryStateStore) Get(key string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	return st, ok
}

// Put stores (or overwrites) the state for key.
func (s *MemoryStateStore) Put(key string, st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = st
}

// Delete removes the state for key.
func (s *MemoryStateStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
}
