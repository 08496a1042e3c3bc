package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStoreIsolatesKeys(t *testing.T) {
	s := NewMemoryStateStore()

	s.Put("a", &State{PendingIntent: IntentCreate, Draft: EventDraft{Title: "A"}})
	s.Put("b", &State{PendingIntent: IntentCreate, Draft: EventDraft{Title: "B"}})

	stA, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A", stA.Draft.Title)

	s.Delete("a")
	_, ok = s.Get("a")
	assert.False(t, ok)

	stB, ok := s.Get("b")
	require.True(t, ok)
	assert.Equal(t, "B", stB.Draft.Title, "deleting one key leaves others alone")
}

func TestMemoryStateStoreDeleteMissingKey(t *testing.T) {
	s := NewMemoryStateStore()
	s.Delete("never-stored")

	_, ok := s.Get("never-stored")
	assert.False(t, ok)
}

func TestMemoryStateStoreLockKeySerializes(t *testing.T) {
	s := NewMemoryStateStore()
	const turns = 50

	// Each turn does a read-modify-write under the key lock. Without
	// serialization the counter in Aux would lose updates.
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.LockKey("k")
			defer unlock()

			st, ok := s.Get("k")
			if !ok {
				st = &State{Aux: map[string]string{"n": ""}}
			}
			st.Aux["n"] += "x"
			s.Put("k", st)
		}()
	}
	wg.Wait()

	st, ok := s.Get("k")
	require.True(t, ok)
	assert.Len(t, st.Aux["n"], turns)
}

func TestMemoryStateStoreReapsIdleLocks(t *testing.T) {
	s := NewMemoryStateStore()

	// A turn that leaves no state behind leaves no lock entry either.
	unlock := s.LockKey("k1")
	unlock()
	s.mu.Lock()
	assert.Empty(t, s.locks)
	s.mu.Unlock()

	// Pending conversation state keeps the key's lock alive.
	unlock = s.LockKey("k2")
	s.Put("k2", &State{PendingIntent: IntentCreate})
	unlock()
	s.mu.Lock()
	assert.Contains(t, s.locks, "k2")
	s.mu.Unlock()

	// Once the conversation completes, the entry is reaped.
	unlock = s.LockKey("k2")
	s.Delete("k2")
	unlock()
	s.mu.Lock()
	assert.Empty(t, s.locks)
	s.mu.Unlock()
}

func TestKeyFor(t *testing.T) {
	byUser := KeyFor("user-1", "token-1")
	byUserOtherToken := KeyFor("user-1", "token-2")
	assert.Equal(t, byUser, byUserOtherToken, "user id wins over token")

	byToken := KeyFor("", "token-1")
	assert.NotEqual(t, byUser, byToken)
	assert.Equal(t, byToken, KeyFor("", "token-1"))

	// SHA-256 hex digest.
	assert.Len(t, byUser, 64)
	assert.NotContains(t, byUser, "user-1")
}
