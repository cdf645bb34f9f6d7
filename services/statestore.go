package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"
)

// FlowState carries everything an OAuth round-trip needs to remember between
// the redirect and the callback.
type FlowState struct {
	Service   string
	UserID    uint
	Mobile    bool
	Subscribe bool
	Expires   time.Time
}

// StateStore holds pending OAuth flow states keyed by the opaque state
// parameter. States are consumed exactly once and expire after ttl.
type StateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]FlowState
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		ttl:    ttl,
		states: map[string]FlowState{},
	}
}

// Put stores the flow state under a fresh random key and returns the key.
func (s *StateStore) Put(state FlowState) string {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		panic(fmt.Errorf("generating state key: %w", err))
	}
	key := hex.EncodeToString(buf)

	state.Expires = time.Now().Add(s.ttl)

	s.mu.Lock()
	s.states[key] = state
	s.mu.Unlock()

	return key
}

// Consume removes and returns the state for the key. A missing or expired
// key returns ok=false, which callers treat as a forged or stale callback.
func (s *StateStore) Consume(key string) (FlowState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[key]
	if !ok {
		return FlowState{}, false
	}
	delete(s.states, key)

	if time.Now().After(state.Expires) {
		return FlowState{}, false
	}
	return state, true
}

// Prune drops expired states. Called periodically by the scheduler.
func (s *StateStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, state := range s.states {
		if now.After(state.Expires) {
			delete(s.states, key)
			removed++
		}
	}
	return removed
}
