package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

// SessionRevocationStore is the cache-free fallback for the Redis revocation
// store. Entries are kept until their expiry passes.
type SessionRevocationStore struct {
	mu      sync.RWMutex
	revoked map[uuid.UUID]time.Time
}

func NewSessionRevocationStore() *SessionRevocationStore {
	return &SessionRevocationStore{revoked: map[uuid.UUID]time.Time{}}
}

func (s *SessionRevocationStore) Revoke(_ context.Context, sessionID uuid.UUID, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = until
	return nil
}

func (s *SessionRevocationStore) IsRevoked(_ context.Context, sessionID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.revoked[sessionID]
	if !ok {
		return false, nil
	}
	return time.Now().UTC().Before(until), nil
}

// LockoutStore tracks failed login counts per key in process memory.
type LockoutStore struct {
	mu     sync.Mutex
	states map[string]ports.LockoutState
}

func NewLockoutStore() *LockoutStore {
	return &LockoutStore{states: map[string]ports.LockoutState{}}
}

func (s *LockoutStore) Get(_ context.Context, key string) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[key], nil
}

func (s *LockoutStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.states[key]
	state.FailedCount++
	if threshold > 0 && state.FailedCount >= threshold {
		until := now.Add(lockoutWindow)
		state.LockedUntil = &until
	}
	s.states[key] = state
	return state, nil
}

func (s *LockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}
