package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential in process memory. It satisfies the
// atomic-replacement contract with a mutex and hands out clones so callers
// cannot mutate the stored value. State does not survive a restart; use
// [RedisStore] when continuity across processes matters.
type MemoryStore struct {
	mu   sync.Mutex
	cred *Credential
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored credential, or [ErrNoCredential].
func (s *MemoryStore) Load(_ context.Context) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred == nil {
		return nil, ErrNoCredential
	}
	return s.cred.Clone(), nil
}

// Save replaces the stored credential with a copy of cred.
func (s *MemoryStore) Save(_ context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = cred.Clone()
	return nil
}

// Clear removes the stored credential. Clearing an empty store succeeds.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = nil
	return nil
}
