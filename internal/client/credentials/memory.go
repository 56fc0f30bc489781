package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps both tokens in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	cred Credential
	gen  uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (Credential, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.gen, nil
}

func (s *MemoryStore) Save(_ context.Context, c Credential) error {
	if c.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = c
	s.gen++
	return nil
}

func (s *MemoryStore) Rotate(_ context.Context, gen uint64, c Credential) (bool, error) {
	if c.AccessToken == "" {
		return false, ErrEmptyAccessToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.cred.Empty() {
		return false, nil
	}
	s.cred = merge(s.cred, c)
	return true, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	s.gen++
	return nil
}

func (s *MemoryStore) ClearIf(_ context.Context, gen uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false, nil
	}
	s.cred = Credential{}
	s.gen++
	return true, nil
}

func merge(old, next Credential) Credential {
	if next.RefreshToken == "" {
		next.RefreshToken = old.RefreshToken
	}
	return next
}
