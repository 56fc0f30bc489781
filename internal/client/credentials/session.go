package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/client/repositories/metadata"
	"github.com/Grupo-Cloud/frontend/internal/dbx"
)

const keyAccessToken = "access_token"

// SessionStore persists the access token in the session_values table and keeps the
// refresh token in memory only, so it is gone when the process exits. After a
// restart the store holds an access-only credential.
type SessionStore struct {
	mu      sync.Mutex
	db      *sql.DB
	cred    Credential
	gen     uint64
	loaded  bool
	savedAt time.Time
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) repo(tx dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(tx)
}

// load reads the durable access token once. Callers hold s.mu.
func (s *SessionStore) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	v, ok, err := s.repo(s.db).Get(ctx, keyAccessToken)
	if err != nil {
		return err
	}
	if ok {
		s.cred = Credential{AccessToken: v.Data}
		s.savedAt = v.UpdatedAt
	}
	s.loaded = true
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (Credential, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return Credential{}, 0, fmt.Errorf("load credential: %w", err)
	}
	return s.cred, s.gen, nil
}

// SavedAt returns when the current access token was written, or the zero time.
func (s *SessionStore) SavedAt(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return time.Time{}, err
	}
	return s.savedAt, nil
}

func (s *SessionStore) persist(ctx context.Context, token string) error {
	now := time.Now().UTC().Truncate(time.Second)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).Put(ctx, now, map[string]string{keyAccessToken: token})
	})
	if err != nil {
		return err
	}
	s.savedAt = now
	return nil
}

func (s *SessionStore) wipe(ctx context.Context) error {
	if err := s.repo(s.db).Delete(ctx, keyAccessToken); err != nil {
		return err
	}
	s.savedAt = time.Time{}
	return nil
}

func (s *SessionStore) Save(ctx context.Context, c Credential) error {
	if c.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, c.AccessToken); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.cred = c
	s.loaded = true
	s.gen++
	return nil
}

func (s *SessionStore) Rotate(ctx context.Context, gen uint64, c Credential) (bool, error) {
	if c.AccessToken == "" {
		return false, ErrEmptyAccessToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return false, fmt.Errorf("rotate credential: %w", err)
	}
	if gen != s.gen || s.cred.Empty() {
		return false, nil
	}
	if err := s.persist(ctx, c.AccessToken); err != nil {
		return false, fmt.Errorf("rotate credential: %w", err)
	}
	s.cred = merge(s.cred, c)
	return true, nil
}

// Clear always forgets the in-memory credential and bumps the generation,
// even when the durable delete fails; the error is still returned.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *SessionStore) ClearIf(ctx context.Context, gen uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false, nil
	}
	return true, s.clearLocked(ctx)
}

func (s *SessionStore) clearLocked(ctx context.Context) error {
	s.cred = Credential{}
	s.loaded = true
	s.gen++
	if err := s.wipe(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
