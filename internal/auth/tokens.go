package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/five82/rack/internal/credstore"
)

// ErrNoCredential is returned when an operation needs a token and none is held.
var ErrNoCredential = errors.New("not signed in")

// Persister is the durable backing of a TokenStore.
type Persister interface {
	LoadCredential(ctx context.Context) (credstore.Credential, error)
	SaveCredential(ctx context.Context, cred credstore.Credential) error
	ClearCredential(ctx context.Context) error
}

// TokenStore holds the process-wide bearer credential. It is safe for
// concurrent use and satisfies api.TokenSource.
type TokenStore struct {
	mu      sync.RWMutex
	cred    credstore.Credential
	persist Persister
}

// NewTokenStore returns an empty store backed by p. A nil p keeps the
// credential in memory only.
func NewTokenStore(p Persister) *TokenStore {
	return &TokenStore{persist: p}
}

// Load restores the persisted credential. A missing credential is not an error.
func (s *TokenStore) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	cred, err := s.persist.LoadCredential(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
	return nil
}

// Token returns the current bearer token or "".
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Token
}

// Username returns the name recorded at sign-in, if any.
func (s *TokenStore) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Username
}

// Present reports whether a token is held.
func (s *TokenStore) Present() bool {
	return s.Token() != ""
}

// Set replaces the credential and persists it.
func (s *TokenStore) Set(ctx context.Context, cred credstore.Credential) error {
	cred.Token = strings.TrimSpace(cred.Token)
	cred.Username = strings.TrimSpace(cred.Username)
	if cred.Token == "" {
		return ErrNoCredential
	}
	if s.persist != nil {
		if err := s.persist.SaveCredential(ctx, cred); err != nil {
			return fmt.Errorf("save credential: %w", err)
		}
	}
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
	return nil
}

// Clear drops the credential. The in-memory copy is always cleared, even
// when the persistent delete fails.
func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cred = credstore.Credential{}
	s.mu.Unlock()
	if s.persist == nil {
		return nil
	}
	if err := s.persist.ClearCredential(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
