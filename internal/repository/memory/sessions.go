package memory

import (
	"context"
	"sync"
	"time"

	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/infra/security"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

type sessionEntry struct {
	userID    string
	expiresAt time.Time
}

// SessionStore is an in-memory implementation of port.SessionStore for
// single-node deployments. Expired entries are dropped lazily on lookup.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

// NewSessionStore constructs an empty in-memory session directory.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]sessionEntry),
		now:      time.Now,
	}
}

// WithClock overrides the time source for deterministic expiry tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Create mints an opaque token bound to the user.
func (s *SessionStore) Create(_ context.Context, userID string, ttl time.Duration) (string, error) {
	token, err := security.GenerateSecureToken(32)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = sessionEntry{
		userID:    userID,
		expiresAt: s.now().Add(ttl),
	}

	return token, nil
}

// Lookup resolves a token to its user id. Expired or unknown tokens fail
// identically with ErrNotFound.
func (s *SessionStore) Lookup(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return "", repository.ErrNotFound
	}

	if !entry.expiresAt.After(s.now()) {
		delete(s.sessions, token)
		return "", repository.ErrNotFound
	}

	return entry.userID, nil
}

// Revoke deletes a single session. Revoking an unknown token is a no-op.
func (s *SessionStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// RevokeAllForUser deletes every session belonging to the user and reports
// how many were dropped.
func (s *SessionStore) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revoked := 0
	for token, entry := range s.sessions {
		if entry.userID == userID {
			delete(s.sessions, token)
			revoked++
		}
	}

	return revoked, nil
}

var _ port.SessionStore = (*SessionStore)(nil)
