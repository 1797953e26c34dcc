package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/infra/security"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

const (
	defaultSessionPrefix = "sess"
	tokenKeySegment      = "tok"
	userKeySegment       = "user"
)

// SessionStore is a Redis-backed implementation of port.SessionStore. Each
// token maps to its user id with the session TTL, and a per-user set tracks
// outstanding tokens so deactivation can revoke them all at once.
type SessionStore struct {
	client *red.Client
	prefix string
}

// NewSessionStore constructs a Redis-backed session directory.
func NewSessionStore(client *red.Client, keyPrefix string) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}

	return &SessionStore{client: client, prefix: prefix}
}

// Create mints an opaque token bound to the user.
func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}

	token, err := security.GenerateSecureToken(32)
	if err != nil {
		return "", err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(token), userID, ttl)
	pipe.SAdd(ctx, s.userKey(userID), token)
	// Keep the index alive at least as long as its longest-lived token.
	pipe.Expire(ctx, s.userKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis create session: %w", err)
	}

	return token, nil
}

// Lookup resolves a token to its user id. Expired or unknown tokens fail
// identically with ErrNotFound.
func (s *SessionStore) Lookup(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", repository.ErrNotFound
	}

	userID, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis lookup session: %w", err)
	}

	return userID, nil
}

// Revoke deletes a single session. Revoking an unknown token is a no-op.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}

	userID, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil
		}
		return fmt.Errorf("redis get session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.tokenKey(token))
	pipe.SRem(ctx, s.userKey(userID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis revoke session: %w", err)
	}

	return nil
}

// RevokeAllForUser deletes every live session belonging to the user and
// reports how many were dropped.
func (s *SessionStore) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("user id is required")
	}

	tokens, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list user sessions: %w", err)
	}

	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(tokens))
	for _, token := range tokens {
		keys = append(keys, s.tokenKey(token))
	}

	// Expired tokens linger in the set until revocation, so count only the
	// keys that still existed.
	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete user sessions: %w", err)
	}

	if err := s.client.Del(ctx, s.userKey(userID)).Err(); err != nil {
		return 0, fmt.Errorf("redis delete user session index: %w", err)
	}

	return int(deleted), nil
}

func (s *SessionStore) tokenKey(token string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, tokenKeySegment, token)
}

func (s *SessionStore) userKey(userID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, userKeySegment, userID)
}

var _ port.SessionStore = (*SessionStore)(nil)
