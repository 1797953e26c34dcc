package port

import (
	"context"
	"time"
)

// SessionStore is the stateful alternative to signed bearer tokens: an opaque
// random token mapped server-side to a user identity. Deployments that need
// immediate revocation on logout or deactivation run in this mode.
type SessionStore interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
}
