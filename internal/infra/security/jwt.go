package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

// ErrInvalidToken is returned for every verification failure: malformed,
// expired, mis-signed, or otherwise unusable tokens are indistinguishable to
// callers so nothing leaks about why a token was rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

const defaultTokenTTL = 7 * 24 * time.Hour

// sessionClaims carries the user identity inside a signed bearer token.
type sessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies stateless bearer tokens with a server secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer. The signing secret must be
// non-empty; the TTL falls back to seven days when unset.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt: signing secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// WithClock overrides the internal clock, used in tests.
func (t *TokenIssuer) WithClock(clock func() time.Time) {
	if clock != nil {
		t.now = clock
	}
}

// Issue signs a token embedding the user identity, issue time, and expiry.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("jwt: user id is required")
	}

	now := t.now().UTC()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// Verify validates the token signature and expiry and returns the embedded
// user id. Fails closed: every failure maps to ErrInvalidToken.
func (t *TokenIssuer) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil || parsed == nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		return "", ErrInvalidToken
	}

	return userID, nil
}
