package logger

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lg   *zap.Logger
	once sync.Once
)

// New returns a singleton zap.Logger configured for structured logging.
func New(env string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if env != "production" {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		lg, err = cfg.Build()
	})

	return lg, err
}

// RequestIDKey is used to store a request identifier on the context.
type RequestIDKey struct{}

// WithContext attaches request scoped fields to the logger.
func WithContext(ctx context.Context) *zap.Logger {
	if lg == nil {
		lz, _ := zap.NewDevelopment()
		return lz
	}

	if ctx == nil {
		return lg
	}

	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		return lg.With(zap.String("request_id", id))
	}

	return lg
}

// MaskEmail masks email addresses, showing the first characters and domain.
// Example: jean.dupont@example.com -> jea***@example.com
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		if len(email) <= 3 {
			return "***"
		}
		return email[:3] + "***"
	}

	local := parts[0]
	if len(local) <= 3 {
		return "***@" + parts[1]
	}
	return local[:3] + "***@" + parts[1]
}
