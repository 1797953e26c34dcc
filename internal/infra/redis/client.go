package redis

import (
	"context"
	"fmt"
	"time"

	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/infra/config"
)

// Client wraps the go-redis client with lifecycle helpers.
type Client struct {
	client *red.Client
}

// NewClient connects to Redis and verifies the connection.
func NewClient(cfg config.RedisSettings, log *zap.Logger) (*Client, error) {
	client := red.NewClient(&red.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("redis client ready",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("db", cfg.DB),
	)

	return &Client{client: client}, nil
}

// Client exposes the underlying go-redis client.
func (c *Client) Client() *red.Client {
	return c.client
}

// HealthCheck pings the server, used by readiness probes.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.client.Close()
}
