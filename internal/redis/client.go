package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps the Redis client shared by the profile cache and the media
// cleanup queue, so both reuse one connection pool.
type Client struct {
	*redis.Client
}

// NewClient creates a new Redis client from the given URL.
// URL format: redis://[:password@]host:port[/db]
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Client{Client: redis.NewClient(opts)}, nil
}

// Connect creates the client and pings it so startup fails fast when Redis
// is unreachable.
func Connect(ctx context.Context, redisURL string, logger *zap.Logger) (*Client, error) {
	client, err := NewClient(redisURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to redis", zap.String("addr", client.Options().Addr), zap.Int("db", client.Options().DB))
	return client, nil
}

// Ping verifies the connection to Redis.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}
