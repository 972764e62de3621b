package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message represents a message read from a Redis stream.
type Message struct {
	ID    string     // Redis message ID (e.g., "1702000000000-0")
	Event MediaEvent // Parsed event data
}

// Consumer defines the interface for consuming events from a stream.
type Consumer interface {
	// EnsureGroup creates the consumer group if it doesn't exist.
	// Should be called at worker startup.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read reads new messages for this consumer with XREADGROUP.
	// block: how long to block waiting for new messages
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to this consumer but never
	// acknowledged, e.g. because the process died mid-batch.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	// Ack acknowledges that a message has been processed.
	Ack(ctx context.Context, stream, group string, messageIDs ...string) error
}

// RedisConsumer implements Consumer using Redis Streams.
type RedisConsumer struct {
	client *redis.Client
	logger *zap.Logger
}

// NewConsumer creates a new Consumer backed by Redis Streams.
func NewConsumer(client *redis.Client, logger *zap.Logger) Consumer {
	return &RedisConsumer{client: client, logger: logger}
}

// EnsureGroup creates the consumer group and the stream if needed.
// The "0" ID makes a new group start from the beginning of the stream.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}

	c.logger.Info("consumer group created", zap.String("stream", stream), zap.String("group", group))
	return nil
}

// Read reads messages never delivered to any consumer (">").
func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	})
}

// ReadPending reads this consumer's unacknowledged messages ("0").
func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	return c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, "0"},
		Count:    count,
		Block:    -1, // history reads never block
	})
}

func (c *RedisConsumer) read(ctx context.Context, args *redis.XReadGroupArgs) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, args).Result()
	if err == redis.Nil {
		// Timeout - no new messages
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := ParseMediaEvent(msg.Values)
			if err != nil {
				// Malformed messages are acked so they do not block the pending list
				c.logger.Warn("dropping malformed message", zap.String("msg_id", msg.ID), zap.Error(err))
				_ = c.Ack(ctx, s.Stream, args.Group, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	return messages, nil
}

// Ack acknowledges messages using XACK.
func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}
