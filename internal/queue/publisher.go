package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event MediaEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client, logger *zap.Logger) Publisher {
	return &RedisPublisher{client: client, logger: logger}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event MediaEvent) (string, error) {
	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("stream", stream),
		zap.String("type", event.Type),
		zap.String("msg_id", messageID),
		zap.String("url", event.URL),
	)
	return messageID, nil
}

// MediaCleaner queues obsolete media objects for asynchronous deletion.
type MediaCleaner struct {
	publisher Publisher
}

func NewMediaCleaner(publisher Publisher) *MediaCleaner {
	return &MediaCleaner{publisher: publisher}
}

// Discard publishes a media_obsolete event for url.
func (c *MediaCleaner) Discard(ctx context.Context, url, reason string) error {
	_, err := c.publisher.Publish(ctx, StreamMedia, NewMediaObsoleteEvent(url, reason))
	return err
}
