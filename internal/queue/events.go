package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the media stream
const (
	EventMediaObsolete = "media_obsolete"
)

// Stream names
const (
	StreamMedia = "stream:media"
)

// Consumer group name for cleanup workers
const (
	ConsumerGroupMedia = "media_cleanup"
)

// MediaEvent reports a stored object that no user references any more: a
// replaced avatar or cover image, or an upload from a rolled-back registration.
type MediaEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred
	URL       string `json:"url"`
	Reason    string `json:"reason,omitempty"`
}

// NewMediaObsoleteEvent creates an event asking the worker to delete url.
func NewMediaObsoleteEvent(url, reason string) MediaEvent {
	return MediaEvent{
		Type:      EventMediaObsolete,
		Timestamp: time.Now().Unix(),
		URL:       url,
		Reason:    reason,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e MediaEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseMediaEvent parses a MediaEvent from Redis stream message values.
func ParseMediaEvent(values map[string]interface{}) (MediaEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return MediaEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event MediaEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return MediaEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
