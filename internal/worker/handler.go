package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"videotube_backend/internal/queue"
)

// MediaDeleter removes a stored object by its public URL.
type MediaDeleter interface {
	DeleteByURL(ctx context.Context, url string) error
}

// Handler processes media events from the queue.
type Handler struct {
	media  MediaDeleter
	logger *zap.Logger
}

// NewHandler creates a new event handler.
func NewHandler(media MediaDeleter, logger *zap.Logger) *Handler {
	return &Handler{media: media, logger: logger}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.MediaEvent) error {
	switch event.Type {
	case queue.EventMediaObsolete:
		return h.handleMediaObsolete(ctx, event)
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

func (h *Handler) handleMediaObsolete(ctx context.Context, event queue.MediaEvent) error {
	if event.URL == "" {
		return nil
	}
	if err := h.media.DeleteByURL(ctx, event.URL); err != nil {
		return fmt.Errorf("delete %s: %w", event.URL, err)
	}
	h.logger.Info("obsolete media deleted", zap.String("url", event.URL), zap.String("reason", event.Reason))
	return nil
}
