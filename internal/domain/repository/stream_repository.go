package repository

import (
	"context"

	"github.com/georepo-validation/internal/domain"
)

// StreamRepository is the message-passing boundary to the surrounding
// platform: validation requests in, finish notifications out.
type StreamRepository interface {
	// CreateConsumerGroup creates a consumer group for a stream.
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeBatch reads up to count pending messages without blocking.
	ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error)

	// AckMessage acknowledges a processed message.
	AckMessage(ctx context.Context, stream, group, messageID string) error

	// PublishToStream publishes one message (fire-and-forget; delivery and
	// retry are the platform's concern).
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
