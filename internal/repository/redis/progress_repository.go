package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain/repository"
)

// Progress lines live for a week; the review UI reads them while the
// upload is open.
const progressTTL = 7 * 24 * time.Hour

type progressRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewProgressRepository creates an append-only progress sink backed by a
// Redis list per upload.
func NewProgressRepository(client *redis.Client, logger *zap.Logger) repository.ProgressRepository {
	return &progressRepository{
		client: client,
		logger: logger,
	}
}

func progressKey(uploadID int64) string {
	return fmt.Sprintf("progress:upload:%d", uploadID)
}

// Append records one human-readable progress line.
func (r *progressRepository) Append(ctx context.Context, uploadID int64, message string) error {
	key := progressKey(uploadID)
	line := fmt.Sprintf("%s %s", time.Now().UTC().Format(time.RFC3339), message)
	if err := r.client.RPush(ctx, key, line).Err(); err != nil {
		return fmt.Errorf("failed to append progress: %w", err)
	}
	if err := r.client.Expire(ctx, key, progressTTL).Err(); err != nil {
		r.logger.Warn("Failed to set progress TTL",
			zap.Int64("upload_id", uploadID),
			zap.Error(err))
	}
	return nil
}

// Stage records one pipeline stage's elapsed wall-clock time.
func (r *progressRepository) Stage(ctx context.Context, uploadID int64, stage string, elapsed time.Duration) error {
	return r.Append(ctx, uploadID, fmt.Sprintf("stage %q finished in %s", stage, elapsed))
}
