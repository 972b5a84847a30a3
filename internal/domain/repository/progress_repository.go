package repository

import (
	"context"
	"time"
)

// ProgressRepository is an append-only, human-readable progress sink for
// long validation runs. No contract beyond ordering is implied.
type ProgressRepository interface {
	// Append records one free-text progress line for the upload.
	Append(ctx context.Context, uploadID int64, message string) error

	// Stage records the elapsed wall-clock time of one pipeline stage.
	Stage(ctx context.Context, uploadID int64, stage string, elapsed time.Duration) error
}
