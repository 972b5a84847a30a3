package repository

import (
	"context"

	"github.com/georepo-validation/internal/domain"
)

// ComparisonRepository persists boundary comparison rows.
type ComparisonRepository interface {
	// SaveBatch inserts comparison rows for one upload.
	SaveBatch(ctx context.Context, comparisons []*domain.BoundaryComparison) error

	// GetByUpload returns all comparison rows for an upload.
	GetByUpload(ctx context.Context, uploadID int64) ([]*domain.BoundaryComparison, error)

	// DeleteUnedited removes machine-generated rows for an upload, keeping
	// rows a reviewer has edited. Called before a rematch.
	DeleteUnedited(ctx context.Context, uploadID int64) error

	// DeleteAll removes every comparison row for an upload, edited rows
	// included. Called before a forced rematch.
	DeleteAll(ctx context.Context, uploadID int64) error

	// HasEdited reports whether any row for the upload carries review edits.
	HasEdited(ctx context.Context, uploadID int64) (bool, error)
}
