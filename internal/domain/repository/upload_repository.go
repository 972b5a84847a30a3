package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/georepo-validation/internal/domain"
)

// UploadRepository persists EntityUploadStatus rows and drives the
// validation state machine transitions.
type UploadRepository interface {
	// GetByID returns one upload row.
	GetByID(ctx context.Context, id int64) (*domain.EntityUploadStatus, error)

	// GetSession returns the session an upload belongs to.
	GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.LayerUploadSession, error)

	// AcquireForValidation attempts to pick up an upload for processing.
	// It takes a row lock without waiting (FOR UPDATE NOWAIT) and requires
	// status STARTED; if the lock is held elsewhere or the status has already
	// advanced it returns (nil, false, nil), expected under concurrent
	// scheduling, not an error. On success the row is flipped to PROCESSING.
	AcquireForValidation(ctx context.Context, id int64) (*domain.EntityUploadStatus, bool, error)

	// FinishValidation writes summaries and the terminal status (VALID or
	// ERROR) in one transaction that also locks the session row, so the
	// returned count of siblings still STARTED/PROCESSING is race-free.
	FinishValidation(ctx context.Context, id int64, status string, summaries domain.LevelErrorReports) (remaining int, err error)

	// MarkError records an infrastructure failure message on the upload.
	MarkError(ctx context.Context, id int64, message string) error

	// SetComparisonReady flags comparison data availability and moves the
	// upload to REVIEWING.
	SetComparisonReady(ctx context.Context, id int64) error
}
