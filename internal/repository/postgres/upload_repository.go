package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/domain/repository"
	apperrors "github.com/georepo-validation/internal/pkg/errors"
)

const uploadColumns = `
	id, session_id, dataset_id, module, revised_entity_id,
	original_entity_code, status, summaries, error_report,
	comparison_data_ready, max_level_in_layer, admin_level_names,
	started_at, finished_at
`

type uploadRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewUploadRepository creates a PostgreSQL-backed UploadRepository.
func NewUploadRepository(db *DB) repository.UploadRepository {
	return &uploadRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *uploadRepository) GetByID(ctx context.Context, id int64) (*domain.EntityUploadStatus, error) {
	query := `SELECT` + uploadColumns + `FROM entity_upload_status WHERE id = $1`

	var upload domain.EntityUploadStatus
	err := r.db.GetContext(ctx, &upload, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUploadNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get upload by ID", zap.Int64("id", id), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return &upload, nil
}

func (r *uploadRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.LayerUploadSession, error) {
	query := `
		SELECT id, dataset_id, module, uploader_id, tolerance, description, created_at
		FROM layer_upload_session
		WHERE id = $1
	`

	var session domain.LayerUploadSession
	err := r.db.GetContext(ctx, &session, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get session", zap.String("session_id", sessionID.String()), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return &session, nil
}

// AcquireForValidation locks the upload row without waiting. Two workers may
// race for the same upload; exactly one wins the NOWAIT lock, the other gets
// SQLSTATE 55P03 and reports (nil, false, nil).
func (r *uploadRepository) AcquireForValidation(ctx context.Context, id int64) (*domain.EntityUploadStatus, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT` + uploadColumns + `
		FROM entity_upload_status
		WHERE id = $1 AND status = $2
		FOR UPDATE NOWAIT
	`

	var upload domain.EntityUploadStatus
	err = tx.GetContext(ctx, &upload, query, id, domain.UploadStatusStarted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already picked up, finished, or gone.
			return nil, false, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
			// lock_not_available: another worker holds the row.
			r.logger.Debug("Upload row locked by another worker", zap.Int64("id", id))
			return nil, false, nil
		}
		r.logger.Error("Failed to lock upload", zap.Int64("id", id), zap.Error(err))
		return nil, false, apperrors.ErrDatabaseError
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE entity_upload_status
		SET status = $1, started_at = $2, summaries = NULL, error_report = ''
		WHERE id = $3
	`, domain.UploadStatusProcessing, now, id)
	if err != nil {
		r.logger.Error("Failed to mark upload processing", zap.Int64("id", id), zap.Error(err))
		return nil, false, apperrors.ErrDatabaseError
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	upload.Status = domain.UploadStatusProcessing
	upload.StartedAt = &now
	return &upload, true, nil
}

// FinishValidation writes the terminal result and counts unfinished siblings
// inside one transaction. The session row is locked first so two uploads
// finishing simultaneously serialize, and exactly one of them observes
// remaining == 0.
func (r *uploadRepository) FinishValidation(ctx context.Context, id int64, status string, summaries domain.LevelErrorReports) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sessionID uuid.UUID
	err = tx.GetContext(ctx, &sessionID, `
		SELECT s.id
		FROM layer_upload_session s
		JOIN entity_upload_status u ON u.session_id = s.id
		WHERE u.id = $1
		FOR UPDATE OF s
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.ErrUploadNotFound
	}
	if err != nil {
		r.logger.Error("Failed to lock session", zap.Int64("upload_id", id), zap.Error(err))
		return 0, apperrors.ErrDatabaseError
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE entity_upload_status
		SET status = $1, summaries = $2, finished_at = $3
		WHERE id = $4
	`, status, summaries, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to finish upload", zap.Int64("id", id), zap.Error(err))
		return 0, apperrors.ErrDatabaseError
	}

	var remaining int
	err = tx.GetContext(ctx, &remaining, `
		SELECT COUNT(*)
		FROM entity_upload_status
		WHERE session_id = $1 AND status IN ($2, $3)
	`, sessionID, domain.UploadStatusStarted, domain.UploadStatusProcessing)
	if err != nil {
		r.logger.Error("Failed to count unfinished uploads", zap.String("session_id", sessionID.String()), zap.Error(err))
		return 0, apperrors.ErrDatabaseError
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Upload validation finished",
		zap.Int64("id", id),
		zap.String("status", status),
		zap.Int("remaining", remaining))
	return remaining, nil
}

func (r *uploadRepository) MarkError(ctx context.Context, id int64, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE entity_upload_status
		SET status = $1, error_report = $2, finished_at = $3
		WHERE id = $4
	`, domain.UploadStatusErrorProcessing, message, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark upload errored", zap.Int64("id", id), zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *uploadRepository) SetComparisonReady(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE entity_upload_status
		SET comparison_data_ready = TRUE, status = $1
		WHERE id = $2
	`, domain.UploadStatusReviewing, id)
	if err != nil {
		r.logger.Error("Failed to set comparison ready", zap.Int64("id", id), zap.Error(err))
		return apperrors.ErrDatabaseError
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return apperrors.ErrUploadNotFound
	}
	return nil
}
