package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/domain/repository"
	apperrors "github.com/georepo-validation/internal/pkg/errors"
)

type comparisonRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewComparisonRepository creates a PostgreSQL-backed ComparisonRepository.
func NewComparisonRepository(db *DB) repository.ComparisonRepository {
	return &comparisonRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *comparisonRepository) SaveBatch(ctx context.Context, comparisons []*domain.BoundaryComparison) error {
	if len(comparisons) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO boundary_comparison (
			entity_upload_id, main_boundary_id, comparison_boundary_id,
			code_match, name_similarity, geometry_overlap_new, geometry_overlap_old,
			centroid_distance, is_parent_rematched, is_same_entity, is_edited
		) VALUES (
			:entity_upload_id, :main_boundary_id, :comparison_boundary_id,
			:code_match, :name_similarity, :geometry_overlap_new, :geometry_overlap_old,
			:centroid_distance, :is_parent_rematched, :is_same_entity, :is_edited
		)
	`

	for _, c := range comparisons {
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			r.logger.Error("Failed to insert comparison",
				zap.Int64("entity_upload_id", c.EntityUploadID),
				zap.Int64("main_boundary_id", c.MainBoundaryID),
				zap.Error(err))
			return apperrors.ErrDatabaseError
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug("Comparison batch saved", zap.Int("count", len(comparisons)))
	return nil
}

func (r *comparisonRepository) GetByUpload(ctx context.Context, uploadID int64) ([]*domain.BoundaryComparison, error) {
	query := `
		SELECT id, entity_upload_id, main_boundary_id, comparison_boundary_id,
		       code_match, name_similarity, geometry_overlap_new, geometry_overlap_old,
		       centroid_distance, is_parent_rematched, is_same_entity, is_edited, created_at
		FROM boundary_comparison
		WHERE entity_upload_id = $1
		ORDER BY main_boundary_id
	`

	var comparisons []*domain.BoundaryComparison
	err := r.db.SelectContext(ctx, &comparisons, query, uploadID)
	if err != nil {
		r.logger.Error("Failed to get comparisons", zap.Int64("upload_id", uploadID), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return comparisons, nil
}

func (r *comparisonRepository) DeleteUnedited(ctx context.Context, uploadID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM boundary_comparison
		WHERE entity_upload_id = $1 AND is_edited = FALSE
	`, uploadID)
	if err != nil {
		r.logger.Error("Failed to delete unedited comparisons", zap.Int64("upload_id", uploadID), zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *comparisonRepository) DeleteAll(ctx context.Context, uploadID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM boundary_comparison
		WHERE entity_upload_id = $1
	`, uploadID)
	if err != nil {
		r.logger.Error("Failed to delete comparisons", zap.Int64("upload_id", uploadID), zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *comparisonRepository) HasEdited(ctx context.Context, uploadID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM boundary_comparison
			WHERE entity_upload_id = $1 AND is_edited = TRUE
		)
	`, uploadID)
	if err != nil {
		r.logger.Error("Failed to check edited comparisons", zap.Int64("upload_id", uploadID), zap.Error(err))
		return false, apperrors.ErrDatabaseError
	}
	return exists, nil
}
