package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/domain/repository"
	apperrors "github.com/georepo-validation/internal/pkg/errors"
)

const entityColumns = `
	id, dataset_id, level, internal_code, default_name, default_code,
	uuid, uuid_revision, revision_number, parent_id, ancestor_id,
	privacy_level, is_approved, is_latest,
	ST_AsGeoJSON(geometry) AS geometry, layer_file_id, created_at
`

type entityRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewEntityRepository creates a PostgreSQL-backed EntityRepository.
func NewEntityRepository(db *DB) repository.EntityRepository {
	return &entityRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *entityRepository) GetByID(ctx context.Context, id int64) (*domain.GeographicalEntity, error) {
	query := `SELECT` + entityColumns + `FROM geographical_entity WHERE id = $1`

	var entity domain.GeographicalEntity
	err := r.db.GetContext(ctx, &entity, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrEntityNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get entity by ID", zap.Int64("id", id), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return &entity, nil
}

func (r *entityRepository) GetByInternalCode(ctx context.Context, datasetID int64, level int, code string, revision int) (*domain.GeographicalEntity, error) {
	query := `
		SELECT` + entityColumns + `
		FROM geographical_entity
		WHERE dataset_id = $1 AND level = $2 AND internal_code = $3 AND revision_number = $4
	`

	var entity domain.GeographicalEntity
	err := r.db.GetContext(ctx, &entity, query, datasetID, level, code, revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get entity by code",
			zap.Int64("dataset_id", datasetID),
			zap.String("code", code),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return &entity, nil
}

func (r *entityRepository) GetSiblings(ctx context.Context, datasetID int64, level int, layerFileID int64, excludeCode string) ([]*domain.GeographicalEntity, error) {
	query := `
		SELECT` + entityColumns + `
		FROM geographical_entity
		WHERE dataset_id = $1
		  AND level = $2
		  AND layer_file_id = $3
		  AND internal_code <> $4
		ORDER BY internal_code
	`

	var entities []*domain.GeographicalEntity
	err := r.db.SelectContext(ctx, &entities, query, datasetID, level, layerFileID, excludeCode)
	if err != nil {
		r.logger.Error("Failed to get sibling entities",
			zap.Int64("dataset_id", datasetID),
			zap.Int("level", level),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return entities, nil
}

func (r *entityRepository) GetPreviousRevision(ctx context.Context, datasetID, ancestorID int64, level int) ([]*domain.GeographicalEntity, error) {
	// The previous revision is the latest approved one under the same
	// ancestor lineage (matched by ancestor uuid, revisions share it).
	query := `
		SELECT` + entityColumns + `
		FROM geographical_entity
		WHERE dataset_id = $1
		  AND level = $2
		  AND is_approved = TRUE
		  AND (ancestor_id = $3 OR id = $3)
		  AND revision_number = (
			SELECT MAX(revision_number)
			FROM geographical_entity
			WHERE dataset_id = $1 AND level = $2 AND is_approved = TRUE
			  AND (ancestor_id = $3 OR id = $3)
		  )
		ORDER BY internal_code
	`

	var entities []*domain.GeographicalEntity
	err := r.db.SelectContext(ctx, &entities, query, datasetID, level, ancestorID)
	if err != nil {
		r.logger.Error("Failed to get previous revision entities",
			zap.Int64("dataset_id", datasetID),
			zap.Int64("ancestor_id", ancestorID),
			zap.Int("level", level),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return entities, nil
}

func (r *entityRepository) GetDescendants(ctx context.Context, ancestorID int64) ([]*domain.GeographicalEntity, error) {
	query := `
		SELECT` + entityColumns + `
		FROM geographical_entity
		WHERE ancestor_id = $1 OR id = $1
		ORDER BY level, internal_code
	`

	var entities []*domain.GeographicalEntity
	err := r.db.SelectContext(ctx, &entities, query, ancestorID)
	if err != nil {
		r.logger.Error("Failed to get descendant entities",
			zap.Int64("ancestor_id", ancestorID),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return entities, nil
}
