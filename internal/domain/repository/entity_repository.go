package repository

import (
	"context"

	"github.com/georepo-validation/internal/domain"
)

// EntityRepository queries previously-accepted geographical entities. The
// validation core only reads from it; ownership of the rows lies with the
// dataset model.
type EntityRepository interface {
	// GetByID returns one entity.
	GetByID(ctx context.Context, id int64) (*domain.GeographicalEntity, error)

	// GetSiblings returns already-persisted entities for the same dataset,
	// level and layer file, excluding the given internal code. Used by the
	// duplicate-geometry check.
	GetSiblings(ctx context.Context, datasetID int64, level int, layerFileID int64, excludeCode string) ([]*domain.GeographicalEntity, error)

	// GetByInternalCode returns the entity with the given code at a level
	// within one revision, or nil when absent.
	GetByInternalCode(ctx context.Context, datasetID int64, level int, code string, revision int) (*domain.GeographicalEntity, error)

	// GetPreviousRevision returns the approved entities of the previous
	// revision under the given ancestor at one level. This is the comparison
	// set for boundary matching.
	GetPreviousRevision(ctx context.Context, datasetID, ancestorID int64, level int) ([]*domain.GeographicalEntity, error)

	// GetDescendants returns the candidate (new revision) entities under an
	// ancestor, ordered by level then internal code.
	GetDescendants(ctx context.Context, ancestorID int64) ([]*domain.GeographicalEntity, error)
}
