package repository

import (
	"context"

	"github.com/georepo-validation/internal/domain"
)

// FeatureSource yields the features of one uploaded layer set, restartable
// per admin level. File format handling (GeoJSON/Shapefile/GeoPackage) lives
// behind this interface.
type FeatureSource interface {
	// MaxLevel returns the deepest admin level present in the layer set.
	MaxLevel() int

	// ReadLevel returns all features of one admin level, in file order.
	ReadLevel(ctx context.Context, level int) ([]domain.Feature, error)

	// LayerFileID returns the persisted layer file id for a level, used to
	// scope sibling queries. Zero when the level has no persisted file.
	LayerFileID(level int) int64
}
