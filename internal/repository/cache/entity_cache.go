package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/domain/repository"
)

// Sibling sets are queried once per uploaded level and every upload in a
// session hits the same dataset, so a short TTL is enough.
const entityCacheTTL = 10 * time.Minute

type cachedEntityRepository struct {
	inner  repository.EntityRepository
	cache  repository.CacheRepository
	logger *zap.Logger
}

// NewCachedEntityRepository wraps an EntityRepository with read-through
// caching for the queries validation repeats across uploads of one session.
// Point lookups pass through uncached.
func NewCachedEntityRepository(inner repository.EntityRepository, cache repository.CacheRepository, logger *zap.Logger) repository.EntityRepository {
	return &cachedEntityRepository{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

func (r *cachedEntityRepository) GetByID(ctx context.Context, id int64) (*domain.GeographicalEntity, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *cachedEntityRepository) GetByInternalCode(ctx context.Context, datasetID int64, level int, code string, revision int) (*domain.GeographicalEntity, error) {
	return r.inner.GetByInternalCode(ctx, datasetID, level, code, revision)
}

func (r *cachedEntityRepository) GetSiblings(ctx context.Context, datasetID int64, level int, layerFileID int64, excludeCode string) ([]*domain.GeographicalEntity, error) {
	key := fmt.Sprintf("entities:siblings:%d:%d:%d:%s", datasetID, level, layerFileID, excludeCode)

	var entities []*domain.GeographicalEntity
	if found := r.lookup(ctx, key, &entities); found {
		return entities, nil
	}

	entities, err := r.inner.GetSiblings(ctx, datasetID, level, layerFileID, excludeCode)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, entities)
	return entities, nil
}

func (r *cachedEntityRepository) GetPreviousRevision(ctx context.Context, datasetID, ancestorID int64, level int) ([]*domain.GeographicalEntity, error) {
	key := fmt.Sprintf("entities:previous:%d:%d:%d", datasetID, ancestorID, level)

	var entities []*domain.GeographicalEntity
	if found := r.lookup(ctx, key, &entities); found {
		return entities, nil
	}

	entities, err := r.inner.GetPreviousRevision(ctx, datasetID, ancestorID, level)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, entities)
	return entities, nil
}

func (r *cachedEntityRepository) GetDescendants(ctx context.Context, ancestorID int64) ([]*domain.GeographicalEntity, error) {
	return r.inner.GetDescendants(ctx, ancestorID)
}

func (r *cachedEntityRepository) lookup(ctx context.Context, key string, out interface{}) bool {
	data, err := r.cache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		r.logger.Warn("Failed to unmarshal cached entities", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *cachedEntityRepository) store(ctx context.Context, key string, entities []*domain.GeographicalEntity) {
	data, err := json.Marshal(entities)
	if err != nil {
		r.logger.Warn("Failed to marshal entities for cache", zap.String("key", key), zap.Error(err))
		return
	}
	// Cache failures degrade to direct reads.
	_ = r.cache.Set(ctx, key, data, entityCacheTTL)
}
