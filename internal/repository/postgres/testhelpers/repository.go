package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain/repository"
	"github.com/georepo-validation/internal/repository/postgres"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewUploadRepositoryForTest creates an upload repository with test database and logger
func NewUploadRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.UploadRepository {
	pgDB := NewDBForTest(db, logger)
	return postgres.NewUploadRepository(pgDB)
}

// NewEntityRepositoryForTest creates an entity repository with test database and logger
func NewEntityRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.EntityRepository {
	pgDB := NewDBForTest(db, logger)
	return postgres.NewEntityRepository(pgDB)
}

// NewComparisonRepositoryForTest creates a comparison repository with test database and logger
func NewComparisonRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.ComparisonRepository {
	pgDB := NewDBForTest(db, logger)
	return postgres.NewComparisonRepository(pgDB)
}
