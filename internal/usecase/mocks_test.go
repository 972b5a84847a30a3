package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/georepo-validation/internal/domain"
)

type mockUploadRepository struct {
	mock.Mock
}

func (m *mockUploadRepository) GetByID(ctx context.Context, id int64) (*domain.EntityUploadStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EntityUploadStatus), args.Error(1)
}

func (m *mockUploadRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.LayerUploadSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LayerUploadSession), args.Error(1)
}

func (m *mockUploadRepository) AcquireForValidation(ctx context.Context, id int64) (*domain.EntityUploadStatus, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.EntityUploadStatus), args.Bool(1), args.Error(2)
}

func (m *mockUploadRepository) FinishValidation(ctx context.Context, id int64, status string, summaries domain.LevelErrorReports) (int, error) {
	args := m.Called(ctx, id, status, summaries)
	return args.Int(0), args.Error(1)
}

func (m *mockUploadRepository) MarkError(ctx context.Context, id int64, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *mockUploadRepository) SetComparisonReady(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockEntityRepository struct {
	mock.Mock
}

func (m *mockEntityRepository) GetByID(ctx context.Context, id int64) (*domain.GeographicalEntity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeographicalEntity), args.Error(1)
}

func (m *mockEntityRepository) GetByInternalCode(ctx context.Context, datasetID int64, level int, code string, revision int) (*domain.GeographicalEntity, error) {
	args := m.Called(ctx, datasetID, level, code, revision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeographicalEntity), args.Error(1)
}

func (m *mockEntityRepository) GetSiblings(ctx context.Context, datasetID int64, level int, layerFileID int64, excludeCode string) ([]*domain.GeographicalEntity, error) {
	args := m.Called(ctx, datasetID, level, layerFileID, excludeCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GeographicalEntity), args.Error(1)
}

func (m *mockEntityRepository) GetPreviousRevision(ctx context.Context, datasetID, ancestorID int64, level int) ([]*domain.GeographicalEntity, error) {
	args := m.Called(ctx, datasetID, ancestorID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GeographicalEntity), args.Error(1)
}

func (m *mockEntityRepository) GetDescendants(ctx context.Context, ancestorID int64) ([]*domain.GeographicalEntity, error) {
	args := m.Called(ctx, ancestorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GeographicalEntity), args.Error(1)
}

type mockComparisonRepository struct {
	mock.Mock
}

func (m *mockComparisonRepository) SaveBatch(ctx context.Context, comparisons []*domain.BoundaryComparison) error {
	args := m.Called(ctx, comparisons)
	return args.Error(0)
}

func (m *mockComparisonRepository) GetByUpload(ctx context.Context, uploadID int64) ([]*domain.BoundaryComparison, error) {
	args := m.Called(ctx, uploadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BoundaryComparison), args.Error(1)
}

func (m *mockComparisonRepository) DeleteUnedited(ctx context.Context, uploadID int64) error {
	args := m.Called(ctx, uploadID)
	return args.Error(0)
}

func (m *mockComparisonRepository) DeleteAll(ctx context.Context, uploadID int64) error {
	args := m.Called(ctx, uploadID)
	return args.Error(0)
}

func (m *mockComparisonRepository) HasEdited(ctx context.Context, uploadID int64) (bool, error) {
	args := m.Called(ctx, uploadID)
	return args.Bool(0), args.Error(1)
}

type mockStreamRepository struct {
	mock.Mock
}

func (m *mockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *mockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *mockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *mockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

type mockProgressRepository struct {
	mock.Mock
}

func (m *mockProgressRepository) Append(ctx context.Context, uploadID int64, message string) error {
	args := m.Called(ctx, uploadID, message)
	return args.Error(0)
}

func (m *mockProgressRepository) Stage(ctx context.Context, uploadID int64, stage string, elapsed time.Duration) error {
	args := m.Called(ctx, uploadID, stage, elapsed)
	return args.Error(0)
}

// fakeFeatureSource serves in-memory features per level.
type fakeFeatureSource struct {
	levels  map[int][]domain.Feature
	fileIDs map[int]int64
}

func (s *fakeFeatureSource) MaxLevel() int {
	max := 0
	for level := range s.levels {
		if level > max {
			max = level
		}
	}
	return max
}

func (s *fakeFeatureSource) ReadLevel(ctx context.Context, level int) ([]domain.Feature, error) {
	return s.levels[level], nil
}

func (s *fakeFeatureSource) LayerFileID(level int) int64 {
	return s.fileIDs[level]
}
