package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/validation"
)

const (
	testSquare = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`
	testBowtie = `{"type":"Polygon","coordinates":[[[0,0],[4,4],[4,0],[0,4],[0,0]]]}`
)

func intPtr(n int) *int { return &n }

func newValidationFixture(t *testing.T) (*ValidationUseCase, *mockUploadRepository, *mockEntityRepository, *mockStreamRepository, *mockProgressRepository) {
	t.Helper()
	uploadRepo := new(mockUploadRepository)
	entityRepo := new(mockEntityRepository)
	streamRepo := new(mockStreamRepository)
	progressRepo := new(mockProgressRepository)
	uc := NewValidationUseCase(uploadRepo, entityRepo, streamRepo, progressRepo, zap.NewNop(), 2, 0.01)
	return uc, uploadRepo, entityRepo, streamRepo, progressRepo
}

func startedUpload(sessionID uuid.UUID) *domain.EntityUploadStatus {
	return &domain.EntityUploadStatus{
		ID:                 10,
		SessionID:          sessionID,
		DatasetID:          1,
		Module:             validation.ModuleAdminBoundaries,
		OriginalEntityCode: "PAK",
		Status:             domain.UploadStatusProcessing,
	}
}

func testSession(sessionID uuid.UUID) *domain.LayerUploadSession {
	return &domain.LayerUploadSession{
		ID:         sessionID,
		DatasetID:  1,
		Module:     validation.ModuleAdminBoundaries,
		UploaderID: 7,
		Tolerance:  1e-8,
	}
}

func TestValidateUpload_SkipsWhenNotAcquired(t *testing.T) {
	uc, uploadRepo, _, streamRepo, _ := newValidationFixture(t)
	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(nil, false, nil)

	summaries, status, err := uc.ValidateUpload(context.Background(), 10, &fakeFeatureSource{})
	require.NoError(t, err)
	assert.Nil(t, summaries)
	assert.Empty(t, status)

	uploadRepo.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
	uploadRepo.AssertNotCalled(t, "FinishValidation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	streamRepo.AssertNotCalled(t, "PublishToStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateUpload_CleanLayerIsValid(t *testing.T) {
	uc, uploadRepo, _, streamRepo, progressRepo := newValidationFixture(t)
	sessionID := uuid.New()

	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(startedUpload(sessionID), true, nil)
	uploadRepo.On("GetSession", mock.Anything, sessionID).Return(testSession(sessionID), nil)
	uploadRepo.On("FinishValidation", mock.Anything, int64(10), domain.UploadStatusValid, mock.Anything).Return(2, nil)
	progressRepo.On("Append", mock.Anything, int64(10), mock.Anything).Return(nil)
	progressRepo.On("Stage", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)

	source := &fakeFeatureSource{levels: map[int][]domain.Feature{
		0: {{
			Idx:          0,
			Level:        0,
			GeometryRaw:  testSquare,
			EntityID:     "PAK",
			EntityName:   "Pakistan",
			PrivacyLevel: intPtr(4),
			EntityType:   "Country",
		}},
	}}

	summaries, status, err := uc.ValidateUpload(context.Background(), 10, source)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusValid, status)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].Total())
	assert.Equal(t, "Country", summaries[0].EntityType)

	// Siblings remain unfinished, so no session notification yet.
	streamRepo.AssertNotCalled(t, "PublishToStream", mock.Anything, mock.Anything, mock.Anything)
	uploadRepo.AssertExpectations(t)
}

func TestValidateUpload_LastFinisherNotifiesOnce(t *testing.T) {
	uc, uploadRepo, _, streamRepo, progressRepo := newValidationFixture(t)
	sessionID := uuid.New()

	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(startedUpload(sessionID), true, nil)
	uploadRepo.On("GetSession", mock.Anything, sessionID).Return(testSession(sessionID), nil)
	uploadRepo.On("FinishValidation", mock.Anything, int64(10), domain.UploadStatusValid, mock.Anything).Return(0, nil)
	progressRepo.On("Append", mock.Anything, int64(10), mock.Anything).Return(nil)
	progressRepo.On("Stage", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)
	streamRepo.On("PublishToStream", mock.Anything, domain.StreamUploadDone, mock.MatchedBy(func(event domain.ValidationDoneEvent) bool {
		return event.SessionID == sessionID &&
			event.RecipientID == 7 &&
			event.Category == "admin_boundaries.validation"
	})).Return(nil).Once()

	source := &fakeFeatureSource{levels: map[int][]domain.Feature{
		0: {{
			Idx:          0,
			GeometryRaw:  testSquare,
			EntityID:     "PAK",
			EntityName:   "Pakistan",
			PrivacyLevel: intPtr(4),
		}},
	}}

	_, status, err := uc.ValidateUpload(context.Background(), 10, source)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusValid, status)
	streamRepo.AssertExpectations(t)
	streamRepo.AssertNumberOfCalls(t, "PublishToStream", 1)
}

func TestValidateUpload_MalformedGeometryDoesNotAbort(t *testing.T) {
	uc, uploadRepo, _, _, progressRepo := newValidationFixture(t)
	sessionID := uuid.New()

	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(startedUpload(sessionID), true, nil)
	uploadRepo.On("GetSession", mock.Anything, sessionID).Return(testSession(sessionID), nil)
	uploadRepo.On("FinishValidation", mock.Anything, int64(10), domain.UploadStatusError, mock.Anything).Return(1, nil)
	progressRepo.On("Append", mock.Anything, int64(10), mock.Anything).Return(nil)
	progressRepo.On("Stage", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)

	source := &fakeFeatureSource{levels: map[int][]domain.Feature{
		0: {
			{Idx: 0, GeometryRaw: `{"broken`, EntityID: "AAA", EntityName: "Alpha", PrivacyLevel: intPtr(4)},
			{Idx: 1, GeometryRaw: testSquare, EntityID: "BBB", EntityName: "Beta", PrivacyLevel: intPtr(4)},
		},
	}}

	summaries, status, err := uc.ValidateUpload(context.Background(), 10, source)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusError, status)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Counts[domain.ErrorGeometryValidity])
}

func TestValidateUpload_DegenerateRing(t *testing.T) {
	uc, uploadRepo, _, _, progressRepo := newValidationFixture(t)
	sessionID := uuid.New()

	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(startedUpload(sessionID), true, nil)
	uploadRepo.On("GetSession", mock.Anything, sessionID).Return(testSession(sessionID), nil)
	uploadRepo.On("FinishValidation", mock.Anything, int64(10), domain.UploadStatusError, mock.Anything).Return(1, nil)
	progressRepo.On("Append", mock.Anything, int64(10), mock.Anything).Return(nil)
	progressRepo.On("Stage", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)

	source := &fakeFeatureSource{levels: map[int][]domain.Feature{
		0: {{
			Idx:          0,
			GeometryRaw:  `{"type":"Polygon","coordinates":[[[0,0],[1,0],[0,0]]]}`,
			EntityID:     "AAA",
			EntityName:   "Alpha",
			PrivacyLevel: intPtr(4),
		}},
	}}

	summaries, status, err := uc.ValidateUpload(context.Background(), 10, source)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusError, status)
	assert.Equal(t, 1, summaries[0].Counts[domain.ErrorDegeneratePolygon])
	assert.Equal(t, 0, summaries[0].Counts[domain.ErrorGeometryValidity])
}

func TestValidateUpload_AllowableErrorsStayValid(t *testing.T) {
	uc, uploadRepo, _, _, progressRepo := newValidationFixture(t)
	sessionID := uuid.New()

	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(startedUpload(sessionID), true, nil)
	uploadRepo.On("GetSession", mock.Anything, sessionID).Return(testSession(sessionID), nil)
	uploadRepo.On("FinishValidation", mock.Anything, int64(10), domain.UploadStatusValid, mock.Anything).Return(1, nil)
	progressRepo.On("Append", mock.Anything, int64(10), mock.Anything).Return(nil)
	progressRepo.On("Stage", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)

	source := &fakeFeatureSource{levels: map[int][]domain.Feature{
		0: {{
			Idx:          0,
			GeometryRaw:  testBowtie,
			EntityID:     "AAA",
			EntityName:   "Alpha",
			PrivacyLevel: intPtr(4),
		}},
	}}

	summaries, status, err := uc.ValidateUpload(context.Background(), 10, source)
	require.NoError(t, err)
	// Self intersections are warnings for admin boundaries.
	assert.Equal(t, domain.UploadStatusValid, status)
	assert.Equal(t, 1, summaries[0].Counts[domain.ErrorSelfIntersects])
}

func TestValidateUpload_AttributeErrors(t *testing.T) {
	uc, uploadRepo, _, _, progressRepo := newValidationFixture(t)
	sessionID := uuid.New()

	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(startedUpload(sessionID), true, nil)
	uploadRepo.On("GetSession", mock.Anything, sessionID).Return(testSession(sessionID), nil)
	uploadRepo.On("FinishValidation", mock.Anything, int64(10), domain.UploadStatusError, mock.Anything).Return(1, nil)
	progressRepo.On("Append", mock.Anything, int64(10), mock.Anything).Return(nil)
	progressRepo.On("Stage", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)

	source := &fakeFeatureSource{levels: map[int][]domain.Feature{
		0: {
			// No name, no code, privacy out of range.
			{Idx: 0, GeometryRaw: testSquare, PrivacyLevel: intPtr(9)},
			// Duplicated code, missing privacy.
			{Idx: 1, GeometryRaw: `{"type":"Polygon","coordinates":[[[5,5],[6,5],[6,6],[5,6],[5,5]]]}`, EntityID: "AAA", EntityName: "Alpha"},
			{Idx: 2, GeometryRaw: `{"type":"Polygon","coordinates":[[[8,8],[9,8],[9,9],[8,9],[8,8]]]}`, EntityID: "AAA", EntityName: "Alpha Copy", PrivacyLevel: intPtr(4)},
		},
	}}

	summaries, status, err := uc.ValidateUpload(context.Background(), 10, source)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusError, status)
	counts := summaries[0].Counts
	assert.Equal(t, 1, counts[domain.ErrorDefaultNameMissing])
	assert.Equal(t, 1, counts[domain.ErrorDefaultCodeMissing])
	assert.Equal(t, 1, counts[domain.ErrorInvalidPrivacyLevel])
	assert.Equal(t, 1, counts[domain.ErrorPrivacyLevelMissing])
	assert.Equal(t, 1, counts[domain.ErrorDuplicatedCodes])
}

func TestValidateUpload_HierarchyChecks(t *testing.T) {
	uc, uploadRepo, _, _, progressRepo := newValidationFixture(t)
	sessionID := uuid.New()

	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(startedUpload(sessionID), true, nil)
	uploadRepo.On("GetSession", mock.Anything, sessionID).Return(testSession(sessionID), nil)
	uploadRepo.On("FinishValidation", mock.Anything, int64(10), domain.UploadStatusError, mock.Anything).Return(1, nil)
	progressRepo.On("Append", mock.Anything, int64(10), mock.Anything).Return(nil)
	progressRepo.On("Stage", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)

	source := &fakeFeatureSource{levels: map[int][]domain.Feature{
		0: {{
			Idx:          0,
			Level:        0,
			GeometryRaw:  `{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}`,
			EntityID:     "PAK",
			EntityName:   "Pakistan",
			PrivacyLevel: intPtr(3),
		}},
		1: {
			// Inside the parent, but privacy looser than the parent's.
			{Idx: 0, Level: 1, GeometryRaw: `{"type":"Polygon","coordinates":[[[1,1],[4,1],[4,4],[1,4],[1,1]]]}`,
				EntityID: "PAK_001", EntityName: "Punjab", ParentCode: "PAK", PrivacyLevel: intPtr(1)},
			// Escapes the parent.
			{Idx: 1, Level: 1, GeometryRaw: `{"type":"Polygon","coordinates":[[[8,8],[15,8],[15,15],[8,15],[8,8]]]}`,
				EntityID: "PAK_002", EntityName: "Sindh", ParentCode: "PAK", PrivacyLevel: intPtr(3)},
			// References a parent that does not exist.
			{Idx: 2, Level: 1, GeometryRaw: `{"type":"Polygon","coordinates":[[[5,5],[6,5],[6,6],[5,6],[5,5]]]}`,
				EntityID: "PAK_003", EntityName: "Ghost", ParentCode: "XXX", PrivacyLevel: intPtr(3)},
		},
	}}

	summaries, status, err := uc.ValidateUpload(context.Background(), 10, source)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusError, status)
	require.Len(t, summaries, 2)

	level1 := summaries[1].Counts
	assert.Equal(t, 1, level1[domain.ErrorUpgradedPrivacyLevel])
	assert.Equal(t, 1, level1[domain.ErrorNotWithinParent])
	assert.Equal(t, 1, level1[domain.ErrorParentMissing])
}

func TestValidateUpload_PointLayerDuplicates(t *testing.T) {
	uc, uploadRepo, _, _, progressRepo := newValidationFixture(t)
	sessionID := uuid.New()

	upload := startedUpload(sessionID)
	uploadRepo.On("AcquireForValidation", mock.Anything, int64(10)).Return(upload, true, nil)
	uploadRepo.On("GetSession", mock.Anything, sessionID).Return(testSession(sessionID), nil)
	uploadRepo.On("FinishValidation", mock.Anything, int64(10), domain.UploadStatusValid, mock.Anything).Return(1, nil)
	progressRepo.On("Append", mock.Anything, int64(10), mock.Anything).Return(nil)
	progressRepo.On("Stage", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)

	source := &fakeFeatureSource{levels: map[int][]domain.Feature{
		0: {
			{Idx: 0, GeometryRaw: `{"type":"Point","coordinates":[1,1]}`, EntityID: "A", EntityName: "A", PrivacyLevel: intPtr(4)},
			{Idx: 1, GeometryRaw: `{"type":"Point","coordinates":[2,2]}`, EntityID: "B", EntityName: "B", PrivacyLevel: intPtr(4)},
			{Idx: 2, GeometryRaw: `{"type":"Point","coordinates":[2,2]}`, EntityID: "C", EntityName: "C", PrivacyLevel: intPtr(4)},
		},
	}}

	summaries, status, err := uc.ValidateUpload(context.Background(), 10, source)
	require.NoError(t, err)
	// Duplicate nodes are allowable for admin boundaries.
	assert.Equal(t, domain.UploadStatusValid, status)
	assert.Equal(t, 1, summaries[0].Counts[domain.ErrorDuplicateNodes])
}
