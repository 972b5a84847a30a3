package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/repository/postgres/testhelpers"
)

func TestComparisonRepository(t *testing.T) {
	tdb := testhelpers.SetupTestDB(t)
	defer tdb.Close()
	require.NoError(t, testhelpers.ApplyMigrations(tdb.DB.DB, "../../../migrations"))
	t.Cleanup(func() { tdb.Cleanup(context.Background()) })

	repo := testhelpers.NewComparisonRepositoryForTest(tdb.DB, tdb.Logger)
	ctx := context.Background()

	sessionID := seedSession(t, tdb)
	uploadID := seedUpload(t, tdb, sessionID, domain.UploadStatusValid)

	prevID := int64(50)
	rows := []*domain.BoundaryComparison{
		{
			EntityUploadID:       uploadID,
			MainBoundaryID:       100,
			ComparisonBoundaryID: &prevID,
			CodeMatch:            true,
			NameSimilarity:       1.0,
			GeometryOverlapNew:   0.98,
			GeometryOverlapOld:   0.97,
			IsSameEntity:         true,
		},
		{
			EntityUploadID: uploadID,
			MainBoundaryID: 101,
		},
	}

	require.NoError(t, repo.SaveBatch(ctx, rows))

	t.Run("rows round-trip", func(t *testing.T) {
		stored, err := repo.GetByUpload(ctx, uploadID)
		require.NoError(t, err)
		require.Len(t, stored, 2)

		assert.Equal(t, int64(100), stored[0].MainBoundaryID)
		require.NotNil(t, stored[0].ComparisonBoundaryID)
		assert.Equal(t, prevID, *stored[0].ComparisonBoundaryID)
		assert.True(t, stored[0].IsSameEntity)
		assert.InDelta(t, 0.98, stored[0].GeometryOverlapNew, 1e-9)

		assert.Nil(t, stored[1].ComparisonBoundaryID)
		assert.False(t, stored[1].IsSameEntity)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, repo.SaveBatch(ctx, nil))
	})

	t.Run("delete spares edited rows", func(t *testing.T) {
		_, err := tdb.DB.Exec(`
			UPDATE boundary_comparison SET is_edited = TRUE
			WHERE entity_upload_id = $1 AND main_boundary_id = 100
		`, uploadID)
		require.NoError(t, err)

		edited, err := repo.HasEdited(ctx, uploadID)
		require.NoError(t, err)
		assert.True(t, edited)

		require.NoError(t, repo.DeleteUnedited(ctx, uploadID))

		remaining, err := repo.GetByUpload(ctx, uploadID)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, int64(100), remaining[0].MainBoundaryID)

		count, err := testhelpers.CountComparisons(tdb.DB.DB, uploadID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("forced delete removes edited rows", func(t *testing.T) {
		require.NoError(t, repo.DeleteAll(ctx, uploadID))

		count, err := testhelpers.CountComparisons(tdb.DB.DB, uploadID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("no edits on fresh upload", func(t *testing.T) {
		fresh := seedUpload(t, tdb, sessionID, domain.UploadStatusValid)
		edited, err := repo.HasEdited(ctx, fresh)
		require.NoError(t, err)
		assert.False(t, edited)
	})
}
