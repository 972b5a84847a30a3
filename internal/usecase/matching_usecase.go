package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/domain/repository"
	"github.com/georepo-validation/internal/geometry"
	"github.com/georepo-validation/internal/pkg/utils"
)

// MatchingUseCase reconciles a new revision of administrative boundaries
// against the previous revision, producing BoundaryComparison rows for
// human review.
type MatchingUseCase struct {
	entityRepo     repository.EntityRepository
	comparisonRepo repository.ComparisonRepository
	uploadRepo     repository.UploadRepository
	progressRepo   repository.ProgressRepository
	logger         *zap.Logger
	thresholds     domain.MatchThresholds
}

func NewMatchingUseCase(
	entityRepo repository.EntityRepository,
	comparisonRepo repository.ComparisonRepository,
	uploadRepo repository.UploadRepository,
	progressRepo repository.ProgressRepository,
	logger *zap.Logger,
	thresholds domain.MatchThresholds,
) *MatchingUseCase {
	return &MatchingUseCase{
		entityRepo:     entityRepo,
		comparisonRepo: comparisonRepo,
		uploadRepo:     uploadRepo,
		progressRepo:   progressRepo,
		logger:         logger,
		thresholds:     thresholds,
	}
}

// pairScore is one candidate/previous comparison before ranking.
type pairScore struct {
	previous   *domain.GeographicalEntity
	comparison domain.BoundaryComparison
}

// MatchBoundaries compares one revised entity against the previous-revision
// entities under the same ancestor. The best-ranked pair carries the
// IsSameEntity verdict; runner-up pairs are recorded with a false verdict
// for audit. The result is deterministic for identical inputs.
func (uc *MatchingUseCase) MatchBoundaries(
	ctx context.Context,
	candidate *domain.GeographicalEntity,
	previous []*domain.GeographicalEntity,
	thresholds domain.MatchThresholds,
) ([]*domain.BoundaryComparison, error) {
	candGeom, err := geometry.ParseGeometry(candidate.GeometryJSON)
	if err != nil {
		return nil, fmt.Errorf("parse candidate geometry %s: %w", candidate.InternalCode, err)
	}
	defer candGeom.Destroy()

	scores := make([]pairScore, 0, len(previous))
	for _, prev := range previous {
		score, err := uc.scorePair(candidate, candGeom.Geos(), prev)
		if err != nil {
			uc.logger.Warn("Skipping comparison pair",
				zap.String("candidate", candidate.InternalCode),
				zap.String("previous", prev.InternalCode),
				zap.Error(err))
			continue
		}
		scores = append(scores, score)
	}

	if len(scores) == 0 {
		// No plausible match: keep an audit row with an empty comparison side.
		return []*domain.BoundaryComparison{{
			MainBoundaryID: candidate.ID,
			IsSameEntity:   false,
		}}, nil
	}

	// Rank by combined overlap, then name similarity. The tie-break is a
	// provisional default; review can always flip the verdict.
	sort.SliceStable(scores, func(i, j int) bool {
		si := scores[i].comparison.GeometryOverlapNew + scores[i].comparison.GeometryOverlapOld
		sj := scores[j].comparison.GeometryOverlapNew + scores[j].comparison.GeometryOverlapOld
		if si != sj {
			return si > sj
		}
		return scores[i].comparison.NameSimilarity > scores[j].comparison.NameSimilarity
	})

	comparisons := make([]*domain.BoundaryComparison, 0, len(scores))
	for rank := range scores {
		c := scores[rank].comparison
		if rank == 0 {
			// Conjunction of both thresholds: a high overlap in only one
			// direction can indicate a merge or split, not a continuation.
			c.IsSameEntity = c.GeometryOverlapNew > thresholds.GeometrySimilarityNew &&
				c.GeometryOverlapOld > thresholds.GeometrySimilarityOld
			rematched, err := uc.isParentRematched(ctx, candidate, scores[rank].previous)
			if err != nil {
				return nil, err
			}
			c.IsParentRematched = rematched
		}
		comparisons = append(comparisons, &c)
	}
	return comparisons, nil
}

// scorePair computes the similarity metrics for one candidate/previous pair.
func (uc *MatchingUseCase) scorePair(
	candidate *domain.GeographicalEntity,
	candGeom *geos.Geom,
	prev *domain.GeographicalEntity,
) (pairScore, error) {
	prevGeom, err := geometry.ParseGeometry(prev.GeometryJSON)
	if err != nil {
		return pairScore{}, fmt.Errorf("parse previous geometry: %w", err)
	}
	defer prevGeom.Destroy()

	overlapNew, overlapOld := geometry.OverlapRatios(candGeom, prevGeom.Geos())

	prevID := prev.ID
	return pairScore{
		previous: prev,
		comparison: domain.BoundaryComparison{
			MainBoundaryID:       candidate.ID,
			ComparisonBoundaryID: &prevID,
			CodeMatch:            candidate.DefaultCode != "" && candidate.DefaultCode == prev.DefaultCode,
			NameSimilarity:       utils.NameSimilarity(candidate.DefaultName, prev.DefaultName),
			GeometryOverlapNew:   overlapNew,
			GeometryOverlapOld:   overlapOld,
			CentroidDistance:     geometry.CentroidDistance(candGeom, prevGeom.Geos()),
		},
	}, nil
}

// isParentRematched reports whether the matched previous entity hangs under
// a parent with a different default code than the candidate's newly assigned
// parent, a hierarchy change requiring human attention.
func (uc *MatchingUseCase) isParentRematched(ctx context.Context, candidate, matched *domain.GeographicalEntity) (bool, error) {
	if candidate.ParentID == nil || matched.ParentID == nil {
		return candidate.ParentID != nil || matched.ParentID != nil, nil
	}
	candParent, err := uc.entityRepo.GetByID(ctx, *candidate.ParentID)
	if err != nil {
		return false, fmt.Errorf("load candidate parent: %w", err)
	}
	matchedParent, err := uc.entityRepo.GetByID(ctx, *matched.ParentID)
	if err != nil {
		return false, fmt.Errorf("load matched parent: %w", err)
	}
	return candParent.DefaultCode != matchedParent.DefaultCode, nil
}

// RunComparison drives boundary matching for every entity of one upload's
// new revision, persists the comparison rows, flags comparison data as ready
// and moves the upload to REVIEWING.
//
// Rows a reviewer has edited are never overwritten: without force the whole
// rematch is skipped when edits exist.
func (uc *MatchingUseCase) RunComparison(ctx context.Context, uploadID int64, force bool) error {
	upload, err := uc.uploadRepo.GetByID(ctx, uploadID)
	if err != nil {
		return fmt.Errorf("load upload %d: %w", uploadID, err)
	}
	if upload.RevisedEntityID == nil {
		return fmt.Errorf("upload %d has no revised entity", uploadID)
	}

	edited, err := uc.comparisonRepo.HasEdited(ctx, uploadID)
	if err != nil {
		return fmt.Errorf("check edited comparisons: %w", err)
	}
	if edited && !force {
		uc.logger.Info("Comparison rows carry review edits, skipping rematch",
			zap.Int64("upload_id", uploadID))
		return nil
	}
	// A forced rematch discards review edits; otherwise the edited rows
	// would survive the delete and sit next to freshly generated ones.
	if force {
		err = uc.comparisonRepo.DeleteAll(ctx, uploadID)
	} else {
		err = uc.comparisonRepo.DeleteUnedited(ctx, uploadID)
	}
	if err != nil {
		return fmt.Errorf("clear previous comparisons: %w", err)
	}

	candidates, err := uc.entityRepo.GetDescendants(ctx, *upload.RevisedEntityID)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}

	started := time.Now()
	total := 0
	for _, candidate := range candidates {
		previous, err := uc.entityRepo.GetPreviousRevision(ctx, upload.DatasetID, *upload.RevisedEntityID, candidate.Level)
		if err != nil {
			return fmt.Errorf("load previous revision for level %d: %w", candidate.Level, err)
		}

		comparisons, err := uc.MatchBoundaries(ctx, candidate, previous, uc.thresholds)
		if err != nil {
			return fmt.Errorf("match %s: %w", candidate.InternalCode, err)
		}
		for _, c := range comparisons {
			c.EntityUploadID = uploadID
		}
		if err := uc.comparisonRepo.SaveBatch(ctx, comparisons); err != nil {
			return fmt.Errorf("save comparisons: %w", err)
		}
		total += len(comparisons)
	}

	if err := uc.progressRepo.Stage(ctx, uploadID, "boundary matching", time.Since(started)); err != nil {
		uc.logger.Warn("Failed to record stage timing", zap.Error(err))
	}
	if err := uc.uploadRepo.SetComparisonReady(ctx, uploadID); err != nil {
		return fmt.Errorf("mark comparison ready: %w", err)
	}

	uc.logger.Info("Boundary matching finished",
		zap.Int64("upload_id", uploadID),
		zap.Int("candidates", len(candidates)),
		zap.Int("comparisons", total))
	return nil
}
