package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/domain/repository"
	"github.com/georepo-validation/internal/geometry"
	"github.com/georepo-validation/internal/validation"
)

const (
	minPrivacyLevel = 1
	maxPrivacyLevel = 4
)

// parentInfo is what a child level needs from its parent features:
// the geometry for containment and the privacy level for upgrade checks.
type parentInfo struct {
	geom    *geometry.Geometry
	privacy *int
}

// ValidationUseCase drives one EntityUploadStatus through
// STARTED -> PROCESSING -> VALID/ERROR. It is safe to invoke concurrently,
// one call per upload: pickup uses a non-blocking row lock and a second
// worker targeting the same upload observes "nothing to do".
type ValidationUseCase struct {
	uploadRepo   repository.UploadRepository
	entityRepo   repository.EntityRepository
	streamRepo   repository.StreamRepository
	progressRepo repository.ProgressRepository
	logger       *zap.Logger
	parallelism  int
	overlapArea  float64
}

func NewValidationUseCase(
	uploadRepo repository.UploadRepository,
	entityRepo repository.EntityRepository,
	streamRepo repository.StreamRepository,
	progressRepo repository.ProgressRepository,
	logger *zap.Logger,
	parallelism int,
	overlapAreaThreshold float64,
) *ValidationUseCase {
	if parallelism < 1 {
		parallelism = 1
	}
	return &ValidationUseCase{
		uploadRepo:   uploadRepo,
		entityRepo:   entityRepo,
		streamRepo:   streamRepo,
		progressRepo: progressRepo,
		logger:       logger,
		parallelism:  parallelism,
		overlapArea:  overlapAreaThreshold,
	}
}

// ValidateUpload picks up the upload, runs the full checker pipeline over
// every layer level, persists summaries and flips the status. It returns the
// resulting summaries and terminal status; (nil, "", nil) means the upload
// was already taken or advanced, expected under concurrent scheduling.
//
// Domain findings never unwind the stack; infrastructure errors always do,
// and the caller is responsible for marking the upload ERROR.
func (uc *ValidationUseCase) ValidateUpload(
	ctx context.Context,
	uploadID int64,
	source repository.FeatureSource,
) (domain.LevelErrorReports, string, error) {
	upload, acquired, err := uc.uploadRepo.AcquireForValidation(ctx, uploadID)
	if err != nil {
		return nil, "", fmt.Errorf("acquire upload %d: %w", uploadID, err)
	}
	if !acquired {
		uc.logger.Debug("Upload already taken or advanced, skipping",
			zap.Int64("upload_id", uploadID))
		return nil, "", nil
	}

	session, err := uc.uploadRepo.GetSession(ctx, upload.SessionID)
	if err != nil {
		return nil, "", fmt.Errorf("load session: %w", err)
	}
	profile, err := validation.ProfileByModule(upload.Module)
	if err != nil {
		return nil, "", err
	}

	uc.progress(ctx, uploadID, fmt.Sprintf("validation started for %s", upload.OriginalEntityCode))

	// Geometries of the level being validated are kept alive one extra
	// iteration: they are the parents of the next level down.
	var liveLevels []map[int]*geometry.Geometry
	defer func() {
		for _, geoms := range liveLevels {
			for _, g := range geoms {
				g.Destroy()
			}
		}
	}()

	parents := map[string]parentInfo{}
	summaries := make(domain.LevelErrorReports, 0, source.MaxLevel()+1)
	for level := 0; level <= source.MaxLevel(); level++ {
		started := time.Now()

		features, err := source.ReadLevel(ctx, level)
		if err != nil {
			return nil, "", fmt.Errorf("read level %d: %w", level, err)
		}
		uc.progress(ctx, uploadID, fmt.Sprintf("validating level %d (%d features)", level, len(features)))

		report, geoms, err := uc.validateLevel(ctx, upload, session, profile, level, features, source.LayerFileID(level), parents)
		if err != nil {
			return nil, "", fmt.Errorf("validate level %d: %w", level, err)
		}
		summaries = append(summaries, *report)

		parents = nextParents(features, geoms)
		liveLevels = append(liveLevels, geoms)
		if len(liveLevels) > 2 {
			for _, g := range liveLevels[0] {
				g.Destroy()
			}
			liveLevels = liveLevels[1:]
		}

		uc.stage(ctx, uploadID, fmt.Sprintf("level %d", level), time.Since(started))
	}

	status := domain.UploadStatusValid
	if validation.HasBlockingError(profile, summaries) {
		status = domain.UploadStatusError
	}

	// Summaries and terminal status land in one transaction; the returned
	// sibling count is consistent with it, so exactly one finisher sees zero.
	remaining, err := uc.uploadRepo.FinishValidation(ctx, uploadID, status, summaries)
	if err != nil {
		return nil, "", fmt.Errorf("finish validation: %w", err)
	}

	uc.logger.Info("Upload validated",
		zap.Int64("upload_id", uploadID),
		zap.String("status", status),
		zap.Int("levels", len(summaries)),
		zap.Int("siblings_remaining", remaining))

	if remaining == 0 {
		uc.notifySessionFinished(ctx, upload, session)
	}

	return summaries, status, nil
}

// validateLevel runs every checker over one level's features and reduces the
// per-feature rows into the level report. Feature-level checks are
// embarrassingly parallel; aggregation happens strictly after the fan-in.
// The returned geometry map is owned by the caller.
func (uc *ValidationUseCase) validateLevel(
	ctx context.Context,
	upload *domain.EntityUploadStatus,
	session *domain.LayerUploadSession,
	profile validation.Profile,
	level int,
	features []domain.Feature,
	layerFileID int64,
	parents map[string]parentInfo,
) (*domain.LevelErrorReport, map[int]*geometry.Geometry, error) {
	tolerance := session.Tolerance

	rows := make([]*domain.LayerError, len(features))
	geoms := make(map[int]*geometry.Geometry, len(features))
	byCode := make(map[string]int, len(features))

	// Valid-nodes gate plus attribute checks, sequential: failures here
	// short-circuit the geometry checks for that feature only.
	for i := range features {
		f := &features[i]
		rows[i] = validation.NewLayerError(profile, level, f.EntityID, f.EntityName)
		uc.checkAttributes(f, rows[i], byCode)

		g, err := geometry.ParseGeometry(f.GeometryRaw)
		if err != nil {
			if err == geometry.ErrDegenerateRing {
				rows[i].Add(domain.ErrorDegeneratePolygon)
			} else {
				rows[i].Add(domain.ErrorGeometryValidity)
			}
			continue
		}
		geoms[f.Idx] = g
	}

	siblings, err := uc.loadSiblings(ctx, upload, level, layerFileID)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		for _, s := range siblings {
			if s.Geom != nil {
				s.Geom.Destroy()
			}
		}
	}()

	// Per-feature geometry checks on a bounded worker pool. Each feature is
	// independent; results are folded into its own row only.
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < uc.parallelism; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				uc.checkFeatureGeometry(&features[i], rows[i], geoms[features[i].Idx], siblings, parents, tolerance)
			}
		}()
	}
	for i := range features {
		if geoms[features[i].Idx] != nil {
			jobs <- i
		}
	}
	close(jobs)
	wg.Wait()

	// Layer-wide checks after the fan-in.
	uc.checkLayerWide(features, rows, geoms, tolerance)

	entityType := ""
	if len(features) > 0 {
		entityType = features[0].EntityType
	}
	report := validation.NewLevelErrorReport(profile, level, entityType)
	validation.Aggregate(report, rows)
	return report, geoms, nil
}

// checkAttributes records attribute and privacy findings for one feature.
func (uc *ValidationUseCase) checkAttributes(f *domain.Feature, row *domain.LayerError, byCode map[string]int) {
	if !f.HasDefaultName() {
		row.Add(domain.ErrorDefaultNameMissing)
	}
	if !f.HasDefaultCode() {
		row.Add(domain.ErrorDefaultCodeMissing)
	} else {
		if _, dup := byCode[f.EntityID]; dup {
			row.Add(domain.ErrorDuplicatedCodes)
		} else {
			byCode[f.EntityID] = f.Idx
		}
	}
	if f.Level > 0 && f.ParentCode == "" {
		row.Add(domain.ErrorParentCodeMissing)
	}
	if f.PrivacyLevel == nil {
		row.Add(domain.ErrorPrivacyLevelMissing)
	} else if *f.PrivacyLevel < minPrivacyLevel || *f.PrivacyLevel > maxPrivacyLevel {
		row.Add(domain.ErrorInvalidPrivacyLevel)
	}
}

// checkFeatureGeometry runs the stateless per-feature checks.
func (uc *ValidationUseCase) checkFeatureGeometry(
	f *domain.Feature,
	row *domain.LayerError,
	g *geometry.Geometry,
	siblings []geometry.SiblingGeometry,
	parents map[string]parentInfo,
	tolerance float64,
) {
	for _, e := range geometry.DuplicateNodeCheck(g, f.Idx, tolerance) {
		row.Add(e.Type)
	}
	for _, e := range geometry.SelfContactCheck(g, f.Idx, tolerance) {
		row.Add(e.Type)
	}
	for _, e := range geometry.SelfIntersectionCheck(g, f.Idx) {
		row.Add(e.Type)
	}
	for _, e := range geometry.ValidityCheck(g, f.Idx) {
		row.Add(e.Type)
	}

	others := make([]geometry.SiblingGeometry, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != f.EntityID {
			others = append(others, s)
		}
	}
	if dup, geomErr := geometry.DuplicateGeometryCheck(g, f.Idx, others, tolerance); dup != nil {
		row.Add(dup.Type)
	} else if geomErr != nil {
		row.Add(geomErr.Type)
	}

	if g.IsPolygonal() {
		parent, hasParent := parents[f.ParentCode]
		var errs []domain.CheckError
		var noParent bool
		var geomErr *domain.CheckError
		if hasParent && parent.geom != nil {
			errs, noParent, geomErr = geometry.ContainmentCheck(g, f.Idx, parent.geom.Geos(), tolerance)
		} else {
			errs, noParent, geomErr = geometry.ContainmentCheck(g, f.Idx, nil, tolerance)
		}
		switch {
		case noParent && f.Level > 0:
			// Fatal for everything below level 0.
			row.Add(domain.ErrorParentMissing)
		case geomErr != nil:
			row.Add(geomErr.Type)
		default:
			for _, e := range errs {
				row.Add(e.Type)
			}
		}

		if hasParent {
			uc.checkPrivacyUpgrade(f, row, parent)
		}
	}
}

// checkPrivacyUpgrade flags children whose declared privacy level is looser
// than their parent's: the import will upgrade them to the parent level.
func (uc *ValidationUseCase) checkPrivacyUpgrade(f *domain.Feature, row *domain.LayerError, parent parentInfo) {
	if f.PrivacyLevel == nil || f.Level == 0 || parent.privacy == nil {
		return
	}
	if *f.PrivacyLevel < *parent.privacy {
		row.Add(domain.ErrorUpgradedPrivacyLevel)
	}
}

// checkLayerWide runs the cross-feature checks: duplicate points for point
// layers, overlaps and gaps for polygon layers.
func (uc *ValidationUseCase) checkLayerWide(
	features []domain.Feature,
	rows []*domain.LayerError,
	geoms map[int]*geometry.Geometry,
	tolerance float64,
) {
	rowByIdx := make(map[int]*domain.LayerError, len(features))
	pointLayer := false
	for i := range features {
		rowByIdx[features[i].Idx] = rows[i]
		if g := geoms[features[i].Idx]; g != nil && g.IsPoint() {
			pointLayer = true
		}
	}

	if pointLayer {
		for idx, errs := range geometry.DuplicatePointCheck(geoms, tolerance) {
			for _, e := range errs {
				rowByIdx[idx].Add(e.Type)
			}
		}
		return
	}

	for _, e := range geometry.OverlapCheck(geoms, uc.overlapArea) {
		rowByIdx[e.FeatureIdx].Add(e.Type)
	}
	for _, e := range geometry.GapCheck(geoms, tolerance) {
		rowByIdx[e.FeatureIdx].Add(e.Type)
	}
}

// notifySessionFinished emits the single "validation finished" event for a
// session once no sibling remains STARTED or PROCESSING.
func (uc *ValidationUseCase) notifySessionFinished(ctx context.Context, upload *domain.EntityUploadStatus, session *domain.LayerUploadSession) {
	event := domain.ValidationDoneEvent{
		SessionID:   session.ID,
		DatasetID:   session.DatasetID,
		RecipientID: session.UploaderID,
		Message:     fmt.Sprintf("Validation of upload session %s finished", session.ID),
		Category:    fmt.Sprintf("%s.validation", upload.Module),
		Payload: map[string]interface{}{
			"session_id": session.ID.String(),
			"dataset_id": session.DatasetID,
			"module":     upload.Module,
		},
	}
	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamUploadDone, event); err != nil {
		// Fire-and-forget boundary: delivery is the platform's concern.
		uc.logger.Error("Failed to publish validation finished event",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}
}

func (uc *ValidationUseCase) loadSiblings(ctx context.Context, upload *domain.EntityUploadStatus, level int, layerFileID int64) ([]geometry.SiblingGeometry, error) {
	if layerFileID == 0 {
		return nil, nil
	}
	entities, err := uc.entityRepo.GetSiblings(ctx, upload.DatasetID, level, layerFileID, "")
	if err != nil {
		return nil, fmt.Errorf("load siblings: %w", err)
	}
	siblings := make([]geometry.SiblingGeometry, 0, len(entities))
	for _, e := range entities {
		g, err := geometry.ParseGeometry(e.GeometryJSON)
		if err != nil {
			uc.logger.Warn("Skipping unparseable sibling geometry",
				zap.String("code", e.InternalCode),
				zap.Error(err))
			continue
		}
		siblings = append(siblings, geometry.SiblingGeometry{ID: e.InternalCode, Geom: g.Geos()})
	}
	return siblings, nil
}

// nextParents indexes this level's parsed geometries by entity code for the
// next level's containment and privacy checks.
func nextParents(features []domain.Feature, geoms map[int]*geometry.Geometry) map[string]parentInfo {
	parents := make(map[string]parentInfo, len(features))
	for i := range features {
		f := &features[i]
		if f.EntityID == "" {
			continue
		}
		parents[f.EntityID] = parentInfo{
			geom:    geoms[f.Idx],
			privacy: f.PrivacyLevel,
		}
	}
	return parents
}

func (uc *ValidationUseCase) progress(ctx context.Context, uploadID int64, message string) {
	if err := uc.progressRepo.Append(ctx, uploadID, message); err != nil {
		uc.logger.Warn("Failed to append progress", zap.Error(err))
	}
}

func (uc *ValidationUseCase) stage(ctx context.Context, uploadID int64, stage string, elapsed time.Duration) {
	if err := uc.progressRepo.Stage(ctx, uploadID, stage, elapsed); err != nil {
		uc.logger.Warn("Failed to record stage timing", zap.Error(err))
	}
}
