package domain

import "time"

// BoundaryComparison pairs a new-revision entity with a prior-revision
// candidate. ComparisonBoundaryID is nil when no plausible match was found.
// Verdict fields are user-editable during review; IsEdited marks rows the
// matching engine must not overwrite without an explicit rematch.
type BoundaryComparison struct {
	ID                   int64     `json:"id" db:"id"`
	EntityUploadID       int64     `json:"entity_upload_id" db:"entity_upload_id"`
	MainBoundaryID       int64     `json:"main_boundary_id" db:"main_boundary_id"`
	ComparisonBoundaryID *int64    `json:"comparison_boundary_id,omitempty" db:"comparison_boundary_id"`
	CodeMatch            bool      `json:"code_match" db:"code_match"`
	NameSimilarity       float64   `json:"name_similarity" db:"name_similarity"`
	GeometryOverlapNew   float64   `json:"geometry_overlap_new" db:"geometry_overlap_new"`
	GeometryOverlapOld   float64   `json:"geometry_overlap_old" db:"geometry_overlap_old"`
	CentroidDistance     float64   `json:"centroid_distance" db:"centroid_distance"`
	IsParentRematched    bool      `json:"is_parent_rematched" db:"is_parent_rematched"`
	IsSameEntity         bool      `json:"is_same_entity" db:"is_same_entity"`
	IsEdited             bool      `json:"is_edited" db:"is_edited"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// MatchThresholds are the dataset-configured verdict thresholds. Both
// overlap thresholds must be exceeded for a same-entity verdict.
type MatchThresholds struct {
	GeometrySimilarityNew float64 `validate:"gte=0,lte=1"`
	GeometrySimilarityOld float64 `validate:"gte=0,lte=1"`
}
