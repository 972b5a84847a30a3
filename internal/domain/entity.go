package domain

import (
	"time"

	"github.com/google/uuid"
)

// GeographicalEntity is one administrative boundary at a given revision.
// The dataset model owns these rows; the validation core reads them as the
// comparison set and writes back only comparison-result fields.
type GeographicalEntity struct {
	ID             int64     `json:"id" db:"id"`
	DatasetID      int64     `json:"dataset_id" db:"dataset_id"`
	Level          int       `json:"level" db:"level"`
	InternalCode   string    `json:"internal_code" db:"internal_code"`
	DefaultName    string    `json:"default_name" db:"default_name"`
	DefaultCode    string    `json:"default_code" db:"default_code"`
	UUID           uuid.UUID `json:"uuid" db:"uuid"`
	UUIDRevision   uuid.UUID `json:"uuid_revision" db:"uuid_revision"`
	RevisionNumber int       `json:"revision_number" db:"revision_number"`
	ParentID       *int64    `json:"parent_id,omitempty" db:"parent_id"`
	AncestorID     *int64    `json:"ancestor_id,omitempty" db:"ancestor_id"`
	PrivacyLevel   int       `json:"privacy_level" db:"privacy_level"`
	IsApproved     bool      `json:"is_approved" db:"is_approved"`
	IsLatest       bool      `json:"is_latest" db:"is_latest"`
	GeometryJSON   string    `json:"-" db:"geometry"`
	LayerFileID    *int64    `json:"layer_file_id,omitempty" db:"layer_file_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Feature is one geometry plus attributes read from an uploaded layer file.
// Ephemeral: produced by a FeatureSource, consumed once per validation pass.
type Feature struct {
	Idx          int
	Level        int
	GeometryRaw  string
	EntityID     string
	EntityName   string
	ParentCode   string
	PrivacyLevel *int
	EntityType   string
}

// HasDefaultCode reports whether the feature carries a stable identifier code.
func (f *Feature) HasDefaultCode() bool {
	return f.EntityID != ""
}

// HasDefaultName reports whether the feature carries a default name.
func (f *Feature) HasDefaultName() bool {
	return f.EntityName != ""
}
