package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Upload statuses. STARTED uploads are picked up by validation workers;
// REVIEWING and later states are driven by human review outside this core.
const (
	UploadStatusStarted            = "STARTED"
	UploadStatusProcessing         = "PROCESSING"
	UploadStatusValid              = "VALID"
	UploadStatusError              = "ERROR"
	UploadStatusReviewing          = "REVIEWING"
	UploadStatusApproved           = "APPROVED"
	UploadStatusRejected           = "REJECTED"
	UploadStatusProcessingApproval = "PROCESSING_APPROVAL"
	UploadStatusErrorProcessing    = "ERROR Processing"
)

// EntityUploadStatus is the unit of work for one level-0 entity revision
// within an upload session.
type EntityUploadStatus struct {
	ID                  int64             `json:"id" db:"id"`
	SessionID           uuid.UUID         `json:"session_id" db:"session_id"`
	DatasetID           int64             `json:"dataset_id" db:"dataset_id"`
	Module              string            `json:"module" db:"module"`
	RevisedEntityID     *int64            `json:"revised_entity_id,omitempty" db:"revised_entity_id"`
	OriginalEntityCode  string            `json:"original_entity_code" db:"original_entity_code"`
	Status              string            `json:"status" db:"status"`
	Summaries           LevelErrorReports `json:"summaries" db:"summaries"`
	ErrorReport         string            `json:"error_report" db:"error_report"`
	ComparisonDataReady bool              `json:"comparison_data_ready" db:"comparison_data_ready"`
	MaxLevelInLayer     int               `json:"max_level_in_layer" db:"max_level_in_layer"`
	AdminLevelNames     pq.StringArray    `json:"admin_level_names" db:"admin_level_names"`
	StartedAt           *time.Time        `json:"started_at,omitempty" db:"started_at"`
	FinishedAt          *time.Time        `json:"finished_at,omitempty" db:"finished_at"`
}

// IsFinished reports whether validation has produced a terminal result.
func (u *EntityUploadStatus) IsFinished() bool {
	return u.Status != UploadStatusStarted && u.Status != UploadStatusProcessing
}

// LayerUploadSession groups sibling EntityUploadStatus rows produced from one
// uploaded set of layer files.
type LayerUploadSession struct {
	ID          uuid.UUID `json:"id" db:"id"`
	DatasetID   int64     `json:"dataset_id" db:"dataset_id"`
	Module      string    `json:"module" db:"module"`
	UploaderID  int64     `json:"uploader_id" db:"uploader_id"`
	Tolerance   float64   `json:"tolerance" db:"tolerance"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// User carries the only role information the core needs.
type User struct {
	ID          int64  `json:"id" db:"id"`
	Username    string `json:"username" db:"username"`
	IsSuperuser bool   `json:"is_superuser" db:"is_superuser"`
}
