package domain

import "github.com/google/uuid"

// Stream names (must match the upload backend)
const (
	StreamUploadValidate = "stream:upload:validate"
	StreamUploadDone     = "stream:upload:validation-done"
)

// UploadValidateEvent asks a worker to validate one entity upload.
// LayerDir points at the extracted per-level files of the session.
type UploadValidateEvent struct {
	EntityUploadID int64     `json:"entity_upload_id"`
	SessionID      uuid.UUID `json:"session_id"`
	Module         string    `json:"module"`
	LayerDir       string    `json:"layer_dir"`
	RunComparison  bool      `json:"run_comparison"`
}

// ValidationDoneEvent is published once per session when the last sibling
// upload finishes validation.
type ValidationDoneEvent struct {
	SessionID   uuid.UUID              `json:"session_id"`
	DatasetID   int64                  `json:"dataset_id"`
	RecipientID int64                  `json:"recipient_id"`
	Message     string                 `json:"message"`
	Category    string                 `json:"category"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// StreamMessage is one message read from a Redis Stream.
type StreamMessage struct {
	ID   string
	Data string
}
