// Package documents implements document intake and the document record store.
// Intake writes the blob before the row; every status change is a single-row
// compare-and-set so concurrent finishing signals resolve to one transition.
package documents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the extraction lifecycle state of a document.
type Status string

const (
	StatusPending       Status = "pending"
	StatusProcessing    Status = "processing"
	StatusPendingReview Status = "pending_review"
	StatusCompleted     Status = "completed"
	StatusError         Status = "error"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Document is an uploaded source file and the state of its extraction.
// RawResponse holds provider text kept for diagnostics; it is never
// treated as the extracted payload.
type Document struct {
	ID                  uuid.UUID       `json:"id"`
	Category            string          `json:"category"`
	Filename            string          `json:"filename"`
	ContentType         string          `json:"content_type"`
	SizeBytes           int64           `json:"size_bytes"`
	PageCount           *int            `json:"page_count"`
	StorageKey          string          `json:"storage_key"`
	Status              Status          `json:"status"`
	ExtractedPayload    json.RawMessage `json:"extracted_payload,omitempty"`
	RawResponse         *string         `json:"raw_response,omitempty"`
	ErrorMessage        *string         `json:"error_message,omitempty"`
	IdentityHint        *string         `json:"identity_hint,omitempty"`
	JobRef              *string         `json:"job_ref,omitempty"`
	PartyID             *uuid.UUID      `json:"party_id,omitempty"`
	PartyName           *string         `json:"party_name,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	StatusChangedAt     time.Time       `json:"status_changed_at"`
	ProcessingStartedAt *time.Time      `json:"processing_started_at,omitempty"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
}

// CreateCommand carries the data needed to store and register a new document.
// PageCount is optional and stored as NULL when nil.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	Category    string
	PageCount   *int
}

// BatchResult reports the outcome of a single file within a batch upload.
// On success, Document is populated and Error is empty.
// On failure, Error describes the problem and Document is nil.
type BatchResult struct {
	Document *Document `json:"document,omitempty"`
	Filename string    `json:"filename"`
	Error    string    `json:"error,omitempty"`
}

// Extraction is a successfully parsed provider result.
// Payload is the sanitized JSON object; Raw is the provider text as received.
type Extraction struct {
	Payload      json.RawMessage
	Raw          string
	IdentityHint *string
}
