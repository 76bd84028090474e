package documents

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/pkg/query"
	"github.com/nexliaai/corretor/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("category", "Category").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("status", "Status").
	Project("extracted_payload", "ExtractedPayload").
	Project("raw_response", "RawResponse").
	Project("error_message", "ErrorMessage").
	Project("identity_hint", "IdentityHint").
	Project("job_ref", "JobRef").
	Project("party_id", "PartyID").
	Project("created_at", "CreatedAt").
	Project("status_changed_at", "StatusChangedAt").
	Project("processing_started_at", "ProcessingStartedAt").
	Project("completed_at", "CompletedAt").
	Join("public", "parties", "p", "LEFT JOIN", "d.party_id = p.id").
	Project("display_name", "PartyName")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Filename uses case-insensitive contains matching;
// the rest match exactly.
type Filters struct {
	Status      *string    `json:"status,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Filename    *string    `json:"filename,omitempty"`
	ContentType *string    `json:"content_type,omitempty"`
	PartyID     *uuid.UUID `json:"party_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("Category", f.Category).
		WhereContains("Filename", f.Filename).
		WhereEquals("ContentType", f.ContentType).
		WhereEquals("PartyID", f.PartyID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if c := values.Get("category"); c != "" {
		f.Category = &c
	}
	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}
	if ct := values.Get("content_type"); ct != "" {
		f.ContentType = &ct
	}
	if pid := values.Get("party_id"); pid != "" {
		if id, err := uuid.Parse(pid); err == nil {
			f.PartyID = &id
		}
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d       Document
		payload []byte
	)
	err := s.Scan(
		&d.ID,
		&d.Category,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.StorageKey,
		&d.Status,
		&payload,
		&d.RawResponse,
		&d.ErrorMessage,
		&d.IdentityHint,
		&d.JobRef,
		&d.PartyID,
		&d.CreatedAt,
		&d.StatusChangedAt,
		&d.ProcessingStartedAt,
		&d.CompletedAt,
		&d.PartyName,
	)
	if len(payload) > 0 {
		d.ExtractedPayload = payload
	}
	return d, err
}
