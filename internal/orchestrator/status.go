package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/internal/parties"
)

// StatusView is the client-facing state of an extraction.
type StatusView struct {
	ID              uuid.UUID        `json:"id"`
	FileName        string           `json:"file_name"`
	Category        string           `json:"category"`
	Status          documents.Status `json:"status"`
	ExtractedData   json.RawMessage  `json:"extracted_data,omitempty"`
	PotentialClient *PotentialClient `json:"potential_client,omitempty"`
	ErrorMessage    *string          `json:"error_message,omitempty"`
	JobRef          *string          `json:"job_ref,omitempty"`
	PartyID         *uuid.UUID       `json:"party_id,omitempty"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

// PotentialClient is the owner a confirmation would most likely resolve
// to. Party is nil when the tax id is not yet in the directory.
type PotentialClient struct {
	TaxID string         `json:"tax_id"`
	Name  string         `json:"name,omitempty"`
	Party *parties.Party `json:"party,omitempty"`
}

// Status returns the extraction state of a document. Documents awaiting
// review include the potential client, looked up without side effects.
func (o *Orchestrator) Status(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	doc, err := o.docs.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		ID:            doc.ID,
		FileName:      doc.Filename,
		Category:      doc.Category,
		Status:        doc.Status,
		ExtractedData: doc.ExtractedPayload,
		ErrorMessage:  doc.ErrorMessage,
		JobRef:        doc.JobRef,
		PartyID:       doc.PartyID,
		StartedAt:     doc.ProcessingStartedAt,
		CompletedAt:   doc.CompletedAt,
	}

	if doc.Status == documents.StatusPendingReview {
		view.PotentialClient = o.potentialClient(ctx, doc)
	}
	return view, nil
}

func (o *Orchestrator) potentialClient(ctx context.Context, doc *documents.Document) *PotentialClient {
	identity := documentIdentity(doc)

	taxID := parties.NormalizeTaxID(identity.TaxID)
	if taxID == "" {
		return nil
	}

	pc := &PotentialClient{TaxID: taxID, Name: identity.DisplayName}

	p, err := o.parties.FindByTaxID(ctx, taxID)
	switch {
	case err == nil:
		pc.Party = p
	case !errors.Is(err, parties.ErrNotFound):
		o.logger.Warn("status.lookup_failed", "document_id", doc.ID, "error", err)
	}
	return pc
}

// documentIdentity derives the owner identity of a document from its stored
// payload, with the provider's identity hint taking precedence for the tax id.
func documentIdentity(doc *documents.Document) extraction.Identity {
	var identity extraction.Identity

	if category, err := extraction.ParseCategory(doc.Category); err == nil && len(doc.ExtractedPayload) > 0 {
		if payload, err := extraction.Decode(category, doc.ExtractedPayload); err == nil {
			identity = payload.Identity()
		}
	}

	if doc.IdentityHint != nil && *doc.IdentityHint != "" {
		identity.TaxID = *doc.IdentityHint
	}
	return identity
}
