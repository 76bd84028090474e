package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/internal/parties"
	"github.com/nexliaai/corretor/internal/policies"
	"github.com/nexliaai/corretor/internal/reconciliation"
)

// OutcomeExplicit marks an owner chosen by the reviewer rather than reconciled.
const OutcomeExplicit reconciliation.Outcome = "explicit"

// ConfirmCommand accepts a reviewed extraction. Fields, when present, is the
// corrected payload object and replaces the stored extraction. PartyID, when
// present, overrides owner reconciliation.
type ConfirmCommand struct {
	DocumentID uuid.UUID       `json:"-"`
	PartyID    *uuid.UUID      `json:"party_id,omitempty"`
	Category   *string         `json:"category,omitempty"`
	Fields     json.RawMessage `json:"fields,omitempty"`
}

// ConfirmResult is the outcome of a confirmation.
type ConfirmResult struct {
	DocumentID uuid.UUID              `json:"document_id"`
	Status     documents.Status       `json:"status"`
	Party      *parties.Party         `json:"party"`
	Outcome    reconciliation.Outcome `json:"outcome"`
	Policy     *policies.Policy       `json:"policy,omitempty"`
}

// Confirm resolves the owner of a reviewed document, writes its policy record
// for record-bearing categories, and completes it. Documents already
// completed may be confirmed again; the record is replaced in place.
//
// Field validation happens before any write, so a rejected confirmation
// leaves the document untouched. A failure after that point moves a
// document awaiting review to error with its payload kept.
func (o *Orchestrator) Confirm(ctx context.Context, cmd ConfirmCommand) (*ConfirmResult, error) {
	doc, err := o.docs.Find(ctx, cmd.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != documents.StatusPendingReview && doc.Status != documents.StatusCompleted {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, doc.Status)
	}

	category, payload, err := reviewedPayload(doc, cmd)
	if err != nil {
		return nil, err
	}

	var owner *parties.Party
	var outcome reconciliation.Outcome

	if cmd.PartyID != nil {
		owner, err = o.parties.Find(ctx, *cmd.PartyID)
		if err != nil {
			return nil, err
		}
		outcome = OutcomeExplicit
	} else {
		res, err := o.reconciler.Reconcile(ctx, reconcileIdentity(doc, payload))
		if err != nil {
			return nil, o.abort(ctx, doc, fmt.Errorf("reconcile owner: %w", err))
		}
		owner, outcome = res.Party, res.Outcome
	}

	result := &ConfirmResult{
		DocumentID: doc.ID,
		Party:      owner,
		Outcome:    outcome,
	}

	if category.RecordBearing() {
		record, err := o.records.Upsert(ctx, policies.UpsertCommand{
			DocumentID: doc.ID,
			PartyID:    owner.ID,
			PartyKind:  owner.Kind,
			Category:   category,
			Fields:     payload.AutoPolicy,
			Extra:      payload.Extra,
		})
		if err != nil {
			return nil, o.abort(ctx, doc, fmt.Errorf("persist policy record: %w", err))
		}
		result.Policy = record
	}

	ok, err := o.docs.MarkCompleted(ctx, doc.ID, owner.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: document changed status concurrently", ErrInvalidStatus)
	}
	result.Status = documents.StatusCompleted

	o.logger.Info(
		"extraction.confirmed",
		"document_id", doc.ID,
		"party_id", owner.ID,
		"outcome", outcome,
		"record", result.Policy != nil,
	)
	return result, nil
}

// reviewedPayload decodes and validates the payload a confirmation writes.
func reviewedPayload(doc *documents.Document, cmd ConfirmCommand) (extraction.Category, *extraction.Payload, error) {
	name := doc.Category
	if cmd.Category != nil && strings.TrimSpace(*cmd.Category) != "" {
		name = strings.TrimSpace(*cmd.Category)
	}

	category, err := extraction.ParseCategory(name)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var payload *extraction.Payload
	if len(cmd.Fields) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(cmd.Fields, &obj); err != nil || obj == nil {
			return "", nil, fmt.Errorf("%w: fields must be a JSON object", ErrValidation)
		}
		parsed, err := extraction.ParseObject(category, obj)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		payload = parsed.Payload
	} else {
		if len(doc.ExtractedPayload) == 0 {
			return "", nil, fmt.Errorf("%w: document has no extracted payload", ErrValidation)
		}
		payload, err = extraction.Decode(category, doc.ExtractedPayload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	if category.RecordBearing() {
		if payload.AutoPolicy == nil || payload.AutoPolicy.NumeroApolice == nil ||
			strings.TrimSpace(*payload.AutoPolicy.NumeroApolice) == "" {
			return "", nil, fmt.Errorf("%w: numero_apolice is required", ErrValidation)
		}
	}
	return category, payload, nil
}

func reconcileIdentity(doc *documents.Document, payload *extraction.Payload) reconciliation.Identity {
	id := payload.Identity()
	if doc.IdentityHint != nil && strings.TrimSpace(*doc.IdentityHint) != "" {
		id.TaxID = *doc.IdentityHint
	}

	return reconciliation.Identity{
		TaxID:       id.TaxID,
		DisplayName: id.DisplayName,
		Contact: parties.Contact{
			Email:      id.Email,
			Phone:      id.Phone,
			Address:    id.Address,
			Number:     id.Number,
			Extra:      id.Extra,
			PostalCode: id.PostalCode,
			City:       id.City,
			Country:    id.Country,
		},
	}
}

// abort fails a document awaiting review and returns cause. Completed
// documents keep their state.
func (o *Orchestrator) abort(ctx context.Context, doc *documents.Document, cause error) error {
	if doc.Status != documents.StatusPendingReview {
		return cause
	}
	if _, err := o.fail(ctx, doc.ID, documents.StatusPendingReview, cause.Error(), nil); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
