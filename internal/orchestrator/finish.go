package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
)

// Transition reports the effect of a completion signal. Transitioned is
// false when the document had already left processing, in which case the
// signal changed nothing.
type Transition struct {
	DocumentID   uuid.UUID        `json:"document_id"`
	Transitioned bool             `json:"transitioned"`
	Status       documents.Status `json:"status"`
}

// Finish applies a terminal provider result to a processing document.
// Completed results are parsed and stored for review; unparseable text fails
// the document with the raw text kept. Non-terminal results only record the
// job reference.
func (o *Orchestrator) Finish(ctx context.Context, id uuid.UUID, res *extraction.Result) (*Transition, error) {
	doc, err := o.docs.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != documents.StatusProcessing {
		o.logger.Info("extraction.finish.ignored", "document_id", id, "status", doc.Status, "state", res.State)
		return &Transition{DocumentID: id, Status: doc.Status}, nil
	}

	var ok bool
	switch res.State {
	case extraction.StateCompleted:
		ok, err = o.complete(ctx, doc, res)
	case extraction.StateFailed:
		ok, err = o.fail(ctx, id, documents.StatusProcessing, failureMessage(res.Error), optional(res.Text))
	default:
		if res.JobRef != "" {
			if _, err := o.docs.SetJobRef(ctx, id, res.JobRef); err != nil {
				return nil, err
			}
		}
		return &Transition{DocumentID: id, Status: doc.Status}, nil
	}
	if err != nil {
		return nil, err
	}

	return o.transition(ctx, id, ok)
}

func (o *Orchestrator) complete(ctx context.Context, doc *documents.Document, res *extraction.Result) (bool, error) {
	category, err := extraction.ParseCategory(doc.Category)
	if err != nil {
		return o.fail(ctx, doc.ID, documents.StatusProcessing, err.Error(), optional(res.Text))
	}

	parsed, err := extraction.Parse(category, res.Text)
	if err != nil {
		o.logger.Warn("extraction.malformed", "document_id", doc.ID, "error", err)
		return o.fail(ctx, doc.ID, documents.StatusProcessing, err.Error(), optional(res.Text))
	}

	ok, err := o.docs.MarkExtracted(ctx, doc.ID, documents.Extraction{
		Payload:      parsed.JSON,
		Raw:          res.Text,
		IdentityHint: optional(strings.TrimSpace(res.IdentityHint)),
	})
	if err != nil || !ok {
		return ok, err
	}

	o.logger.Info(
		"extraction.completed",
		"document_id", doc.ID,
		"category", category,
		"reviewed", res.Reviewed,
	)

	if res.Reviewed && o.cfg.AutoConfirm {
		if _, err := o.Confirm(ctx, ConfirmCommand{DocumentID: doc.ID}); err != nil {
			o.logger.Warn("extraction.auto_confirm_failed", "document_id", doc.ID, "error", err)
		}
	}
	return true, nil
}

// Callback applies a provider completion notice. Repeated or late notices
// for a document that already left processing are accepted and ignored.
func (o *Orchestrator) Callback(ctx context.Context, cb *extraction.Callback) (*Transition, error) {
	id, err := uuid.Parse(cb.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: document_id %q", ErrValidation, cb.DocumentID)
	}

	o.logger.Info("extraction.callback", "document_id", id, "status", cb.Status, "job_ref", cb.JobID)
	return o.Finish(ctx, id, cb.Result())
}

// Expire fails a document still processing after attempts status checks.
func (o *Orchestrator) Expire(ctx context.Context, id uuid.UUID, attempts int) (*Transition, error) {
	msg := fmt.Sprintf("extraction timed out after %d status checks", attempts)

	ok, err := o.fail(ctx, id, documents.StatusProcessing, msg, nil)
	if err != nil {
		return nil, err
	}
	return o.transition(ctx, id, ok)
}

func (o *Orchestrator) fail(ctx context.Context, id uuid.UUID, from documents.Status, msg string, raw *string) (bool, error) {
	ok, err := o.docs.MarkFailed(ctx, id, from, msg, raw)
	if err != nil {
		return false, err
	}
	if ok {
		o.logger.Warn("extraction.failed", "document_id", id, "from", from, "message", msg)
	}
	return ok, nil
}

func (o *Orchestrator) transition(ctx context.Context, id uuid.UUID, ok bool) (*Transition, error) {
	doc, err := o.docs.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Transition{DocumentID: id, Transitioned: ok, Status: doc.Status}, nil
}

func failureMessage(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return "extraction failed"
	}
	return msg
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
