// Package reconciliation matches an extracted identity against the party
// directory, creating a party when the tax id is new and falling back to the
// placeholder party when no usable tax id was extracted.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/parties"
)

// DefaultDisplayName is used when the identity carries no name.
const DefaultDisplayName = "Cliente"

// ErrAmbiguous marks an identity that could not be resolved to a single
// party. It is logged and degraded to the placeholder, never returned.
var ErrAmbiguous = errors.New("reconciliation ambiguous")

// Outcome describes how a party was resolved.
type Outcome string

const (
	OutcomeMatched     Outcome = "matched"
	OutcomeCreated     Outcome = "created"
	OutcomePlaceholder Outcome = "placeholder"
)

// Identity is the owner information derived from an extraction.
// TaxID may carry any formatting.
type Identity struct {
	TaxID       string
	DisplayName string
	Contact     parties.Contact
}

// Result is the resolved owning party.
type Result struct {
	Party   *parties.Party
	Outcome Outcome
}

// Directory is the subset of the party directory used for matching.
type Directory interface {
	FindByTaxID(ctx context.Context, taxID string) (*parties.Party, error)
	Create(ctx context.Context, cmd parties.CreateCommand) (*parties.Party, error)
	MergeContact(ctx context.Context, id uuid.UUID, c parties.Contact) (*parties.Party, error)
	Placeholder(ctx context.Context) (*parties.Party, error)
}

// Engine resolves identities against a Directory.
type Engine struct {
	dir    Directory
	logger *slog.Logger
}

// New creates an Engine backed by dir.
func New(dir Directory, logger *slog.Logger) *Engine {
	return &Engine{
		dir:    dir,
		logger: logger.With("system", "reconciliation"),
	}
}

// Reconcile returns the party that owns id. Directory failures while matching
// degrade to the placeholder; only a failure to obtain the placeholder itself
// is returned as an error.
func (e *Engine) Reconcile(ctx context.Context, id Identity) (*Result, error) {
	taxID := parties.NormalizeTaxID(id.TaxID)
	if taxID == "" {
		return e.placeholder(ctx, "no tax id extracted", nil)
	}

	kind, ok := parties.KindForTaxID(taxID)
	if !ok {
		return e.placeholder(ctx, "tax id length not recognized",
			fmt.Errorf("%w: %d digits", ErrAmbiguous, len(taxID)))
	}

	existing, err := e.dir.FindByTaxID(ctx, taxID)
	switch {
	case err == nil:
		return e.merge(ctx, existing, id.Contact)
	case !errors.Is(err, parties.ErrNotFound):
		return e.placeholder(ctx, "party lookup failed", err)
	}

	created, err := e.dir.Create(ctx, parties.CreateCommand{
		Kind:        kind,
		TaxID:       taxID,
		DisplayName: displayName(id.DisplayName),
		Contact:     id.Contact,
	})
	if err == nil {
		e.logger.Info("party created from extraction", "party_id", created.ID, "kind", kind)
		return &Result{Party: created, Outcome: OutcomeCreated}, nil
	}

	if !errors.Is(err, parties.ErrDuplicate) {
		return e.placeholder(ctx, "party create failed", err)
	}

	// A concurrent reconciliation registered the same tax id first.
	winner, err := e.dir.FindByTaxID(ctx, taxID)
	if err != nil {
		return e.placeholder(ctx, "party re-fetch after conflict failed", err)
	}
	return e.merge(ctx, winner, id.Contact)
}

func (e *Engine) merge(ctx context.Context, p *parties.Party, c parties.Contact) (*Result, error) {
	if c.Empty() {
		return &Result{Party: p, Outcome: OutcomeMatched}, nil
	}

	merged, err := e.dir.MergeContact(ctx, p.ID, c)
	if err != nil {
		e.logger.Warn("contact merge failed, keeping stored contact", "party_id", p.ID, "error", err)
		return &Result{Party: p, Outcome: OutcomeMatched}, nil
	}
	return &Result{Party: merged, Outcome: OutcomeMatched}, nil
}

func (e *Engine) placeholder(ctx context.Context, reason string, cause error) (*Result, error) {
	if cause != nil {
		e.logger.Warn("identity routed to placeholder party", "reason", reason, "error", cause)
	} else {
		e.logger.Info("identity routed to placeholder party", "reason", reason)
	}

	p, err := e.dir.Placeholder(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtain placeholder party: %w", err)
	}
	return &Result{Party: p, Outcome: OutcomePlaceholder}, nil
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return DefaultDisplayName
}
