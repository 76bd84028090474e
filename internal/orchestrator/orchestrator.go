// Package orchestrator drives a document through extraction: submission to
// the provider, completion by inline result, callback or server-side watch,
// and confirmation into a party-owned policy record.
//
// Every state change is a compare-and-set on the document row, so duplicate
// or late completion signals for the same document resolve to a single
// transition and the rest are no-ops.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/config"
	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/internal/parties"
	"github.com/nexliaai/corretor/internal/policies"
	"github.com/nexliaai/corretor/internal/reconciliation"
	"github.com/nexliaai/corretor/pkg/lifecycle"
	"github.com/nexliaai/corretor/pkg/poll"
)

// Documents is the document record store used by the pipeline.
type Documents interface {
	Find(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	PresignedURL(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, jobRef *string) (bool, error)
	SetJobRef(ctx context.Context, id uuid.UUID, jobRef string) (bool, error)
	MarkExtracted(ctx context.Context, id uuid.UUID, ext documents.Extraction) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, from documents.Status, message string, raw *string) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, partyID uuid.UUID) (bool, error)
}

// Parties is the read side of the party directory.
type Parties interface {
	Find(ctx context.Context, id uuid.UUID) (*parties.Party, error)
	FindByTaxID(ctx context.Context, taxID string) (*parties.Party, error)
}

// Reconciler resolves an extracted identity to its owning party.
type Reconciler interface {
	Reconcile(ctx context.Context, id reconciliation.Identity) (*reconciliation.Result, error)
}

// Records persists confirmed policy records.
type Records interface {
	Upsert(ctx context.Context, cmd policies.UpsertCommand) (*policies.Policy, error)
}

// Deps are the collaborators of an Orchestrator. Overrides and Sleeper are
// optional.
type Deps struct {
	Documents  Documents
	Parties    Parties
	Reconciler Reconciler
	Records    Records
	Provider   extraction.Provider
	Overrides  extraction.Overrides
	Sleeper    poll.Sleeper
}

// Config tunes the pipeline.
type Config struct {
	Mode         string
	PollInterval time.Duration
	PollAttempts int
	Workers      int
	AutoConfirm  bool
	CallbackSeed string
}

// NewConfig derives the pipeline configuration from the application sections.
func NewConfig(p *config.PipelineConfig, e *config.ExtractionConfig) Config {
	return Config{
		Mode:         p.Mode,
		PollInterval: p.PollIntervalDuration(),
		PollAttempts: p.PollAttempts,
		Workers:      p.Workers,
		AutoConfirm:  p.AutoConfirm,
		CallbackSeed: e.Webhook.CallbackSeed,
	}
}

// Orchestrator coordinates extraction for stored documents.
type Orchestrator struct {
	docs       Documents
	parties    Parties
	reconciler Reconciler
	records    Records
	provider   extraction.Provider
	overrides  extraction.Overrides
	sleeper    poll.Sleeper
	cfg        Config
	logger     *slog.Logger

	lc    *lifecycle.Coordinator
	queue chan uuid.UUID
}

// New creates an Orchestrator. Dispatch and server-side watching are
// available after Start.
func New(deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.PollAttempts < 1 {
		cfg.PollAttempts = 1
	}

	sleeper := deps.Sleeper
	if sleeper == nil {
		sleeper = poll.TimerSleeper{}
	}

	return &Orchestrator{
		docs:       deps.Documents,
		parties:    deps.Parties,
		reconciler: deps.Reconciler,
		records:    deps.Records,
		provider:   deps.Provider,
		overrides:  deps.Overrides,
		sleeper:    sleeper,
		cfg:        cfg,
		logger:     logger.With("system", "orchestrator"),
	}
}

// Handler returns the HTTP handler for extraction endpoints.
func (o *Orchestrator) Handler() *Handler {
	return NewHandler(o, o.logger, o.cfg.CallbackSeed)
}

// Watching reports whether accepted jobs are tracked server-side.
func (o *Orchestrator) Watching() bool {
	return o.cfg.Mode == config.ModePoll
}
