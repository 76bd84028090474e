package api

import (
	"fmt"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/internal/orchestrator"
	"github.com/nexliaai/corretor/internal/parties"
	"github.com/nexliaai/corretor/internal/policies"
	"github.com/nexliaai/corretor/internal/reconciliation"
	"github.com/nexliaai/corretor/internal/templates"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents    documents.System
	Parties      parties.System
	Policies     policies.System
	Templates    templates.System
	Orchestrator *orchestrator.Orchestrator
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	docsSystem := documents.New(
		db,
		runtime.Storage,
		runtime.scoped("documents"),
		runtime.Pagination,
		runtime.PresignTTL,
	)

	partiesSystem := parties.New(db, runtime.scoped("parties"), runtime.Pagination)
	policiesSystem := policies.New(db, runtime.scoped("policies"), runtime.Pagination)
	templatesSystem := templates.New(db, runtime.scoped("templates"), runtime.Pagination)

	provider, err := extraction.New(runtime.Extraction, runtime.scoped("extraction"))
	if err != nil {
		return nil, fmt.Errorf("extraction provider: %w", err)
	}

	orch := orchestrator.New(
		orchestrator.Deps{
			Documents:  docsSystem,
			Parties:    partiesSystem,
			Reconciler: reconciliation.New(partiesSystem, runtime.scoped("reconciliation")),
			Records:    policiesSystem,
			Provider:   provider,
			Overrides:  templatesSystem,
		},
		orchestrator.NewConfig(runtime.Pipeline, runtime.Extraction),
		runtime.scoped("orchestrator"),
	)
	orch.Start(runtime.Lifecycle)

	return &Domain{
		Documents:    docsSystem,
		Parties:      partiesSystem,
		Policies:     policiesSystem,
		Templates:    templatesSystem,
		Orchestrator: orch,
	}, nil
}
