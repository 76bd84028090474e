package api

import (
	"log/slog"
	"time"

	"github.com/nexliaai/corretor/internal/config"
	"github.com/nexliaai/corretor/internal/infrastructure"
	"github.com/nexliaai/corretor/pkg/database"
	"github.com/nexliaai/corretor/pkg/lifecycle"
	"github.com/nexliaai/corretor/pkg/pagination"
	"github.com/nexliaai/corretor/pkg/storage"
)

// Runtime is the subset of infrastructure and configuration the API
// domain systems are built from.
type Runtime struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System

	Pagination pagination.Config
	PresignTTL time.Duration
	Extraction *config.ExtractionConfig
	Pipeline   *config.PipelineConfig
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Lifecycle:  infra.Lifecycle,
		Logger:     infra.Logger.With("module", "api"),
		Database:   infra.Database,
		Storage:    infra.Storage,
		Pagination: cfg.API.Pagination,
		PresignTTL: cfg.Storage.PresignTTLDuration(),
		Extraction: &cfg.Extraction,
		Pipeline:   &cfg.Pipeline,
	}
}

// scoped returns the API logger tagged with a domain name.
func (r *Runtime) scoped(domain string) *slog.Logger {
	return r.Logger.With("domain", domain)
}
