// Package infrastructure builds the process-wide systems every domain
// package depends on: the lifecycle coordinator, the logger, the Postgres
// pool, and the blob store.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nexliaai/corretor/internal/config"
	"github.com/nexliaai/corretor/pkg/database"
	"github.com/nexliaai/corretor/pkg/lifecycle"
	"github.com/nexliaai/corretor/pkg/storage"
)

// Infrastructure is constructed once at startup and passed by reference.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New builds every system without connecting; Start registers their hooks.
// The configured logger also becomes the slog default.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Logging, os.Stderr).With("service", "corretor", "version", cfg.Version)
	slog.SetDefault(logger)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}, nil
}

// NewLogger creates the slog logger described by cfg, writing to w. Debug
// logging adds source locations.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start registers the database, then storage, with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
