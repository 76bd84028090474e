package main

import (
	"context"
	"fmt"

	"github.com/nexliaai/corretor/internal/config"
	"github.com/nexliaai/corretor/internal/infrastructure"
	"github.com/nexliaai/corretor/pkg/module"
)

// Server owns the process-wide infrastructure, the mounted modules, and the
// HTTP listener serving them.
type Server struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	router *module.Router
	http   *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg.Version)
	modules.Mount(router)

	return &Server{
		cfg:    cfg,
		infra:  infra,
		router: router,
		http:   newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Run starts every subsystem, blocks until ctx is cancelled, then shuts
// down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	log := s.infra.Logger
	log.Info("starting corretor",
		"addr", s.cfg.Server.Addr(),
		"env", s.cfg.Env(),
		"modules", s.router.Prefixes(),
		"config", s.cfg.Sources,
	)
	if len(s.cfg.Unknown) > 0 {
		log.Warn("ignoring unknown config keys", "keys", s.cfg.Unknown)
	}

	if err := s.infra.Start(); err != nil {
		return fmt.Errorf("start infrastructure: %w", err)
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		log.Info("all subsystems ready",
			"provider", s.cfg.Extraction.Provider,
			"pipeline_mode", s.cfg.Pipeline.Mode,
			"auto_confirm", s.cfg.Pipeline.AutoConfirm,
		)
	}()

	<-ctx.Done()

	timeout := s.cfg.ShutdownTimeoutDuration()
	log.Info("shutting down", "timeout", timeout, "background_tasks", s.infra.Lifecycle.Running())
	if err := s.infra.Lifecycle.Shutdown(timeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("corretor stopped")
	return nil
}
