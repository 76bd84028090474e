package main

import (
	"net/http"

	"github.com/nexliaai/corretor/internal/api"
	"github.com/nexliaai/corretor/internal/config"
	"github.com/nexliaai/corretor/internal/infrastructure"
	"github.com/nexliaai/corretor/internal/mcp"
	"github.com/nexliaai/corretor/pkg/handlers"
	"github.com/nexliaai/corretor/pkg/middleware"
	"github.com/nexliaai/corretor/pkg/module"
)

// Modules are the prefix-mounted handlers. MCP is nil when disabled.
type Modules struct {
	API *module.Module
	MCP *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, domain, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	modules := &Modules{API: apiModule}

	if cfg.MCP.IsEnabled() {
		tools := mcp.New(domain.Orchestrator, domain.Parties, cfg.Version, infra.Logger)

		mcpModule := module.New(cfg.MCP.BasePath, tools.Handler())
		mcpModule.Use(middleware.RequestID())
		mcpModule.Use(middleware.Recovery(infra.Logger))
		mcpModule.Use(middleware.Streaming())
		modules.MCP = mcpModule
	}

	return modules, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	if m.MCP != nil {
		router.Mount(m.MCP)
	}
}

// buildRouter mounts the probes that sit outside every module: healthz
// reports liveness only, readyz requires finished startup and a reachable
// database.
func buildRouter(infra *infrastructure.Infrastructure, version string) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		if err := infra.Database.Ping(r.Context()); err != nil {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "not ready",
				"database": err.Error(),
			})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	return router
}
