package api

import (
	"net/http"

	"github.com/nexliaai/corretor/internal/config"
	"github.com/nexliaai/corretor/pkg/routes"
)

// groups lists every route group the API serves, in registration order.
func groups(domain *Domain, cfg *config.Config, runtime *Runtime) []routes.Group {
	return []routes.Group{
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes(), domain.Orchestrator).Routes(),
		domain.Parties.Handler().Routes(),
		domain.Policies.Handler().Routes(),
		domain.Templates.Handler().Routes(),
		domain.Orchestrator.Handler().Routes(),
		newStorageHandler(runtime.Storage, runtime.PresignTTL, runtime.Logger).routes(),
	}
}

func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config, runtime *Runtime) {
	gs := groups(domain, cfg, runtime)
	routes.Register(mux, gs...)

	count := 0
	for _, g := range gs {
		patterns := g.Patterns()
		count += len(patterns)
		runtime.Logger.Debug("routes registered", "prefix", g.Prefix, "patterns", patterns)
	}
	runtime.Logger.Info("api routes ready", "groups", len(gs), "routes", count)
}
