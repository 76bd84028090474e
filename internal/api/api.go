// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/nexliaai/corretor/internal/config"
	"github.com/nexliaai/corretor/internal/infrastructure"
	"github.com/nexliaai/corretor/pkg/middleware"
	"github.com/nexliaai/corretor/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain is shared with modules mounted beside the API.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Unless(middleware.PathSuffix("/extractions/callback"), middleware.RateLimit(&cfg.API.RateLimit)))
	m.Use(middleware.Recovery(runtime.Logger))

	return m, domain, nil
}
