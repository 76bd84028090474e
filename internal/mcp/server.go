// Package mcp exposes the review workflow as Model Context Protocol tools so
// assistants can inspect extractions, look up clients, and confirm reviewed
// documents over streamable HTTP.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nexliaai/corretor/internal/orchestrator"
	"github.com/nexliaai/corretor/internal/parties"
)

// Extractions is the pipeline surface served as tools.
type Extractions interface {
	Status(ctx context.Context, id uuid.UUID) (*orchestrator.StatusView, error)
	Confirm(ctx context.Context, cmd orchestrator.ConfirmCommand) (*orchestrator.ConfirmResult, error)
}

// Parties is the directory lookup served as tools.
type Parties interface {
	Find(ctx context.Context, id uuid.UUID) (*parties.Party, error)
	FindByTaxID(ctx context.Context, taxID string) (*parties.Party, error)
}

// Server holds the MCP server and its registered tools.
type Server struct {
	srv         *sdk.Server
	extractions Extractions
	parties     Parties
	logger      *slog.Logger
}

// New creates a Server with every tool registered.
func New(extractions Extractions, parties Parties, version string, logger *slog.Logger) *Server {
	s := &Server{
		srv:         sdk.NewServer(&sdk.Implementation{Name: "corretor", Version: version}, nil),
		extractions: extractions,
		parties:     parties,
		logger:      logger.With("system", "mcp"),
	}

	s.registerStatus()
	s.registerConfirm()
	s.registerFindParty()

	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *sdk.Server {
	return s.srv
}

// Handler serves the tools over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.srv
	}, nil)
}
