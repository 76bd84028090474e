package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/pkg/handlers"
	"github.com/nexliaai/corretor/pkg/routes"
)

// ChecksumHeader carries the callback checksum when a seed is configured.
const ChecksumHeader = "X-Callback-Checksum"

const maxJSONBodySize = 10 << 20

// System is the pipeline contract served over HTTP and MCP.
type System interface {
	Submit(ctx context.Context, id uuid.UUID) (*StatusView, error)
	Status(ctx context.Context, id uuid.UUID) (*StatusView, error)
	Callback(ctx context.Context, cb *extraction.Callback) (*Transition, error)
	Confirm(ctx context.Context, cmd ConfirmCommand) (*ConfirmResult, error)
	Expire(ctx context.Context, id uuid.UUID, attempts int) (*Transition, error)
}

// Handler provides HTTP endpoints for extraction operations.
type Handler struct {
	sys    System
	logger *slog.Logger
	seed   string
}

// ExpireRequest is the optional body of the expire endpoint.
type ExpireRequest struct {
	Attempts int `json:"attempts"`
}

// NewHandler creates a Handler. An empty seed disables callback checksums.
func NewHandler(sys System, logger *slog.Logger, seed string) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "extractions"),
		seed:   seed,
	}
}

// Routes returns the route group definition for extraction endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/extractions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Status},
			{Method: "POST", Pattern: "/callback", Handler: h.Callback, MaxBytes: maxJSONBodySize},
			{Method: "POST", Pattern: "/{id}/submit", Handler: h.Submit},
			{Method: "POST", Pattern: "/{id}/confirm", Handler: h.Confirm, MaxBytes: maxJSONBodySize},
			{Method: "POST", Pattern: "/{id}/expire", Handler: h.Expire},
		},
	}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	view, err := h.sys.Status(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}

// Submit sends a pending document to the provider.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	view, err := h.sys.Submit(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}

// Callback receives provider completion notices. The checksum is verified
// against the raw body before the notice is applied.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		handlers.RespondError(w, h.logger, bodyErrorStatus(err), err)
		return
	}

	var cb extraction.Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid callback body: %w", err))
		return
	}

	if err := extraction.VerifyCallback(h.seed, r.Header.Get(ChecksumHeader), cb.DocumentID, body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	t, err := h.sys.Callback(r.Context(), &cb)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// Confirm accepts a reviewed extraction.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	var cmd ConfirmCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, bodyErrorStatus(err), err)
		return
	}
	cmd.DocumentID = id

	result, err := h.sys.Confirm(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Expire fails a document stuck in processing.
func (h *Handler) Expire(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	var req ExpireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	t, err := h.sys.Expire(r.Context(), id, req.Attempts)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid document id: %w", err))
		return uuid.Nil, false
	}
	return id, true
}

func bodyErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
