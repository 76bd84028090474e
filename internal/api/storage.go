package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/nexliaai/corretor/pkg/handlers"
	"github.com/nexliaai/corretor/pkg/routes"
	"github.com/nexliaai/corretor/pkg/storage"
)

// maxPresignTTL caps client-requested presign lifetimes.
const maxPresignTTL = 7 * 24 * time.Hour

var errInvalidTTL = errors.New("ttl must be a positive duration no longer than 168h")

// storageHandler exposes raw blob access by key for operators. Document
// routes remain the normal way to reach a stored file.
type storageHandler struct {
	store      storage.System
	presignTTL time.Duration
	logger     *slog.Logger
}

func newStorageHandler(store storage.System, presignTTL time.Duration, logger *slog.Logger) *storageHandler {
	return &storageHandler{
		store:      store,
		presignTTL: presignTTL,
		logger:     logger.With("handler", "storage"),
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/exists/{key...}", Handler: h.exists},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
			{Method: "GET", Pattern: "/presign/{key...}", Handler: h.presign},
		},
	}
}

func (h *storageHandler) exists(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	ok, err := h.store.Exists(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]any{"key": key, "exists": ok})
}

func (h *storageHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}

	hdr := w.Header()
	hdr.Set("Content-Type", ct)
	hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}))
	hdr.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if n, err := io.Copy(w, body); err != nil {
		h.logger.Warn("download interrupted", "key", key, "written", n, "error", err)
	}
}

// presign returns a time-bounded URL for key. The optional ttl query
// parameter overrides the configured default.
func (h *storageHandler) presign(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	ttl := h.presignTTL
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 || d > maxPresignTTL {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidTTL)
			return
		}
		ttl = d
	}

	url, err := h.store.PresignedURL(r.Context(), key, ttl)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"key":        key,
		"url":        url,
		"expires_at": time.Now().Add(ttl).UTC(),
	})
}
