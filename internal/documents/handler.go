package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/pkg/formatting"
	"github.com/nexliaai/corretor/pkg/handlers"
	"github.com/nexliaai/corretor/pkg/pagination"
	"github.com/nexliaai/corretor/pkg/routes"
)

const (
	maxPresignTTL = 7 * 24 * time.Hour
	// formMemory is how much of a multipart body is held in memory before
	// parts spill to temporary files.
	formMemory = 32 << 20
)

var (
	errInvalidID  = errors.New("invalid document id")
	errInvalidTTL = errors.New("ttl must be a positive duration no longer than 168h")
)

// Handler serves document intake and lookup. Successful uploads are handed
// to the dispatcher; a nil dispatcher only stores them.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
	dispatcher    Dispatcher
}

// SearchRequest is the body of POST /documents/search.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// URLResponse carries a presigned URL. ExpiresAt is zero when the store
// default TTL applied.
type URLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
	dispatcher Dispatcher,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
		dispatcher:    dispatcher,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/url", Handler: h.URL},
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "POST", Pattern: "/batch", Handler: h.UploadBatch},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.list(w, r, pagination.PageRequestFromQuery(q, h.pagination), FiltersFromQuery(q))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid search body: %w", err))
		return
	}
	req.PageRequest.Normalize(h.pagination)
	h.list(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, doc)
}

// URL returns a presigned retrieval URL. The optional ttl query parameter
// is a Go duration of at most 168h.
func (h *Handler) URL(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var ttl time.Duration
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 || d > maxPresignTTL {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidTTL)
			return
		}
		ttl = d
	}

	url, err := h.sys.PresignedURL(r.Context(), id, ttl)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	resp := URLResponse{URL: url}
	if ttl > 0 {
		resp.ExpiresAt = time.Now().Add(ttl).UTC()
	}
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// Upload stores the "file" part under the form's category and dispatches
// the new document for extraction.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: missing file part", ErrInvalidFile))
		return
	}

	cmd, err := h.readPart(files[0], formCategory(form))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	doc, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.dispatch(doc.ID)
	handlers.RespondJSON(w, http.StatusCreated, doc)
}

// UploadBatch stores every "files" part under one category. Results keep
// the order of the parts; a part that cannot be read or stored carries its
// error instead of a document.
func (h *Handler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	parts := form.File["files"]
	if len(parts) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: missing files parts", ErrInvalidFile))
		return
	}

	category := formCategory(form)
	if !ValidCategory(category) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCategory)
		return
	}

	results := make([]BatchResult, len(parts))
	cmds := make([]CreateCommand, 0, len(parts))
	slots := make([]int, 0, len(parts))

	for i, part := range parts {
		results[i].Filename = part.Filename
		cmd, err := h.readPart(part, category)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		cmds = append(cmds, cmd)
		slots = append(slots, i)
	}

	if len(cmds) > 0 {
		for j, res := range h.sys.CreateBatch(r.Context(), cmds) {
			results[slots[j]] = res
			if res.Document != nil {
				h.dispatch(res.Document.ID)
			}
		}
	}

	h.logger.Info("batch upload", "category", category, "files", len(parts), "accepted", len(cmds))
	handlers.RespondJSON(w, http.StatusOK, results)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// parseForm caps the body at the upload limit and parses it as multipart.
// An oversized body is 413; anything else malformed is 400.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	err := r.ParseMultipartForm(formMemory)
	if err == nil {
		return r.MultipartForm, true
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w (%s)", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize, 0)))
	} else {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidFile, err))
	}
	return nil, false
}

func (h *Handler) readPart(part *multipart.FileHeader, category string) (CreateCommand, error) {
	if !ValidCategory(category) {
		return CreateCommand{}, ErrInvalidCategory
	}

	f, err := part.Open()
	if err != nil {
		return CreateCommand{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return CreateCommand{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if len(data) == 0 {
		return CreateCommand{}, fmt.Errorf("%w: %s is empty", ErrInvalidFile, part.Filename)
	}

	ct := contentType(part.Header.Get("Content-Type"), data)
	return CreateCommand{
		Data:        data,
		Filename:    part.Filename,
		ContentType: ct,
		Category:    category,
		PageCount:   pageCount(h.logger, data, ct),
	}, nil
}

func (h *Handler) dispatch(id uuid.UUID) {
	if h.dispatcher != nil {
		h.dispatcher.Dispatch(id)
	}
}

func formCategory(form *multipart.Form) string {
	if v := form.Value["category"]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}
