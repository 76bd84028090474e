package extraction

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/config"
)

const maxResponseSize = 10 << 20

// Webhook submits documents to a job/callback style HTTP endpoint.
// Responses either complete inline or acknowledge a job whose outcome
// arrives later through the callback endpoint or a status query.
type Webhook struct {
	cfg    *config.WebhookConfig
	client *http.Client
	logger *slog.Logger
}

// NewWebhook creates a webhook provider.
func NewWebhook(cfg *config.WebhookConfig, client *http.Client, logger *slog.Logger) *Webhook {
	return &Webhook{
		cfg:    cfg,
		client: client,
		logger: logger.With("provider", config.ProviderWebhook),
	}
}

func (w *Webhook) Name() string { return config.ProviderWebhook }

type webhookRequest struct {
	DocumentID   uuid.UUID `json:"document_id"`
	DocumentType string    `json:"document_type"`
	FileURL      string    `json:"file_url"`
	FileName     string    `json:"file_name"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	StorageKey   string    `json:"storage_key"`
	Timestamp    string    `json:"timestamp"`
	CallbackURL  string    `json:"callback_url,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
}

// Submit posts the submission and interprets the acknowledgement.
func (w *Webhook) Submit(ctx context.Context, s Submission) (*Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	w.logger.Info("extraction.submit.start",
		"req_id", rid,
		"document_id", s.DocumentID,
		"category", s.Category,
		"size", s.Size,
	)

	body := webhookRequest{
		DocumentID:   s.DocumentID,
		DocumentType: string(s.Category),
		FileURL:      s.FileURL,
		FileName:     s.Filename,
		FileType:     s.ContentType,
		FileSize:     s.Size,
		StorageKey:   s.StorageKey,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		CallbackURL:  w.cfg.CallbackURL,
		Instructions: s.Instructions,
	}

	raw, err := w.do(ctx, http.MethodPost, w.cfg.URL, body)
	if err != nil {
		w.logger.Error("extraction.submit.http_error",
			"req_id", rid,
			"document_id", s.DocumentID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	result, err := w.interpret(raw)
	if err != nil {
		w.logger.Error("extraction.submit.decode_error",
			"req_id", rid,
			"document_id", s.DocumentID,
			"error", err,
			"raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	w.logger.Info("extraction.submit.ok",
		"req_id", rid,
		"document_id", s.DocumentID,
		"state", result.State,
		"job_ref", result.JobRef,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Poll queries {status_url}/{jobRef}. Providers configured without a
// status URL return ErrPollUnsupported.
func (w *Webhook) Poll(ctx context.Context, jobRef string) (*Result, error) {
	if w.cfg.StatusURL == "" {
		return nil, ErrPollUnsupported
	}

	endpoint := strings.TrimRight(w.cfg.StatusURL, "/") + "/" + url.PathEscape(jobRef)
	raw, err := w.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		w.logger.Warn("extraction.poll.http_error", "job_ref", jobRef, "error", err)
		return nil, err
	}

	result, err := w.interpret(raw)
	if err != nil {
		return nil, err
	}
	if result.JobRef == "" {
		result.JobRef = jobRef
	}
	return result, nil
}

func (w *Webhook) interpret(raw []byte) (*Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return &Result{State: StateAccepted}, nil
	}

	var cb Callback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, fmt.Errorf("%w: decode provider response: %w", ErrProviderUnavailable, err)
	}

	return cb.Result(), nil
}

func (w *Webhook) do(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, truncate(string(data), 200))
	}

	return data, nil
}

// Callback is the provider's completion notice, delivered either as a
// callback request body or as a job status response. Both snake_case and
// camelCase field names are accepted.
type Callback struct {
	DocumentID    string
	Status        string
	JobID         string
	ExtractedData json.RawMessage
	ErrorMessage  string
	IdentityHint  string
	Reviewed      bool
}

type callbackWire struct {
	DocumentID       string          `json:"document_id"`
	DocumentIDAlt    string          `json:"documentId"`
	Status           string          `json:"status"`
	JobID            string          `json:"job_id"`
	JobIDAlt         string          `json:"jobId"`
	ExtractedData    json.RawMessage `json:"extracted_data"`
	ExtractedPayload json.RawMessage `json:"extractedPayload"`
	ErrorMessage     string          `json:"error_message"`
	ErrorMessageAlt  string          `json:"errorMessage"`
	ClientCPF        string          `json:"client_cpf"`
	IdentityHint     string          `json:"identityHint"`
	Reviewed         bool            `json:"reviewed"`
}

func (c *Callback) UnmarshalJSON(data []byte) error {
	var w callbackWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*c = Callback{
		DocumentID:    firstNonEmpty(w.DocumentID, w.DocumentIDAlt),
		Status:        strings.ToLower(strings.TrimSpace(w.Status)),
		JobID:         firstNonEmpty(w.JobID, w.JobIDAlt),
		ExtractedData: w.ExtractedData,
		ErrorMessage:  firstNonEmpty(w.ErrorMessage, w.ErrorMessageAlt),
		IdentityHint:  firstNonEmpty(w.ClientCPF, w.IdentityHint),
		Reviewed:      w.Reviewed,
	}
	if isNull(c.ExtractedData) {
		c.ExtractedData = w.ExtractedPayload
	}
	if isNull(c.ExtractedData) {
		c.ExtractedData = nil
	}
	return nil
}

// Result converts the notice into a provider result. A completed status
// without extracted data, and any status other than completed, error or
// failed, is treated as still in progress.
func (c *Callback) Result() *Result {
	switch c.Status {
	case "completed", "success":
		if c.ExtractedData == nil {
			return &Result{State: StateAccepted, JobRef: c.JobID}
		}
		return &Result{
			State:        StateCompleted,
			Text:         c.PayloadText(),
			JobRef:       c.JobID,
			IdentityHint: c.IdentityHint,
			Reviewed:     c.Reviewed,
		}
	case "error", "failed":
		msg := c.ErrorMessage
		if msg == "" {
			msg = "extraction failed"
		}
		return &Result{State: StateFailed, JobRef: c.JobID, Error: msg}
	default:
		return &Result{State: StateAccepted, JobRef: c.JobID}
	}
}

// PayloadText returns the extracted data as text. Providers that send the
// payload as a JSON string have it unquoted.
func (c *Callback) PayloadText() string {
	var s string
	if err := json.Unmarshal(c.ExtractedData, &s); err == nil {
		return s
	}
	return string(c.ExtractedData)
}

// CallbackChecksum computes hex(sha256(documentID + seed + body)).
func CallbackChecksum(seed, documentID string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(documentID))
	h.Write([]byte(seed))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyCallback checks a callback checksum. An empty seed disables
// verification.
func VerifyCallback(seed, checksum, documentID string, body []byte) error {
	if seed == "" {
		return nil
	}
	want := CallbackChecksum(seed, documentID, body)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(checksum)), []byte(want)) != 1 {
		return ErrInvalidChecksum
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
