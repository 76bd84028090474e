package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nexliaai/corretor/internal/config"
)

// OpenAI extracts through an OpenAI-compatible chat completions endpoint
// in JSON mode. Results are always inline.
type OpenAI struct {
	cfg     *config.OpenAIConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewOpenAI creates a chat completions provider throttled to
// cfg.RequestsPerSecond.
func NewOpenAI(cfg *config.OpenAIConfig, client *http.Client, logger *slog.Logger) *OpenAI {
	return &OpenAI{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger.With("provider", config.ProviderOpenAI),
	}
}

func (o *OpenAI) Name() string { return config.ProviderOpenAI }

// Submit sends the instructions and document reference in one completion
// request. Images are attached as image_url parts; other documents are
// referenced by their presigned URL in the text part.
func (o *OpenAI) Submit(ctx context.Context, s Submission) (*Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	o.logger.Info("extraction.submit.start",
		"req_id", rid,
		"document_id", s.DocumentID,
		"model", o.cfg.Model,
		"category", s.Category,
		"content_type", s.ContentType,
	)

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, transportError(err)
	}

	body := map[string]any{
		"model":           o.cfg.Model,
		"max_tokens":      o.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": s.Instructions},
			{"role": "user", "content": userContent(s)},
		},
	}

	endpoint := strings.TrimRight(o.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := o.post(ctx, endpoint, body)
	if err != nil {
		o.logger.Error("extraction.submit.http_error",
			"req_id", rid,
			"document_id", s.DocumentID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		o.logger.Error("extraction.submit.decode_error",
			"req_id", rid,
			"error", err,
			"raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return &Result{State: StateFailed, Text: string(raw), Error: "undecodable completion response"}, nil
	}
	if len(cc.Choices) == 0 {
		o.logger.Error("extraction.submit.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return &Result{State: StateFailed, Text: string(raw), Error: "no choices in completion response"}, nil
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	o.logger.Info("extraction.submit.ok",
		"req_id", rid,
		"document_id", s.DocumentID,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Result{State: StateCompleted, Text: content}, nil
}

func userContent(s Submission) []map[string]any {
	text := fmt.Sprintf("Arquivo: %s (%s). Retorne APENAS o JSON solicitado.", s.Filename, s.ContentType)

	if strings.HasPrefix(s.ContentType, "image/") {
		return []map[string]any{
			{"type": "text", "text": text},
			{"type": "image_url", "image_url": map[string]any{"url": s.FileURL}},
		}
	}

	return []map[string]any{
		{"type": "text", "text": text + "\nDocumento: " + s.FileURL},
	}
}

func (o *OpenAI) post(ctx context.Context, endpoint string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
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
