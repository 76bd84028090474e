package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/config"
)

// State is the outcome kind reported by a provider.
type State string

const (
	StateCompleted State = "completed"
	StateAccepted  State = "accepted"
	StateFailed    State = "failed"
)

// Terminal reports whether the state ends the extraction attempt.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Submission describes one stored document handed to a provider.
type Submission struct {
	DocumentID   uuid.UUID
	Category     Category
	Filename     string
	ContentType  string
	Size         int64
	StorageKey   string
	FileURL      string
	Instructions string
}

// Result is a provider response. Completed results carry the payload text,
// accepted results carry the job reference to track.
type Result struct {
	State        State
	Text         string
	JobRef       string
	IdentityHint string
	Reviewed     bool
	Error        string
}

// Provider submits documents for extraction.
type Provider interface {
	Name() string
	Submit(ctx context.Context, s Submission) (*Result, error)
}

// JobPoller is implemented by providers that expose job status queries.
type JobPoller interface {
	Poll(ctx context.Context, jobRef string) (*Result, error)
}

// New creates the provider selected by cfg.Provider.
func New(cfg *config.ExtractionConfig, logger *slog.Logger) (Provider, error) {
	client := &http.Client{Timeout: cfg.TimeoutDuration()}

	switch cfg.Provider {
	case config.ProviderWebhook:
		return NewWebhook(&cfg.Webhook, client, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAI(&cfg.OpenAI, client, logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrProviderTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %w", ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}
