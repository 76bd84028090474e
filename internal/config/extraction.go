package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Extraction provider names.
const (
	ProviderWebhook = "webhook"
	ProviderOpenAI  = "openai"
)

// ExtractionConfig selects and configures the external extraction provider.
type ExtractionConfig struct {
	Provider string        `toml:"provider"`
	Timeout  string        `toml:"timeout"`
	Webhook  WebhookConfig `toml:"webhook"`
	OpenAI   OpenAIConfig  `toml:"openai"`
}

// WebhookConfig configures a job/callback style provider reached over HTTP.
// CallbackSeed, when set, is mixed into the checksum verified on callbacks.
type WebhookConfig struct {
	URL          string `toml:"url"`
	StatusURL    string `toml:"status_url"`
	CallbackURL  string `toml:"callback_url"`
	CallbackSeed string `toml:"callback_seed"`
}

// OpenAIConfig configures an OpenAI-compatible chat completions provider.
type OpenAIConfig struct {
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	Model             string  `toml:"model"`
	MaxTokens         int     `toml:"max_tokens"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ExtractionConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ExtractionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ExtractionConfig) Merge(overlay *ExtractionConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}

	w := &overlay.Webhook
	if w.URL != "" {
		c.Webhook.URL = w.URL
	}
	if w.StatusURL != "" {
		c.Webhook.StatusURL = w.StatusURL
	}
	if w.CallbackURL != "" {
		c.Webhook.CallbackURL = w.CallbackURL
	}
	if w.CallbackSeed != "" {
		c.Webhook.CallbackSeed = w.CallbackSeed
	}

	o := &overlay.OpenAI
	if o.BaseURL != "" {
		c.OpenAI.BaseURL = o.BaseURL
	}
	if o.APIKey != "" {
		c.OpenAI.APIKey = o.APIKey
	}
	if o.Model != "" {
		c.OpenAI.Model = o.Model
	}
	if o.MaxTokens != 0 {
		c.OpenAI.MaxTokens = o.MaxTokens
	}
	if o.RequestsPerSecond != 0 {
		c.OpenAI.RequestsPerSecond = o.RequestsPerSecond
	}
}

func (c *ExtractionConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderWebhook
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 4096
	}
	if c.OpenAI.RequestsPerSecond == 0 {
		c.OpenAI.RequestsPerSecond = 1
	}
}

func (c *ExtractionConfig) loadEnv() {
	if v := os.Getenv("CORRETOR_EXTRACTION_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("CORRETOR_EXTRACTION_TIMEOUT"); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv("CORRETOR_WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("CORRETOR_WEBHOOK_STATUS_URL"); v != "" {
		c.Webhook.StatusURL = v
	}
	if v := os.Getenv("CORRETOR_WEBHOOK_CALLBACK_URL"); v != "" {
		c.Webhook.CallbackURL = v
	}
	if v := os.Getenv("CORRETOR_WEBHOOK_CALLBACK_SEED"); v != "" {
		c.Webhook.CallbackSeed = v
	}
	if v := os.Getenv("CORRETOR_OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("CORRETOR_OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("CORRETOR_OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("CORRETOR_OPENAI_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.OpenAI.MaxTokens = n
		}
	}
	if v := os.Getenv("CORRETOR_OPENAI_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.OpenAI.RequestsPerSecond = f
		}
	}
}

func (c *ExtractionConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	switch c.Provider {
	case ProviderWebhook:
		if c.Webhook.URL == "" {
			return fmt.Errorf("webhook.url required for webhook provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key required for openai provider")
		}
		if c.OpenAI.RequestsPerSecond <= 0 {
			return fmt.Errorf("openai.requests_per_second must be positive")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	return nil
}
