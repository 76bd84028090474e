package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/nexliaai/corretor/pkg/formatting"
	"github.com/nexliaai/corretor/pkg/middleware"
	"github.com/nexliaai/corretor/pkg/pagination"
)

const (
	EnvAPIBasePath      = "CORRETOR_API_BASE_PATH"
	EnvAPIMaxUploadSize = "CORRETOR_API_MAX_UPLOAD_SIZE"

	defaultMaxUploadSize = 50 * 1024 * 1024
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CORRETOR_CORS_ENABLED",
	Origins:          "CORRETOR_CORS_ORIGINS",
	AllowedMethods:   "CORRETOR_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CORRETOR_CORS_ALLOWED_HEADERS",
	AllowCredentials: "CORRETOR_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CORRETOR_CORS_MAX_AGE",
}

var rateLimitEnv = &middleware.RateLimitEnv{
	Enabled:           "CORRETOR_RATE_LIMIT_ENABLED",
	RequestsPerSecond: "CORRETOR_RATE_LIMIT_RPS",
	Burst:             "CORRETOR_RATE_LIMIT_BURST",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "CORRETOR_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "CORRETOR_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig configures the REST module. MaxUploadSize is a size string such
// as "50MB" and bounds every multipart upload, batch uploads included.
type APIConfig struct {
	BasePath      string                     `toml:"base_path"`
	MaxUploadSize string                     `toml:"max_upload_size"`
	CORS          middleware.CORSConfig      `toml:"cors"`
	RateLimit     middleware.RateLimitConfig `toml:"rate_limit"`
	Pagination    pagination.Config          `toml:"pagination"`
}

// MaxUploadSizeBytes returns the upload cap, or 50MB when the value does
// not parse. Finalize rejects unparsable values, so the fallback only
// applies to unfinalized configs.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	if n, err := formatting.ParseBytes(c.MaxUploadSize); err == nil && n > 0 {
		return n
	}
	return defaultMaxUploadSize
}

func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = formatting.FormatBytes(defaultMaxUploadSize, 0)
	}
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}

	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single-level path: %s", c.BasePath)
	}
	if n, err := formatting.ParseBytes(c.MaxUploadSize); err != nil || n <= 0 {
		return fmt.Errorf("invalid max_upload_size %q", c.MaxUploadSize)
	}

	nested := []struct {
		name     string
		finalize func() error
	}{
		{"cors", func() error { return c.CORS.Finalize(corsEnv) }},
		{"rate_limit", func() error { return c.RateLimit.Finalize(rateLimitEnv) }},
		{"pagination", func() error { return c.Pagination.Finalize(paginationEnv) }},
	}
	for _, n := range nested {
		if err := n.finalize(); err != nil {
			return fmt.Errorf("%s: %w", n.name, err)
		}
	}
	return nil
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	c.CORS.Merge(&overlay.CORS)
	c.RateLimit.Merge(&overlay.RateLimit)
	c.Pagination.Merge(&overlay.Pagination)
}
