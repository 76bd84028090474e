// Package config loads corretor configuration from config.toml, an optional
// per-environment overlay, and CORRETOR_* environment variables, in that
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/nexliaai/corretor/pkg/database"
	"github.com/nexliaai/corretor/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCorretorEnv             = "CORRETOR_ENV"
	EnvCorretorConfigDir       = "CORRETOR_CONFIG_DIR"
	EnvCorretorShutdownTimeout = "CORRETOR_SHUTDOWN_TIMEOUT"
	EnvCorretorVersion         = "CORRETOR_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "CORRETOR_DB_HOST",
	Port:            "CORRETOR_DB_PORT",
	Name:            "CORRETOR_DB_NAME",
	User:            "CORRETOR_DB_USER",
	Password:        "CORRETOR_DB_PASSWORD",
	SSLMode:         "CORRETOR_DB_SSL_MODE",
	MaxOpenConns:    "CORRETOR_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CORRETOR_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CORRETOR_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CORRETOR_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "CORRETOR_STORAGE_PROVIDER",
	Bucket:           "CORRETOR_STORAGE_BUCKET",
	Endpoint:         "CORRETOR_STORAGE_ENDPOINT",
	AccessKey:        "CORRETOR_STORAGE_ACCESS_KEY",
	SecretKey:        "CORRETOR_STORAGE_SECRET_KEY",
	UseSSL:           "CORRETOR_STORAGE_USE_SSL",
	Region:           "CORRETOR_STORAGE_REGION",
	ConnectionString: "CORRETOR_STORAGE_CONNECTION_STRING",
	PresignTTL:       "CORRETOR_STORAGE_PRESIGN_TTL",
}

type Config struct {
	Server          ServerConfig     `toml:"server"`
	Logging         LoggingConfig    `toml:"logging"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Extraction      ExtractionConfig `toml:"extraction"`
	Pipeline        PipelineConfig   `toml:"pipeline"`
	MCP             MCPConfig        `toml:"mcp"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`

	// Sources lists the files that were read, base first.
	Sources []string `toml:"-"`
	// Unknown lists dotted keys present in a file but not recognized.
	// They are ignored; the server logs them at startup.
	Unknown []string `toml:"-"`
}

// Env returns CORRETOR_ENV, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCorretorEnv); env != "" {
		return env
	}
	return "local"
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads configuration from CORRETOR_CONFIG_DIR, or the working
// directory when unset.
func Load() (*Config, error) {
	dir := os.Getenv(EnvCorretorConfigDir)
	if dir == "" {
		dir = "."
	}
	return LoadDir(dir)
}

// LoadDir reads config.toml and the config.<env>.toml overlay from dir.
// Both files are optional; without them defaults and the environment
// supply every value.
func LoadDir(dir string) (*Config, error) {
	cfg := &Config{}

	base := filepath.Join(dir, BaseConfigFile)
	if err := cfg.decodeFile(base); err != nil {
		return nil, err
	}

	if env := os.Getenv(EnvCorretorEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		overlay := &Config{}
		if err := overlay.decodeFile(path); err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
		cfg.Sources = append(cfg.Sources, overlay.Sources...)
		cfg.Unknown = append(cfg.Unknown, overlay.Unknown...)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sections.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Extraction.Merge(&overlay.Extraction)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.MCP.Merge(&overlay.MCP)
}

func (c *Config) finalize() error {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if v := os.Getenv(EnvCorretorShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCorretorVersion); v != "" {
		c.Version = v
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"logging", c.Logging.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"extraction", c.Extraction.Finalize},
		{"pipeline", c.Pipeline.Finalize},
		{"mcp", c.MCP.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// decodeFile decodes path into c when it exists. Unrecognized keys are
// collected into Unknown rather than failing the load.
func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	err = dec.Decode(c)

	var strict *toml.StrictMissingError
	switch {
	case errors.As(err, &strict):
		for _, e := range strict.Errors {
			c.Unknown = append(c.Unknown, filepath.Base(path)+":"+strings.Join(e.Key(), "."))
		}
	case err != nil:
		return fmt.Errorf("parse config: %w", err)
	}

	c.Sources = append(c.Sources, path)
	return nil
}
