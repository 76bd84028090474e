package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Status delivery modes.
const (
	ModeCallback = "callback"
	ModePoll     = "poll"
)

// PipelineConfig tunes dispatch concurrency and status tracking.
// In poll mode the server watches accepted jobs itself; in callback mode
// completion arrives from the provider and clients poll the status endpoint.
type PipelineConfig struct {
	Mode         string `toml:"mode"`
	PollInterval string `toml:"poll_interval"`
	PollAttempts int    `toml:"poll_attempts"`
	Workers      int    `toml:"workers"`
	AutoConfirm  bool   `toml:"auto_confirm"`
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (c *PipelineConfig) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. AutoConfirm only turns on.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.PollAttempts != 0 {
		c.PollAttempts = overlay.PollAttempts
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.AutoConfirm {
		c.AutoConfirm = true
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModeCallback
	}
	if c.PollInterval == "" {
		c.PollInterval = "5s"
	}
	if c.PollAttempts == 0 {
		c.PollAttempts = 60
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv("CORRETOR_PIPELINE_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("CORRETOR_PIPELINE_POLL_INTERVAL"); v != "" {
		c.PollInterval = v
	}
	if v := os.Getenv("CORRETOR_PIPELINE_POLL_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollAttempts = n
		}
	}
	if v := os.Getenv("CORRETOR_PIPELINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("CORRETOR_PIPELINE_AUTO_CONFIRM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoConfirm = b
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.Mode != ModeCallback && c.Mode != ModePoll {
		return fmt.Errorf("invalid mode: %s", c.Mode)
	}
	if _, err := time.ParseDuration(c.PollInterval); err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	if c.PollAttempts < 1 {
		return fmt.Errorf("poll_attempts must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}
