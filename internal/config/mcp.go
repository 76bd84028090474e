package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MCPConfig controls the Model Context Protocol tool endpoint.
type MCPConfig struct {
	Enabled  *bool  `toml:"enabled"`
	BasePath string `toml:"base_path"`
}

// IsEnabled reports whether the endpoint is mounted. Defaults to true.
func (c *MCPConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *MCPConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/mcp"
	}

	if v := os.Getenv("CORRETOR_MCP_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = &b
		}
	}
	if v := os.Getenv("CORRETOR_MCP_BASE_PATH"); v != "" {
		c.BasePath = v
	}

	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single-level path: %s", c.BasePath)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *MCPConfig) Merge(overlay *MCPConfig) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
}
