package storage

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported storage backends.
const (
	ProviderMinio = "minio"
	ProviderAzure = "azure"
)

// Config holds blob storage connection parameters for either backend.
// Endpoint, AccessKey, SecretKey, UseSSL, and Region apply to MinIO;
// ConnectionString applies to Azure Blob Storage.
type Config struct {
	Provider         string `toml:"provider"`
	Bucket           string `toml:"bucket"`
	Endpoint         string `toml:"endpoint"`
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	UseSSL           bool   `toml:"use_ssl"`
	Region           string `toml:"region"`
	ConnectionString string `toml:"connection_string"`
	PresignTTL       string `toml:"presign_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	Bucket           string
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UseSSL           string
	Region           string
	ConnectionString string
	PresignTTL       string
}

// PresignTTLDuration returns PresignTTL as a time.Duration.
func (c *Config) PresignTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.PresignTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. UseSSL only turns on.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AccessKey != "" {
		c.AccessKey = overlay.AccessKey
	}
	if overlay.SecretKey != "" {
		c.SecretKey = overlay.SecretKey
	}
	if overlay.UseSSL {
		c.UseSSL = true
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.PresignTTL != "" {
		c.PresignTTL = overlay.PresignTTL
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderMinio
	}
	if c.Bucket == "" {
		c.Bucket = "documentos"
	}
	if c.PresignTTL == "" {
		c.PresignTTL = "2h"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, target *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*target = v
		}
	}

	set(env.Provider, &c.Provider)
	set(env.Bucket, &c.Bucket)
	set(env.Endpoint, &c.Endpoint)
	set(env.AccessKey, &c.AccessKey)
	set(env.SecretKey, &c.SecretKey)
	set(env.Region, &c.Region)
	set(env.ConnectionString, &c.ConnectionString)
	set(env.PresignTTL, &c.PresignTTL)

	if env.UseSSL != "" {
		if v := os.Getenv(env.UseSSL); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.UseSSL = b
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket required")
	}
	if _, err := time.ParseDuration(c.PresignTTL); err != nil {
		return fmt.Errorf("invalid presign_ttl: %w", err)
	}

	switch c.Provider {
	case ProviderMinio:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint required for minio")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return fmt.Errorf("access_key and secret_key required for minio")
		}
	case ProviderAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required for azure")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, c.Provider)
	}
	return nil
}
