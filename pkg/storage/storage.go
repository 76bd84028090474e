// Package storage stores document blobs on MinIO (S3-compatible) or Azure
// Blob Storage behind one interface.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/nexliaai/corretor/pkg/lifecycle"
)

// maxKeyLength is the S3 object key limit, also below Azure's blob name limit.
const maxKeyLength = 1024

// System is a blob store. Every key-taking method validates the key first
// and fails with ErrEmptyKey or ErrInvalidKey before touching the backend.
type System interface {
	// Start provisions the bucket or container on startup when it is absent.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams reader to key. Size is -1 when unknown.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Download opens key for reading; the caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// PresignedURL returns a read URL for key that expires after ttl.
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// New builds the client for cfg.Provider without contacting the backend.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderMinio:
		return newMinio(cfg, logger)
	case ProviderAzure:
		return newAzure(cfg, logger)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
}

// validateKey accepts relative, slash-separated keys. Traversal sequences,
// backslashes, and control characters are rejected.
func validateKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case len(key) > maxKeyLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLength)
	case strings.HasPrefix(key, "/"):
		return fmt.Errorf("%w: leading slash", ErrInvalidKey)
	case strings.Contains(key, ".."), strings.ContainsRune(key, '\\'):
		return ErrInvalidKey
	case strings.ContainsFunc(key, unicode.IsControl):
		return fmt.Errorf("%w: control character", ErrInvalidKey)
	}
	return nil
}
