package storage_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nexliaai/corretor/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=corretorstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/corretorstore;"

func TestNewReturnsSystem(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{
			name: "minio",
			cfg: storage.Config{
				Provider:  storage.ProviderMinio,
				Bucket:    "documentos",
				Endpoint:  "localhost:9000",
				AccessKey: "minioadmin",
				SecretKey: "minioadmin",
			},
		},
		{
			name: "azure",
			cfg: storage.Config{
				Provider:         storage.ProviderAzure,
				Bucket:           "documentos",
				ConnectionString: azuriteConnString,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := storage.New(&tt.cfg, slog.Default())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if sys == nil {
				t.Fatal("New() returned nil system")
			}
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{
			name: "invalid azure connection string",
			cfg: storage.Config{
				Provider:         storage.ProviderAzure,
				Bucket:           "documentos",
				ConnectionString: "not-a-connection-string",
			},
		},
		{
			name: "unknown provider",
			cfg:  storage.Config{Provider: "gcs", Bucket: "documentos"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := storage.New(&tt.cfg, slog.Default()); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ErrNotFound maps to 404", storage.ErrNotFound, http.StatusNotFound},
		{"ErrEmptyKey maps to 400", storage.ErrEmptyKey, http.StatusBadRequest},
		{"ErrInvalidKey maps to 400", storage.ErrInvalidKey, http.StatusBadRequest},
		{"wrapped ErrNotFound maps to 404", fmt.Errorf("operation failed: %w", storage.ErrNotFound), http.StatusNotFound},
		{"backend failure maps to 503", fmt.Errorf("connection refused"), http.StatusServiceUnavailable},
		{"backend timeout maps to 504", fmt.Errorf("put: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKeyValidation(t *testing.T) {
	cfg := &storage.Config{
		Provider:  storage.ProviderMinio,
		Bucket:    "documentos",
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}

	sys, err := storage.New(cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", storage.ErrEmptyKey},
		{"path traversal", "apolice/../secrets/key", storage.ErrInvalidKey},
		{"double dot in middle", "apolice/..hidden/file.pdf", storage.ErrInvalidKey},
		{"leading slash", "/apolice/file.pdf", storage.ErrInvalidKey},
		{"backslash", `apolice\file.pdf`, storage.ErrInvalidKey},
		{"control character", "apolice/file\n.pdf", storage.ErrInvalidKey},
		{"too long", "apolice/" + strings.Repeat("a", 1024), storage.ErrInvalidKey},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sys.Upload(ctx, tt.key, bytes.NewReader(nil), 0, "application/pdf")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Upload() error = %v, want %v", err, tt.wantErr)
			}

			_, err = sys.Download(ctx, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Download() error = %v, want %v", err, tt.wantErr)
			}

			err = sys.Delete(ctx, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete() error = %v, want %v", err, tt.wantErr)
			}

			_, err = sys.Exists(ctx, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Exists() error = %v, want %v", err, tt.wantErr)
			}

			_, err = sys.PresignedURL(ctx, tt.key, time.Hour)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PresignedURL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
