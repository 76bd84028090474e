package storage

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrNotFound            = errors.New("blob not found")
	ErrEmptyKey            = errors.New("storage key must not be empty")
	ErrInvalidKey          = errors.New("invalid storage key")
	ErrUnsupportedProvider = errors.New("unsupported storage provider")
)

// MapHTTPStatus maps storage errors to HTTP status codes. Any backend
// failure other than a missing blob or a timeout reads as unavailable.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusServiceUnavailable
}
