package extraction

import (
	"errors"
	"net/http"
)

// Domain errors for extraction operations.
var (
	ErrProviderUnavailable = errors.New("extraction provider unavailable")
	ErrProviderTimeout     = errors.New("extraction provider timed out")
	ErrMalformedExtraction = errors.New("malformed extraction")
	ErrInvalidCategory     = errors.New("category must match [a-z0-9_]+")
	ErrInvalidChecksum     = errors.New("invalid callback checksum")
	ErrPollUnsupported     = errors.New("provider does not support job polling")
)

// MapHTTPStatus maps extraction domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrProviderTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrMalformedExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidCategory):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidChecksum):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
