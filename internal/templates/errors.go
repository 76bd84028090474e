package templates

import (
	"errors"
	"net/http"

	"github.com/nexliaai/corretor/internal/extraction"
)

// Domain errors for template operations.
var (
	ErrNotFound  = errors.New("template not found")
	ErrDuplicate = errors.New("template name already exists")
	ErrInvalid   = errors.New("template name and instructions are required")
)

// MapHTTPStatus maps template domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalid) || errors.Is(err, extraction.ErrInvalidCategory) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
