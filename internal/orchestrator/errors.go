package orchestrator

import (
	"errors"
	"net/http"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/internal/parties"
	"github.com/nexliaai/corretor/internal/policies"
)

// Domain errors for pipeline operations.
var (
	ErrInvalidStatus = errors.New("document is not in a valid status for this operation")
	ErrValidation    = errors.New("confirmation fields are invalid")
	ErrNotStarted    = errors.New("extraction pipeline is not running")
)

// MapHTTPStatus maps pipeline errors, including those of the systems the
// pipeline drives, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidStatus):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, policies.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotStarted):
		return http.StatusServiceUnavailable
	case errors.Is(err, documents.ErrNotFound), errors.Is(err, parties.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, policies.ErrPersistenceConflict):
		return http.StatusConflict
	case errors.Is(err, documents.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return extraction.MapHTTPStatus(err)
	}
}
