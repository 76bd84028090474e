package parties

import (
	"errors"
	"net/http"
)

// Domain errors for party operations.
var (
	ErrNotFound     = errors.New("party not found")
	ErrDuplicate    = errors.New("party already exists")
	ErrInvalidTaxID = errors.New("invalid tax id")
	ErrInvalidName  = errors.New("display name is required")
	ErrInUse        = errors.New("party still owns documents or policy records")
)

// MapHTTPStatus maps party domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrInUse):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTaxID), errors.Is(err, ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
