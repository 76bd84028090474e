package policies

import (
	"errors"
	"net/http"
)

// Domain errors for policy record operations.
var (
	ErrNotFound            = errors.New("policy record not found")
	ErrValidation          = errors.New("policy record validation failed")
	ErrPersistenceConflict = errors.New("policy record conflicts with stored data")
)

// MapHTTPStatus maps policy domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPersistenceConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
