// Package templates manages named extraction instruction overrides per
// document category. At most one template per category is active; the
// active one replaces the built-in instructions when documents of that
// category are submitted for extraction.
package templates

import (
	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/extraction"
)

// Template is a named instruction override for a document category.
type Template struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Category     extraction.Category `json:"category"`
	Instructions string              `json:"instructions"`
	Description  *string             `json:"description"`
	Active       bool                `json:"active"`
}

// CreateCommand carries the data needed to create a template.
type CreateCommand struct {
	Name         string              `json:"name"`
	Category     extraction.Category `json:"category"`
	Instructions string              `json:"instructions"`
	Description  *string             `json:"description"`
}

// UpdateCommand carries the data needed to update a template.
type UpdateCommand struct {
	Name         string              `json:"name"`
	Category     extraction.Category `json:"category"`
	Instructions string              `json:"instructions"`
	Description  *string             `json:"description"`
}

func validate(name string, category extraction.Category, instructions string) error {
	if name == "" || instructions == "" {
		return ErrInvalid
	}
	if _, err := extraction.ParseCategory(string(category)); err != nil {
		return err
	}
	return nil
}
