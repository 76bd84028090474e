// Package extraction defines the extraction provider capability: per-category
// templates and schemas, the typed payload union, response parsing, and the
// provider clients that turn a stored document into structured data.
package extraction

import (
	"regexp"
	"slices"
)

// Category is the document-type tag selecting the extraction template.
type Category string

// Built-in categories. Any other well-formed tag is extracted with the
// generic template.
const (
	CategoryAutoPolicy Category = "apolice_auto"
	CategoryPolicy     Category = "apolice"
)

var (
	categories      = []Category{CategoryAutoPolicy, CategoryPolicy}
	categoryPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// Categories returns the categories with a dedicated template.
func Categories() []Category {
	return categories
}

// ParseCategory validates a category tag.
func ParseCategory(s string) (Category, error) {
	if !categoryPattern.MatchString(s) {
		return "", ErrInvalidCategory
	}
	return Category(s), nil
}

// Known reports whether c has a dedicated template.
func (c Category) Known() bool {
	return slices.Contains(categories, c)
}

// RecordBearing reports whether confirming a document of this category
// writes a structured policy record.
func (c Category) RecordBearing() bool {
	return c == CategoryAutoPolicy || c == CategoryPolicy
}
