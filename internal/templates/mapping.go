package templates

import (
	"net/url"
	"strconv"

	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/pkg/query"
	"github.com/nexliaai/corretor/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "templates", "t").
	Project("id", "ID").
	Project("name", "Name").
	Project("category", "Category").
	Project("instructions", "Instructions").
	Project("description", "Description").
	Project("active", "Active")

var defaultSort = query.SortField{
	Field: "Name",
}

const returning = "id, name, category, instructions, description, active"

// Filters contains optional filtering criteria for template queries.
// Category and Active use exact matching, Name uses contains matching.
type Filters struct {
	Category *extraction.Category `json:"category,omitempty"`
	Name     *string              `json:"name,omitempty"`
	Active   *bool                `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Category", f.Category).
		WhereContains("Name", f.Name).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		category := extraction.Category(c)
		f.Category = &category
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if a := values.Get("active"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.Active = &v
		}
	}

	return f
}

func scanTemplate(s repository.Scanner) (Template, error) {
	var t Template
	err := s.Scan(
		&t.ID,
		&t.Name,
		&t.Category,
		&t.Instructions,
		&t.Description,
		&t.Active,
	)
	return t, err
}
