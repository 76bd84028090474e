package parties

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/pkg/query"
	"github.com/nexliaai/corretor/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "parties", "p").
	Project("id", "ID").
	Project("kind", "Kind").
	Project("tax_id", "TaxID").
	Project("display_name", "DisplayName").
	Project("email", "Email").
	Project("phone", "Phone").
	Project("address", "Address").
	Project("address_number", "Number").
	Project("address_extra", "Extra").
	Project("postal_code", "PostalCode").
	Project("city", "City").
	Project("country", "Country").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "DisplayName"}

// Filters contains optional filtering criteria for party queries.
type Filters struct {
	Kind        *string `json:"kind,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	City        *string `json:"city,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Kind", f.Kind).
		WhereContains("DisplayName", f.DisplayName).
		WhereContains("City", f.City)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if k := values.Get("kind"); k != "" {
		f.Kind = &k
	}
	if n := values.Get("display_name"); n != "" {
		f.DisplayName = &n
	}
	if c := values.Get("city"); c != "" {
		f.City = &c
	}

	return f
}

func scanParty(s repository.Scanner) (Party, error) {
	var p Party
	err := s.Scan(
		&p.ID,
		&p.Kind,
		&p.TaxID,
		&p.DisplayName,
		&p.Email,
		&p.Phone,
		&p.Address,
		&p.Number,
		&p.Extra,
		&p.PostalCode,
		&p.City,
		&p.Country,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

type statsRow struct {
	id uuid.UUID
	Stats
}

func scanStats(s repository.Scanner) (statsRow, error) {
	var row statsRow
	err := s.Scan(&row.id, &row.Documents, &row.Policies)
	return row, err
}
