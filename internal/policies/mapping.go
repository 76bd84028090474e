package policies

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/pkg/query"
	"github.com/nexliaai/corretor/pkg/repository"
)

var projection = newProjection()

// newProjection maps the fixed columns by Go name and each typed field
// column by its own name.
func newProjection() *query.ProjectionMap {
	p := query.
		NewProjectionMap("public", "auto_policies", "a").
		Project("id", "ID").
		Project("document_id", "DocumentID").
		Project("party_id", "PartyID").
		Project("party_kind", "PartyKind").
		Project("category", "Category").
		Project("extra", "Extra").
		Project("created_at", "CreatedAt").
		Project("updated_at", "UpdatedAt")

	for _, col := range Columns() {
		p.Project(col, col)
	}

	return p.
		Join("public", "parties", "p", "LEFT JOIN", "a.party_id = p.id").
		Project("display_name", "PartyName")
}

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for policy queries.
// Text filters use contains matching; the validity window bounds fim_vigencia.
type Filters struct {
	PartyID       *uuid.UUID           `json:"party_id,omitempty"`
	Category      *extraction.Category `json:"category,omitempty"`
	NumeroApolice *string              `json:"numero_apolice,omitempty"`
	Seguradora    *string              `json:"seguradora,omitempty"`
	Placa         *string              `json:"placa,omitempty"`
	VigenteDe     *time.Time           `json:"vigente_de,omitempty"`
	VigenteAte    *time.Time           `json:"vigente_ate,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("PartyID", f.PartyID).
		WhereEquals("Category", f.Category).
		WhereContains("numero_apolice", f.NumeroApolice).
		WhereContains("seguradora_nome", f.Seguradora).
		WhereContains("veiculo_placa", f.Placa).
		WhereRange("fim_vigencia", f.VigenteDe, f.VigenteAte)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Dates use YYYY-MM-DD.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if pid := values.Get("party_id"); pid != "" {
		if id, err := uuid.Parse(pid); err == nil {
			f.PartyID = &id
		}
	}
	if c := values.Get("category"); c != "" {
		category := extraction.Category(c)
		f.Category = &category
	}
	if n := values.Get("numero_apolice"); n != "" {
		f.NumeroApolice = &n
	}
	if s := values.Get("seguradora"); s != "" {
		f.Seguradora = &s
	}
	if p := values.Get("placa"); p != "" {
		f.Placa = &p
	}
	if d := values.Get("vigente_de"); d != "" {
		if t, err := time.Parse(time.DateOnly, d); err == nil {
			f.VigenteDe = &t
		}
	}
	if d := values.Get("vigente_ate"); d != "" {
		if t, err := time.Parse(time.DateOnly, d); err == nil {
			f.VigenteAte = &t
		}
	}

	return f
}

func scanPolicy(s repository.Scanner) (Policy, error) {
	var (
		p     Policy
		extra []byte
	)

	dest := []any{
		&p.ID,
		&p.DocumentID,
		&p.PartyID,
		&p.PartyKind,
		&p.Category,
		&extra,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	dest = append(dest, fieldTargets(&p.AutoPolicyFields)...)
	dest = append(dest, &p.PartyName)

	err := s.Scan(dest...)
	if len(extra) > 0 {
		p.Extra = extra
	}
	return p, err
}
