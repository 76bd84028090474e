package query_test

import (
	"reflect"
	"testing"

	"github.com/nexliaai/corretor/pkg/query"
)

const selectParties = "SELECT p.id, p.display_name, p.created_at FROM public.parties p"

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "parties", "p").
		Project("id", "id").
		Project("display_name", "display_name").
		Project("created_at", "createdAt")
}

func ptr(s string) *string { return &s }

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	if got := p.Table(); got != "public.parties p" {
		t.Errorf("Table() = %q", got)
	}
	if got := p.Alias(); got != "p" {
		t.Errorf("Alias() = %q", got)
	}
	if got := p.Columns(); got != "p.id, p.display_name, p.created_at" {
		t.Errorf("Columns() = %q", got)
	}
	want := []string{"p.id", "p.display_name", "p.created_at"}
	if got := p.ColumnList(); !reflect.DeepEqual(got, want) {
		t.Errorf("ColumnList() = %v, want %v", got, want)
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
		mapped   bool
	}{
		{"mapped field", "display_name", "p.display_name", true},
		{"mapped camel", "createdAt", "p.created_at", true},
		{"case insensitive", "CREATEDAT", "p.created_at", true},
		{"unmapped passthrough", "unknown", "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
			if _, ok := p.Lookup(tt.viewName); ok != tt.mapped {
				t.Errorf("Lookup(%q) mapped = %v, want %v", tt.viewName, ok, tt.mapped)
			}
		})
	}
}

func TestProjectionMapReproject(t *testing.T) {
	p := testProjection().Project("legal_name", "display_name")

	if got := p.Column("display_name"); got != "p.legal_name" {
		t.Errorf("Column(display_name) = %q, want p.legal_name", got)
	}
	if n := len(p.ColumnList()); n != 3 {
		t.Errorf("column count = %d, want 3", n)
	}
}

func TestProjectionMapJoin(t *testing.T) {
	p := query.NewProjectionMap("public", "documents", "d").
		Project("id", "ID").
		Join("public", "parties", "p", "LEFT JOIN", "d.party_id = p.id").
		Project("display_name", "PartyName")

	if got := p.Column("PartyName"); got != "p.display_name" {
		t.Errorf("Column(PartyName) = %q, want p.display_name", got)
	}

	wantFrom := "public.documents d LEFT JOIN public.parties p ON d.party_id = p.id"
	if got := p.From(); got != wantFrom {
		t.Errorf("From() = %q, want %q", got, wantFrom)
	}

	sql, _ := query.NewBuilder(p).BuildSingle("ID", "abc")
	if want := "SELECT d.id, p.display_name FROM " + wantFrom + " WHERE d.id = $1"; sql != want {
		t.Errorf("BuildSingle() sql = %q, want %q", sql, want)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty string", "", nil},
		{"single ascending", "name", []query.SortField{{Field: "name"}}},
		{"explicit ascending", "+name", []query.SortField{{Field: "name"}}},
		{"single descending", "-createdAt", []query.SortField{{Field: "createdAt", Descending: true}}},
		{"multiple mixed", " name , -createdAt ", []query.SortField{
			{Field: "name"},
			{Field: "createdAt", Descending: true},
		}},
		{"empty parts skipped", "name,,-,createdAt", []query.SortField{
			{Field: "name"},
			{Field: "createdAt"},
		}},
		{"duplicates keep first", "-name,name", []query.SortField{{Field: "name", Descending: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := query.ParseSortFields(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuilderStatements(t *testing.T) {
	desc := query.SortField{Field: "createdAt", Descending: true}

	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "build",
			build:   query.NewBuilder(testProjection()).Build,
			wantSQL: selectParties,
		},
		{
			name:    "count",
			build:   query.NewBuilder(testProjection()).BuildCount,
			wantSQL: "SELECT COUNT(*) FROM public.parties p",
		},
		{
			name:    "count ignores ordering",
			build:   query.NewBuilder(testProjection(), desc).WhereEquals("display_name", "Acme").BuildCount,
			wantSQL: "SELECT COUNT(*) FROM public.parties p WHERE p.display_name = $1",
			wantArgs: []any{"Acme"},
		},
		{
			name: "page",
			build: func() (string, []any) {
				return query.NewBuilder(testProjection(), desc).BuildPage(2, 10)
			},
			wantSQL: selectParties + " ORDER BY p.created_at DESC LIMIT 10 OFFSET 10",
		},
		{
			name: "page with conditions",
			build: func() (string, []any) {
				return query.NewBuilder(testProjection(), query.SortField{Field: "id"}).
					WhereContains("display_name", ptr("acme")).
					BuildPage(3, 25)
			},
			wantSQL:  selectParties + " WHERE p.display_name ILIKE $1 ORDER BY p.id ASC LIMIT 25 OFFSET 50",
			wantArgs: []any{"%acme%"},
		},
		{
			name: "page zero clamps offset",
			build: func() (string, []any) {
				return query.NewBuilder(testProjection()).BuildPage(0, 10)
			},
			wantSQL: selectParties + " LIMIT 10 OFFSET 0",
		},
		{
			name: "single ignores conditions",
			build: func() (string, []any) {
				return query.NewBuilder(testProjection()).
					WhereEquals("display_name", "Acme").
					BuildSingle("id", "abc-123")
			},
			wantSQL:  selectParties + " WHERE p.id = $1",
			wantArgs: []any{"abc-123"},
		},
		{
			name: "single or null",
			build: query.NewBuilder(testProjection()).
				WhereEquals("display_name", "Acme Ltda").
				WhereNotEquals("id", "placeholder").
				BuildSingleOrNull,
			wantSQL:  selectParties + " WHERE p.display_name = $1 AND p.id <> $2 LIMIT 1",
			wantArgs: []any{"Acme Ltda", "placeholder"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuilderConditions(t *testing.T) {
	tests := []struct {
		name     string
		apply    func(*query.Builder)
		where    string
		wantArgs []any
	}{
		{"equals", func(b *query.Builder) { b.WhereEquals("display_name", "Acme") }, " WHERE p.display_name = $1", []any{"Acme"}},
		{"equals nil skipped", func(b *query.Builder) { b.WhereEquals("display_name", nil) }, "", nil},
		{"equals typed nil skipped", func(b *query.Builder) { b.WhereEquals("id", (*string)(nil)) }, "", nil},
		{"contains", func(b *query.Builder) { b.WhereContains("display_name", ptr("test")) }, " WHERE p.display_name ILIKE $1", []any{"%test%"}},
		{"contains escapes wildcards", func(b *query.Builder) { b.WhereContains("display_name", ptr(`10%_off\`)) }, " WHERE p.display_name ILIKE $1", []any{`%10\%\_off\\%`}},
		{"contains nil skipped", func(b *query.Builder) { b.WhereContains("display_name", nil) }, "", nil},
		{"contains empty skipped", func(b *query.Builder) { b.WhereContains("display_name", ptr("")) }, "", nil},
		{"in", func(b *query.Builder) { b.WhereIn("id", []any{"a", "b", "c"}) }, " WHERE p.id IN ($1, $2, $3)", []any{"a", "b", "c"}},
		{"in empty skipped", func(b *query.Builder) { b.WhereIn("id", nil) }, "", nil},
		{"nullable nil", func(b *query.Builder) { b.WhereNullable("display_name", nil) }, " WHERE p.display_name IS NULL", nil},
		{"nullable value", func(b *query.Builder) { b.WhereNullable("display_name", "Acme") }, " WHERE p.display_name = $1", []any{"Acme"}},
		{"search", func(b *query.Builder) { b.WhereSearch(ptr("test"), "display_name", "id") }, " WHERE (p.display_name ILIKE $1 OR p.id ILIKE $2)", []any{"%test%", "%test%"}},
		{"search nil skipped", func(b *query.Builder) { b.WhereSearch(nil, "display_name") }, "", nil},
		{"range both", func(b *query.Builder) { b.WhereRange("createdAt", "2025-01-01", "2025-12-31") }, " WHERE p.created_at >= $1 AND p.created_at <= $2", []any{"2025-01-01", "2025-12-31"}},
		{"range lower", func(b *query.Builder) { b.WhereRange("createdAt", "2025-01-01", nil) }, " WHERE p.created_at >= $1", []any{"2025-01-01"}},
		{"range open", func(b *query.Builder) { b.WhereRange("createdAt", nil, nil) }, "", nil},
		{
			"numbering across conditions",
			func(b *query.Builder) {
				b.WhereEquals("display_name", "Acme").WhereIn("id", []any{"a", "b"}).WhereContains("id", ptr("abc"))
			},
			" WHERE p.display_name = $1 AND p.id IN ($2, $3) AND p.id ILIKE $4",
			[]any{"Acme", "a", "b", "%abc%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(testProjection())
			tt.apply(b)
			sql, args := b.Build()

			if want := selectParties + tt.where; sql != want {
				t.Errorf("sql = %q, want %q", sql, want)
			}
			if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuilderOrdering(t *testing.T) {
	tests := []struct {
		name     string
		defaults []query.SortField
		order    []query.SortField
		want     string
	}{
		{"none", nil, nil, ""},
		{"default", []query.SortField{{Field: "createdAt", Descending: true}}, nil, " ORDER BY p.created_at DESC"},
		{
			"override",
			[]query.SortField{{Field: "id"}},
			[]query.SortField{{Field: "createdAt", Descending: true}, {Field: "display_name"}},
			" ORDER BY p.created_at DESC, p.display_name ASC",
		},
		{
			"unmapped dropped",
			nil,
			[]query.SortField{{Field: "id; DROP TABLE parties"}, {Field: "id"}},
			" ORDER BY p.id ASC",
		},
		{
			"all unmapped falls back to default",
			[]query.SortField{{Field: "display_name"}},
			[]query.SortField{{Field: "nope"}},
			" ORDER BY p.display_name ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _ := query.NewBuilder(testProjection(), tt.defaults...).OrderByFields(tt.order).Build()
			if want := selectParties + tt.want; sql != want {
				t.Errorf("sql = %q, want %q", sql, want)
			}
		})
	}
}
