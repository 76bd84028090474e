package query

import (
	"reflect"
	"strconv"
	"strings"
)

// binder hands out positional placeholders in bind order.
type binder struct {
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// condition renders one WHERE term, binding its own arguments.
type condition func(*binder) string

// SortField is one ORDER BY term. Field is a view name resolved through the
// projection.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses "name,-createdAt" style input. A leading "-" sorts
// descending and a leading "+" is accepted as ascending. Repeated fields
// keep their first occurrence.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	seen := make(map[string]bool)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		desc := false
		if after, ok := strings.CutPrefix(part, "-"); ok {
			part, desc = after, true
		} else {
			part = strings.TrimPrefix(part, "+")
		}
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		fields = append(fields, SortField{Field: part, Descending: desc})
	}
	return fields
}

// Builder accumulates WHERE conditions and ordering for one projection.
// Conditions are ANDed in the order they were added.
type Builder struct {
	projection *ProjectionMap
	conditions []condition
	order      []SortField
	fallback   []SortField
}

func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{projection: projection, fallback: defaultSort}
}

func (b *Builder) Build() (string, []any) {
	return b.render(b.projection.Columns(), true, "")
}

func (b *Builder) BuildCount() (string, []any) {
	return b.render("COUNT(*)", false, "")
}

// BuildPage selects one page. Page is 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	offset := max(page-1, 0) * pageSize
	tail := " LIMIT " + strconv.Itoa(pageSize) + " OFFSET " + strconv.Itoa(offset)
	return b.render(b.projection.Columns(), true, tail)
}

// BuildSingle selects by a single key, ignoring accumulated conditions.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	single := &Builder{projection: b.projection}
	single.WhereEquals(idField, id)
	return single.render(b.projection.Columns(), false, "")
}

// BuildSingleOrNull selects at most one row matching the conditions.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	return b.render(b.projection.Columns(), false, " LIMIT 1")
}

// OrderByFields replaces the default ordering. Fields that do not resolve
// through the projection are dropped.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.order = fields
	return b
}

// WhereContains adds a case-insensitive substring match. LIKE wildcards in
// value match literally. No-op for nil or empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.WhereSearch(value, field)
}

func (b *Builder) WhereEquals(field string, value any) *Builder {
	return b.compare(field, "=", value)
}

func (b *Builder) WhereNotEquals(field string, value any) *Builder {
	return b.compare(field, "<>", value)
}

// WhereRange adds inclusive bounds. A nil bound is open.
func (b *Builder) WhereRange(field string, from, to any) *Builder {
	return b.compare(field, ">=", from).compare(field, "<=", to)
}

func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	col := b.projection.Column(field)
	b.conditions = append(b.conditions, func(bd *binder) string {
		ph := make([]string, len(values))
		for i, v := range values {
			ph[i] = bd.bind(v)
		}
		return col + " IN (" + strings.Join(ph, ", ") + ")"
	})
	return b
}

// WhereNullable matches value, or IS NULL when value is nil.
func (b *Builder) WhereNullable(field string, value any) *Builder {
	if isNil(value) {
		col := b.projection.Column(field)
		b.conditions = append(b.conditions, func(*binder) string {
			return col + " IS NULL"
		})
		return b
	}
	return b.WhereEquals(field, value)
}

// WhereSearch matches search as a substring of any of fields.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}
	pattern := "%" + escapeLike(*search) + "%"
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = b.projection.Column(f)
	}

	b.conditions = append(b.conditions, func(bd *binder) string {
		terms := make([]string, len(cols))
		for i, col := range cols {
			terms[i] = col + " ILIKE " + bd.bind(pattern)
		}
		if len(terms) == 1 {
			return terms[0]
		}
		return "(" + strings.Join(terms, " OR ") + ")"
	})
	return b
}

func (b *Builder) compare(field, op string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.Column(field)
	b.conditions = append(b.conditions, func(bd *binder) string {
		return col + " " + op + " " + bd.bind(value)
	})
	return b
}

func (b *Builder) render(selection string, ordered bool, tail string) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selection)
	sb.WriteString(" FROM ")
	sb.WriteString(b.projection.From())

	bd := &binder{}
	for i, cond := range b.conditions {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(cond(bd))
	}

	if ordered {
		sb.WriteString(b.orderBy())
	}
	sb.WriteString(tail)
	return sb.String(), bd.args
}

func (b *Builder) orderBy() string {
	terms := b.resolve(b.order)
	if len(terms) == 0 {
		terms = b.resolve(b.fallback)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

func (b *Builder) resolve(fields []SortField) []string {
	var terms []string
	for _, f := range fields {
		col, ok := b.projection.Lookup(f.Field)
		if !ok {
			continue
		}
		if f.Descending {
			terms = append(terms, col+" DESC")
		} else {
			terms = append(terms, col+" ASC")
		}
	}
	return terms
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
