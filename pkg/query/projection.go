// Package query builds parameterized Postgres SELECT statements from a
// projection of view names onto qualified columns.
package query

import (
	"strings"
)

type column struct {
	view string
	ref  string
}

// ProjectionMap maps view names to alias-qualified columns for a base
// table and any joined tables.
type ProjectionMap struct {
	table string
	alias string
	scope string
	joins []string
	cols  []column
	index map[string]int
}

func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		table: schema + "." + table + " " + alias,
		alias: alias,
		scope: alias,
		index: make(map[string]int),
	}
}

// Join appends a joined table. Columns projected afterwards are qualified
// with the joined alias. Kind is the join keyword, e.g. "LEFT JOIN".
func (p *ProjectionMap) Join(schema, table, alias, kind, on string) *ProjectionMap {
	p.joins = append(p.joins, kind+" "+schema+"."+table+" "+alias+" ON "+on)
	p.scope = alias
	return p
}

// Project maps column in the current scope to viewName. Projecting the same
// view name again replaces the earlier mapping in place.
func (p *ProjectionMap) Project(col, viewName string) *ProjectionMap {
	ref := p.scope + "." + col
	if i, ok := p.index[viewName]; ok {
		p.cols[i].ref = ref
		return p
	}
	p.index[viewName] = len(p.cols)
	p.cols = append(p.cols, column{view: viewName, ref: ref})
	return p
}

func (p *ProjectionMap) Alias() string { return p.alias }

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string { return p.table }

// From returns the base table followed by its joins.
func (p *ProjectionMap) From() string {
	if len(p.joins) == 0 {
		return p.table
	}
	return p.table + " " + strings.Join(p.joins, " ")
}

// Lookup resolves a view name, falling back to a case-insensitive match.
func (p *ProjectionMap) Lookup(viewName string) (string, bool) {
	if i, ok := p.index[viewName]; ok {
		return p.cols[i].ref, true
	}
	for _, c := range p.cols {
		if strings.EqualFold(c.view, viewName) {
			return c.ref, true
		}
	}
	return "", false
}

// Column resolves a view name, returning the input unchanged when it is not
// mapped. Only trusted identifiers should reach the unmapped path.
func (p *ProjectionMap) Column(viewName string) string {
	if ref, ok := p.Lookup(viewName); ok {
		return ref
	}
	return viewName
}

func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ColumnList(), ", ")
}

func (p *ProjectionMap) ColumnList() []string {
	out := make([]string, len(p.cols))
	for i, c := range p.cols {
		out[i] = c.ref
	}
	return out
}
