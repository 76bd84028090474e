package policies

import (
	"reflect"
	"strings"
	"time"

	"github.com/nexliaai/corretor/internal/extraction"
)

// field maps one AutoPolicyFields member to its auto_policies column.
type field struct {
	column string
	index  int
}

var fieldSet = policyFields()

func policyFields() []field {
	t := reflect.TypeFor[extraction.AutoPolicyFields]()
	out := make([]field, 0, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		out = append(out, field{column: name, index: i})
	}
	return out
}

// Columns lists the typed field columns in declaration order.
func Columns() []string {
	cols := make([]string, len(fieldSet))
	for i, f := range fieldSet {
		cols[i] = f.column
	}
	return cols
}

// fieldValues returns the query arguments for f. Unset fields are typed nil
// pointers and bind as NULL.
func fieldValues(f *extraction.AutoPolicyFields) []any {
	v := reflect.ValueOf(f).Elem()
	args := make([]any, len(fieldSet))
	for i, fd := range fieldSet {
		args[i] = v.Field(fd.index).Interface()
	}
	return args
}

// fieldTargets returns scan destinations for f's fields.
func fieldTargets(f *extraction.AutoPolicyFields) []any {
	v := reflect.ValueOf(f).Elem()
	dest := make([]any, len(fieldSet))
	for i, fd := range fieldSet {
		dest[i] = v.Field(fd.index).Addr().Interface()
	}
	return dest
}

// cellValues renders f for a spreadsheet row.
func cellValues(f *extraction.AutoPolicyFields) []any {
	v := reflect.ValueOf(f).Elem()
	cells := make([]any, len(fieldSet))
	for i, fd := range fieldSet {
		cells[i] = cellValue(v.Field(fd.index).Interface())
	}
	return cells
}

func cellValue(v any) any {
	switch x := v.(type) {
	case *string:
		if x != nil {
			return *x
		}
	case *extraction.Amount:
		if x != nil {
			return float64(*x)
		}
	case *extraction.Count:
		if x != nil {
			return int(*x)
		}
	case *extraction.Date:
		if x != nil && !x.IsZero() {
			return x.Format(time.DateOnly)
		}
	case *extraction.Flag:
		if x != nil {
			if *x {
				return "Sim"
			}
			return "Não"
		}
	}
	return ""
}
