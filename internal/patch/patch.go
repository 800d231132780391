// Package patch turns a sparse client payload into a column-level UPDATE.
//
// A Patch is the decoded request body, kept in document order. A Table is a
// statically declared allow-list that says which external field names may be
// written, which column each one lands in, and whether writing it needs
// administrator rights. Table.Map filters a Patch through that list and
// returns Assignments: the "col = ?" fragments plus the matching arguments, in
// the same order as the input.
//
// Column names never come from the request. Only Column.Column values declared
// in Go source reach the SQL text, and every value travels as a bind argument.
package patch

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
)

// Field is one key/value pair of a patch.
type Field struct {
	Name  string
	Value any
}

// Patch is an ordered set of fields. Order is the order the keys appeared in
// the request body.
type Patch []Field

// FromJSON decodes a JSON object into a Patch, preserving key order. Nested
// objects and arrays are kept as decoded Go values and rejected later by
// Table.Validate.
func FromJSON(body []byte) (Patch, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperror.ValidationFailed("", "request body must be valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, apperror.ValidationFailed("", "request body must be a JSON object")
	}

	var p Patch
	doc.ForEach(func(key, value gjson.Result) bool {
		p = append(p, Field{Name: key.String(), Value: value.Value()})
		return true
	})
	return p, nil
}

// Get returns the last value given for name.
func (p Patch) Get(name string) (any, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Name == name {
			return p[i].Value, true
		}
	}
	return nil, false
}

// With returns a copy of p where every occurrence of name carries value.
// Positions are unchanged.
func (p Patch) With(name string, value any) Patch {
	out := make(Patch, len(p))
	copy(out, p)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
		}
	}
	return out
}

// Access says who may write a column.
type Access int

const (
	// Mutable columns may be written by the account owner.
	Mutable Access = iota
	// Privileged columns may only be written by an administrator.
	Privileged
)

// Kind is the JSON type a field value must have.
type Kind int

const (
	String Kind = iota
	Bool
)

func (k Kind) String() string {
	if k == Bool {
		return "boolean"
	}
	return "string"
}

// Column maps one external field name to a storage column.
type Column struct {
	Field  string
	Column string
	Kind   Kind
	Access Access
}

// Table is an allow-list of writable columns.
type Table []Column

func (t Table) lookup(field string) (Column, bool) {
	for _, c := range t {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks the value type of every allow-listed field. Unknown fields
// are not an error here; Map drops them.
func (t Table) Validate(p Patch) error {
	for _, f := range p {
		col, ok := t.lookup(f.Name)
		if !ok {
			continue
		}
		switch col.Kind {
		case Bool:
			if _, ok := f.Value.(bool); !ok {
				return apperror.ValidationFailed(f.Name, fmt.Sprintf("%s must be a %s", f.Name, col.Kind))
			}
		default:
			if _, ok := f.Value.(string); !ok {
				return apperror.ValidationFailed(f.Name, fmt.Sprintf("%s must be a %s", f.Name, col.Kind))
			}
		}
	}
	return nil
}

// Privileged reports whether p touches any Privileged column.
func (t Table) Privileged(p Patch) bool {
	for _, f := range p {
		if col, ok := t.lookup(f.Name); ok && col.Access == Privileged {
			return true
		}
	}
	return false
}

// Assignment is one "column = value" pair of an UPDATE.
type Assignment struct {
	Column string
	Value  any
}

// Assignments is the ordered SET list of an UPDATE.
type Assignments []Assignment

// SetClause renders "a = ?, b = ?". Placeholders are '?'; callers on other
// bind styles rebind the full statement.
func (a Assignments) SetClause() string {
	parts := make([]string, len(a))
	for i, as := range a {
		parts[i] = as.Column + " = ?"
	}
	return strings.Join(parts, ", ")
}

// Args returns the values in SetClause order.
func (a Assignments) Args() []any {
	args := make([]any, len(a))
	for i, as := range a {
		args[i] = as.Value
	}
	return args
}

// Columns lists the assigned columns in order.
func (a Assignments) Columns() []string {
	cols := make([]string, len(a))
	for i, as := range a {
		cols[i] = as.Column
	}
	return cols
}

// Map filters p through the table.
//
//   - An empty patch is a caller error (apperror.ErrValidation).
//   - Fields not in the table are dropped silently.
//   - A field given twice keeps its first position and its last value.
//
// The result may be empty when every field was unknown; deciding what that
// means is left to the caller.
func (t Table) Map(p Patch) (Assignments, error) {
	if len(p) == 0 {
		return nil, apperror.ValidationFailed("", "no fields to update")
	}

	var out Assignments
	pos := make(map[string]int, len(p))
	for _, f := range p {
		col, ok := t.lookup(f.Name)
		if !ok {
			continue
		}
		if i, seen := pos[col.Column]; seen {
			out[i].Value = f.Value
			continue
		}
		pos[col.Column] = len(out)
		out = append(out, Assignment{Column: col.Column, Value: f.Value})
	}
	return out, nil
}
