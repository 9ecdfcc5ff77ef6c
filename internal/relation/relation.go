// Package relation defines the tabular value model shared by the query
// interpreter, chart inference and export stages.
//
// What: A Relation is an ordered sequence of rows over a fixed column list.
// Values are deliberately loose: float64 for numbers, string for text, nil
// for empty fields. Typing happens per value at parse time, not per column.
// How: Rows are maps keyed by the exact column name; the column slice keeps
// display and positional order (first column is the default x axis, second
// the default y axis).
package relation

import (
	"strconv"
	"strings"
)

// Row maps a column name to a scalar value: float64, string, or nil.
type Row map[string]any

// Relation is an ordered list of rows sharing a column schema. Column order
// matters for display and for positional chart-axis defaults.
type Relation struct {
	Cols []string
	Rows []Row
}

// Kind is the inferred semantic kind of a column, used only for chart
// inference. It is never enforced on the data itself.
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "temporal"
	default:
		return "categorical"
	}
}

// ParseValue converts a raw CSV field into a typed value. Non-empty fields
// that parse as a number become float64; empty fields become nil; everything
// else stays text.
func ParseValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}
	return s
}

// FormatValue renders a value in its canonical string form. Numbers use the
// shortest representation that round-trips; nil renders empty.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// IsNumber reports whether v holds a numeric value.
func IsNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

// ToNumber coerces a value to float64. Non-numeric values coerce to 0,
// matching the aggregate semantics of the interpreter.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return n
		}
	}
	return 0
}

// New returns an empty relation with the given column list.
func New(cols []string) *Relation {
	return &Relation{Cols: append([]string(nil), cols...)}
}

// Lookup resolves a column name case-insensitively against the relation's
// schema and returns the canonical name.
func (r *Relation) Lookup(name string) (string, bool) {
	for _, c := range r.Cols {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// ColumnKind classifies a column for chart inference. Temporal wins on name
// alone (contains "year", "date" or "time"); otherwise a column is numeric
// when it has at least one value and every non-nil value is a number.
func (r *Relation) ColumnKind(name string) Kind {
	if TemporalName(name) {
		return KindTemporal
	}
	seen := false
	for _, row := range r.Rows {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		if !IsNumber(v) {
			return KindCategorical
		}
		seen = true
	}
	if seen {
		return KindNumeric
	}
	return KindCategorical
}

// TemporalName reports whether a column name looks like a time axis.
func TemporalName(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "year") || strings.Contains(n, "date") || strings.Contains(n, "time")
}

// Column returns the values of one column in row order.
func (r *Relation) Column(name string) []any {
	out := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row[name]
	}
	return out
}
