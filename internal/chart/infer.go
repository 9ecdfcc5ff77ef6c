// Package chart infers a chart type and axis bindings from a result
// relation and the originating query text, with no user input.
//
// The policy is an ordered rule list evaluated first-match-wins, which keeps
// the heuristics auditable and testable in isolation from rendering.
package chart

import (
	"strings"

	"github.com/sqlplot/sqlplot/internal/relation"
)

// Type identifies the inferred chart shape.
type Type string

const (
	Line    Type = "line"
	Bar     Type = "bar"
	Pie     Type = "pie"
	Scatter Type = "scatter"
)

// pieRowLimit is the largest result that still reads well as a pie.
const pieRowLimit = 10

// Spec binds a chart type to columns of the result relation. For pie charts
// X is the label column and Y the value column. SeriesKey, when set, names a
// categorical column whose values split rows into independently drawn
// traces.
type Spec struct {
	Type      Type   `json:"type"`
	X         string `json:"x"`
	Y         string `json:"y"`
	SeriesKey string `json:"seriesKey,omitempty"`
	Title     string `json:"title"`
}

// Trace is one named series of points extracted from the relation.
type Trace struct {
	Name string `json:"name"`
	X    []any  `json:"x"`
	Y    []any  `json:"y"`
}

// classified caches the per-kind column partition used by the rules.
type classified struct {
	rel         *relation.Relation
	temporal    []string
	numeric     []string
	categorical []string
	grouped     bool
	aggregated  bool
}

func classify(rel *relation.Relation, queryText string) classified {
	c := classified{rel: rel}
	for _, col := range rel.Cols {
		switch rel.ColumnKind(col) {
		case relation.KindTemporal:
			c.temporal = append(c.temporal, col)
		case relation.KindNumeric:
			c.numeric = append(c.numeric, col)
		default:
			c.categorical = append(c.categorical, col)
		}
	}
	upper := strings.ToUpper(queryText)
	c.grouped = strings.Contains(upper, "GROUP BY")
	for _, fn := range []string{"COUNT(", "SUM(", "AVG(", "MIN(", "MAX("} {
		if strings.Contains(upper, fn) {
			c.aggregated = true
			break
		}
	}
	return c
}

// rule is one entry of the inference policy. Rules are tried in order and
// the first match wins.
type rule struct {
	name  string
	match func(c classified) bool
	build func(c classified) Spec
}

var rules = []rule{
	{
		name: "time series",
		match: func(c classified) bool {
			return len(c.temporal) > 0 && len(c.numeric) > 0
		},
		build: func(c classified) Spec {
			s := Spec{Type: Line, X: c.temporal[0], Y: c.numeric[0]}
			if len(c.categorical) >= 2 {
				s.SeriesKey = c.categorical[1]
			}
			return s
		},
	},
	{
		name: "grouped aggregate",
		match: func(c classified) bool {
			return c.grouped && c.aggregated
		},
		build: func(c classified) Spec {
			s := Spec{Type: Bar}
			if len(c.categorical) > 0 {
				s.X = c.categorical[0]
			} else {
				s.X = colAt(c.rel, 0)
			}
			if len(c.numeric) > 0 {
				s.Y = c.numeric[0]
			} else {
				s.Y = colAt(c.rel, 1)
			}
			return s
		},
	},
	{
		name: "small categorical breakdown",
		match: func(c classified) bool {
			return len(c.numeric) == 1 && len(c.categorical) >= 1 && len(c.rel.Rows) <= pieRowLimit
		},
		build: func(c classified) Spec {
			return Spec{Type: Pie, X: c.categorical[0], Y: c.numeric[0]}
		},
	},
	{
		name: "numeric pair",
		match: func(c classified) bool {
			return len(c.numeric) >= 2
		},
		build: func(c classified) Spec {
			s := Spec{Type: Scatter, X: c.numeric[0], Y: c.numeric[1]}
			if len(c.categorical) > 0 {
				s.SeriesKey = c.categorical[0]
			}
			return s
		},
	},
	{
		name: "positional fallback",
		match: func(c classified) bool { return true },
		build: func(c classified) Spec {
			return Spec{Type: Scatter, X: colAt(c.rel, 0), Y: colAt(c.rel, 1)}
		},
	},
}

func colAt(rel *relation.Relation, i int) string {
	if i < len(rel.Cols) {
		return rel.Cols[i]
	}
	if len(rel.Cols) > 0 {
		return rel.Cols[len(rel.Cols)-1]
	}
	return ""
}

// Infer selects a chart for the relation. The query text only contributes
// the GROUP BY / aggregate presence checks.
func Infer(rel *relation.Relation, queryText string) Spec {
	c := classify(rel, queryText)
	for _, r := range rules {
		if r.match(c) {
			s := r.build(c)
			s.Title = title(s, c)
			return s
		}
	}
	return Spec{}
}

// title derives a caption purely from the chosen axis names and clause
// presence.
func title(s Spec, c classified) string {
	if s.Y == "" {
		return s.X
	}
	switch {
	case c.grouped:
		return s.Y + " by " + s.X
	case strings.Contains(strings.ToLower(s.X), "year"):
		return s.Y + " Over Time"
	default:
		return s.Y + " vs " + s.X
	}
}

// Traces partitions the relation into named series for rendering. With no
// series key the whole relation is a single trace named after the y column.
func Traces(rel *relation.Relation, s Spec) []Trace {
	if s.SeriesKey == "" {
		return []Trace{{Name: s.Y, X: rel.Column(s.X), Y: rel.Column(s.Y)}}
	}
	var order []string
	byKey := map[string]*Trace{}
	for _, row := range rel.Rows {
		key := relation.FormatValue(row[s.SeriesKey])
		tr, ok := byKey[key]
		if !ok {
			tr = &Trace{Name: key}
			byKey[key] = tr
			order = append(order, key)
		}
		tr.X = append(tr.X, row[s.X])
		tr.Y = append(tr.Y, row[s.Y])
	}
	out := make([]Trace, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}
