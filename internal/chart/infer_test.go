// Tests for the chart inference policy. Each test pins one rule of the
// ordered list against a small relation shape.
package chart

import (
	"testing"

	"github.com/sqlplot/sqlplot/internal/relation"
)

func rel(cols []string, rows ...relation.Row) *relation.Relation {
	r := relation.New(cols)
	r.Rows = rows
	return r
}

// TestInfer_TimeSeries: a temporal-named column plus a numeric column
// selects a line chart regardless of grouping.
func TestInfer_TimeSeries(t *testing.T) {
	r := rel([]string{"year", "gdp"},
		relation.Row{"year": float64(2000), "gdp": float64(1.2)},
		relation.Row{"year": float64(2001), "gdp": float64(1.4)},
	)
	s := Infer(r, "SELECT year, gdp FROM wdi")
	if s.Type != Line {
		t.Fatalf("type = %v, want line", s.Type)
	}
	if s.X != "year" || s.Y != "gdp" {
		t.Errorf("bindings x=%q y=%q, want year/gdp", s.X, s.Y)
	}
	if s.Title != "gdp Over Time" {
		t.Errorf("title = %q", s.Title)
	}
}

// TestInfer_TimeSeriesWithSeriesKey: a second categorical column becomes the
// color grouping key.
func TestInfer_TimeSeriesWithSeriesKey(t *testing.T) {
	r := rel([]string{"year", "gdp", "region", "country"},
		relation.Row{"year": float64(2000), "gdp": float64(1.2), "region": "EU", "country": "DE"},
	)
	s := Infer(r, "SELECT * FROM wdi")
	if s.Type != Line {
		t.Fatalf("type = %v, want line", s.Type)
	}
	if s.SeriesKey != "country" {
		t.Errorf("series key = %q, want country (second categorical)", s.SeriesKey)
	}
}

// TestInfer_GroupedBar: GROUP BY plus an aggregate name in the query text
// selects a bar chart with categorical x and numeric y.
func TestInfer_GroupedBar(t *testing.T) {
	r := rel([]string{"country", "avg_coal"},
		relation.Row{"country": "DE", "avg_coal": float64(120)},
		relation.Row{"country": "FR", "avg_coal": float64(7)},
	)
	s := Infer(r, "SELECT country, AVG(coal) FROM energy GROUP BY country")
	if s.Type != Bar {
		t.Fatalf("type = %v, want bar", s.Type)
	}
	if s.X != "country" || s.Y != "avg_coal" {
		t.Errorf("bindings x=%q y=%q", s.X, s.Y)
	}
	if s.Title != "avg_coal by country" {
		t.Errorf("title = %q", s.Title)
	}
}

// TestInfer_Pie: one numeric column, one categorical, few rows.
func TestInfer_Pie(t *testing.T) {
	r := rel([]string{"fuel", "share"},
		relation.Row{"fuel": "coal", "share": float64(30)},
		relation.Row{"fuel": "gas", "share": float64(25)},
		relation.Row{"fuel": "wind", "share": float64(45)},
	)
	s := Infer(r, "SELECT fuel, share FROM mix")
	if s.Type != Pie {
		t.Fatalf("type = %v, want pie", s.Type)
	}
	if s.X != "fuel" || s.Y != "share" {
		t.Errorf("bindings x=%q y=%q", s.X, s.Y)
	}
}

// TestInfer_PieRowLimit: the same shape with too many rows falls through to
// the later rules.
func TestInfer_PieRowLimit(t *testing.T) {
	cols := []string{"fuel", "share"}
	r := relation.New(cols)
	for i := 0; i < pieRowLimit+1; i++ {
		r.Rows = append(r.Rows, relation.Row{"fuel": "f", "share": float64(i)})
	}
	s := Infer(r, "SELECT fuel, share FROM mix")
	if s.Type == Pie {
		t.Fatalf("row count %d should not produce a pie", len(r.Rows))
	}
}

// TestInfer_Scatter: two numeric columns produce a scatter with the first
// categorical column as color key.
func TestInfer_Scatter(t *testing.T) {
	r := rel([]string{"gdp", "co2", "region"},
		relation.Row{"gdp": float64(1), "co2": float64(2), "region": "EU"},
		relation.Row{"gdp": float64(2), "co2": float64(3), "region": "EU"},
		relation.Row{"gdp": float64(1), "co2": float64(1), "region": "AS"},
		relation.Row{"gdp": float64(4), "co2": float64(6), "region": "AS"},
		relation.Row{"gdp": float64(5), "co2": float64(9), "region": "EU"},
		relation.Row{"gdp": float64(3), "co2": float64(2), "region": "AS"},
		relation.Row{"gdp": float64(2), "co2": float64(5), "region": "EU"},
		relation.Row{"gdp": float64(6), "co2": float64(7), "region": "AS"},
		relation.Row{"gdp": float64(7), "co2": float64(8), "region": "EU"},
		relation.Row{"gdp": float64(8), "co2": float64(9), "region": "AS"},
		relation.Row{"gdp": float64(9), "co2": float64(9), "region": "EU"},
	)
	s := Infer(r, "SELECT gdp, co2, region FROM wdi")
	if s.Type != Scatter {
		t.Fatalf("type = %v, want scatter", s.Type)
	}
	if s.X != "gdp" || s.Y != "co2" || s.SeriesKey != "region" {
		t.Errorf("bindings x=%q y=%q series=%q", s.X, s.Y, s.SeriesKey)
	}
	if s.Title != "co2 vs gdp" {
		t.Errorf("title = %q", s.Title)
	}
}

// TestInfer_PositionalFallback: no rule matches, first two columns are used.
func TestInfer_PositionalFallback(t *testing.T) {
	r := rel([]string{"a", "b"},
		relation.Row{"a": "x", "b": "y"},
	)
	s := Infer(r, "SELECT a, b FROM t")
	if s.Type != Scatter || s.X != "a" || s.Y != "b" {
		t.Errorf("fallback spec = %+v", s)
	}
}

// TestTraces_SeriesPartition verifies rows split into named traces in
// first-seen key order.
func TestTraces_SeriesPartition(t *testing.T) {
	r := rel([]string{"year", "gdp", "c1", "country"},
		relation.Row{"year": float64(2000), "gdp": float64(1), "c1": "a", "country": "DE"},
		relation.Row{"year": float64(2000), "gdp": float64(2), "c1": "a", "country": "FR"},
		relation.Row{"year": float64(2001), "gdp": float64(3), "c1": "a", "country": "DE"},
	)
	s := Infer(r, "SELECT * FROM wdi")
	traces := Traces(r, s)
	if len(traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(traces))
	}
	if traces[0].Name != "DE" || traces[1].Name != "FR" {
		t.Errorf("trace names %q, %q", traces[0].Name, traces[1].Name)
	}
	if len(traces[0].X) != 2 || len(traces[1].X) != 1 {
		t.Errorf("trace sizes wrong: %d, %d", len(traces[0].X), len(traces[1].X))
	}
}
