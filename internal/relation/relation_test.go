package relation

import "testing"

// TestParseValue covers the per-value typing policy: numeric text becomes
// float64, empty becomes nil, everything else stays text.
func TestParseValue(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want any
	}{
		{"3", float64(3)},
		{"3.5", float64(3.5)},
		{"-12", float64(-12)},
		{"", nil},
		{"  ", nil},
		{"abc", "abc"},
		{"3abc", "3abc"},
	} {
		if got := ParseValue(tc.in); got != tc.want {
			t.Errorf("ParseValue(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestFormatValue checks the canonical string form round-trips with
// ParseValue for numbers.
func TestFormatValue(t *testing.T) {
	if got := FormatValue(float64(2020)); got != "2020" {
		t.Errorf("FormatValue(2020) = %q", got)
	}
	if got := FormatValue(nil); got != "" {
		t.Errorf("FormatValue(nil) = %q", got)
	}
	if got := FormatValue("x"); got != "x" {
		t.Errorf("FormatValue(x) = %q", got)
	}
}

// TestToNumber pins the crude coercion: non-numeric values become 0.
func TestToNumber(t *testing.T) {
	if ToNumber("7.5") != 7.5 {
		t.Error("numeric string should convert")
	}
	if ToNumber("n/a") != 0 {
		t.Error("non-numeric should coerce to 0")
	}
	if ToNumber(nil) != 0 {
		t.Error("nil should coerce to 0")
	}
}

// TestColumnKind verifies classification: temporal by name, numeric by
// values, categorical otherwise.
func TestColumnKind(t *testing.T) {
	rel := New([]string{"year", "gdp", "country", "empty"})
	rel.Rows = []Row{
		{"year": float64(2000), "gdp": float64(1.2), "country": "DE", "empty": nil},
		{"year": float64(2001), "gdp": float64(1.3), "country": "FR", "empty": nil},
	}
	if k := rel.ColumnKind("year"); k != KindTemporal {
		t.Errorf("year kind = %v, want temporal", k)
	}
	if k := rel.ColumnKind("gdp"); k != KindNumeric {
		t.Errorf("gdp kind = %v, want numeric", k)
	}
	if k := rel.ColumnKind("country"); k != KindCategorical {
		t.Errorf("country kind = %v, want categorical", k)
	}
	if k := rel.ColumnKind("empty"); k != KindCategorical {
		t.Errorf("all-nil column kind = %v, want categorical", k)
	}
}

// TestLookup verifies case-insensitive column resolution.
func TestLookup(t *testing.T) {
	rel := New([]string{"Country"})
	if c, ok := rel.Lookup("country"); !ok || c != "Country" {
		t.Errorf("Lookup(country) = %q, %v", c, ok)
	}
	if _, ok := rel.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}
