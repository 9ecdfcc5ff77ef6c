package query

import (
	"context"
	"testing"

	"github.com/sqlplot/sqlplot/internal/relation"
)

// TestSQLiteEngine_Roundtrip loads a relation into the embedded engine and
// runs SQL the interpreter subset cannot express.
func TestSQLiteEngine_Roundtrip(t *testing.T) {
	rel := sampleRelation()
	out, err := SQLiteEngine{}.Execute(context.Background(), rel,
		"SELECT country, SUM(coal) AS total FROM energy WHERE coal > 10 GROUP BY country ORDER BY total DESC")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(out.Cols) != 2 || out.Cols[0] != "country" || out.Cols[1] != "total" {
		t.Fatalf("unexpected columns %v", out.Cols)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(out.Rows))
	}
	if out.Rows[0]["country"] != "Germany" || out.Rows[0]["total"] != float64(240) {
		t.Errorf("first group wrong: %v", out.Rows[0])
	}
}

// TestSQLiteEngine_TextColumns verifies text values survive the round trip.
func TestSQLiteEngine_TextColumns(t *testing.T) {
	rel := relation.New([]string{"name", "note"})
	rel.Rows = []relation.Row{
		{"name": "a", "note": nil},
		{"name": "b", "note": "x"},
	}
	out, err := SQLiteEngine{}.Execute(context.Background(), rel, "SELECT name, note FROM t ORDER BY name")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Rows[0]["note"] != nil {
		t.Errorf("nil should survive, got %v", out.Rows[0]["note"])
	}
	if out.Rows[1]["note"] != "x" {
		t.Errorf("text should survive, got %v", out.Rows[1]["note"])
	}
}

// TestSQLiteEngine_NoFrom rejects queries without a FROM target because the
// staging table name comes from it.
func TestSQLiteEngine_NoFrom(t *testing.T) {
	if _, err := (SQLiteEngine{}).Execute(context.Background(), sampleRelation(), "PRAGMA nothing"); err == nil {
		t.Fatal("expected error for query without FROM")
	}
}
