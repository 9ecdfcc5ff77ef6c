package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sqlplot/sqlplot/internal/ingest"
	"github.com/sqlplot/sqlplot/internal/relation"
)

// TestBuiltin sanity-checks the default registry.
func TestBuiltin(t *testing.T) {
	c := Builtin()
	if c.Len() == 0 {
		t.Fatal("builtin catalog is empty")
	}
	d, ok := c.Get("gapminder")
	if !ok || d.URL == "" || d.Table == "" {
		t.Fatalf("gapminder entry incomplete: %+v", d)
	}
}

// TestLoadFile parses a YAML catalog and validates required fields.
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `datasets:
  - id: co2
    name: CO2 emissions
    url: https://example.org/co2.csv
    table: co2
    description: annual emissions
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	d, ok := c.Get("co2")
	if !ok || d.Name != "CO2 emissions" {
		t.Fatalf("entry wrong: %+v", d)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("datasets:\n  - name: no id\n"), 0o644)
	if _, err := LoadFile(bad); err == nil {
		t.Fatal("expected error for entry without id")
	}
}

// TestMerge verifies file entries override built-ins by id and new ids
// append.
func TestMerge(t *testing.T) {
	base := New([]Dataset{{ID: "a", Name: "old"}, {ID: "b", Name: "keep"}})
	over := New([]Dataset{{ID: "a", Name: "new"}, {ID: "c", Name: "added"}})
	m := base.Merge(over)
	if m.Len() != 3 {
		t.Fatalf("merged len = %d, want 3", m.Len())
	}
	if d, _ := m.Get("a"); d.Name != "new" {
		t.Errorf("override failed: %+v", d)
	}
	if m.List()[0].ID != "a" || m.List()[2].ID != "c" {
		t.Errorf("order wrong: %v", m.List())
	}
}

// TestRefresher_Cache exercises the refresh loop with an injected fetcher.
func TestRefresher_Cache(t *testing.T) {
	c := New([]Dataset{{ID: "d1", URL: "unused", Table: "t"}})
	r := NewRefresher(c, "@hourly")
	r.fetch = func(ctx context.Context, d Dataset) (*ingest.Result, error) {
		rel := relation.New([]string{"a"})
		rel.Rows = []relation.Row{{"a": float64(1)}}
		return &ingest.Result{Relation: rel}, nil
	}
	r.RefreshAll()

	res, ok := r.Cached("d1")
	if !ok || len(res.Relation.Rows) != 1 {
		t.Fatalf("cache miss after refresh: %v %v", res, ok)
	}
	if _, ok := r.Cached("missing"); ok {
		t.Error("unexpected cache hit")
	}
}
