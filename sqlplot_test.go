package sqlplot_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sp "github.com/sqlplot/sqlplot"
)

const testCSV = "country,year,coal\nGermany,2019,132\nGermany,2020,108\nFrance,2019,8\nFrance,2020,6\n"

func csvServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(testCSV))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestEndToEnd walks the whole pipeline through the public API: load a
// dataset over HTTP, query it, inspect the inferred chart and export the
// result.
func TestEndToEnd(t *testing.T) {
	srv := csvServer(t)
	sess := sp.NewSession(sp.ModeInterp)
	ctx := context.Background()

	info, err := sess.LoadDataset(ctx, sp.Dataset{ID: "energy", Name: "Energy", URL: srv.URL, Table: "energy"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if info.Rows != 4 || len(info.Columns) != 3 {
		t.Fatalf("unexpected load info: %+v", info)
	}

	res, err := sess.Run(ctx, "SELECT country, SUM(coal) FROM energy GROUP BY country")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Relation.Rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(res.Relation.Rows))
	}
	if res.Chart.Type != "bar" {
		t.Fatalf("expected bar chart, got %q", res.Chart.Type)
	}

	var buf bytes.Buffer
	if err := sp.ExportCSV(&buf, res.Relation); err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "country,SUM(coal)\n") {
		t.Fatalf("unexpected csv header: %q", buf.String())
	}

	buf.Reset()
	if err := sp.RenderSVG(&buf, res.Relation, res.Chart); err != nil {
		t.Fatalf("render svg: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatal("svg output missing <svg element")
	}
}

func TestRunBeforeLoad(t *testing.T) {
	sess := sp.NewSession(sp.ModeInterp)
	if _, err := sess.Run(context.Background(), "SELECT x FROM t"); !errors.Is(err, sp.ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
}

func TestInvalidQuery(t *testing.T) {
	srv := csvServer(t)
	sess := sp.NewSession(sp.ModeInterp)
	ctx := context.Background()
	if _, err := sess.LoadDataset(ctx, sp.Dataset{ID: "e", URL: srv.URL, Table: "e"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := sess.Run(ctx, "DROP TABLE e"); !errors.Is(err, sp.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestSuggestThroughSession(t *testing.T) {
	srv := csvServer(t)
	sess := sp.NewSession(sp.ModeInterp)
	if _, err := sess.LoadDataset(context.Background(), sp.Dataset{ID: "e", URL: srv.URL, Table: "e"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	text := "SELECT co"
	got := sess.Suggest(text, len(text))
	want := map[string]bool{"COUNT": true, "country": true, "coal": true}
	for _, w := range got {
		delete(want, w)
	}
	if len(want) != 0 {
		t.Fatalf("missing suggestions %v in %v", want, got)
	}
}

func TestBuiltinCatalog(t *testing.T) {
	cat := sp.BuiltinCatalog()
	if cat.Len() == 0 {
		t.Fatal("builtin catalog is empty")
	}
	if _, ok := cat.Get("gapminder"); !ok {
		t.Fatal("builtin catalog missing gapminder")
	}
}
