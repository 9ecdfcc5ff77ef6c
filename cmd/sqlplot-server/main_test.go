package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sqlplot/sqlplot/internal/catalog"
	"github.com/sqlplot/sqlplot/internal/ingest"
	"github.com/sqlplot/sqlplot/internal/relation"
)

func testServer(t *testing.T) *server {
	t.Helper()
	srv, err := newServer()
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	srv.sess.SetFetcher(func(ctx context.Context, d catalog.Dataset, opts *ingest.Options) (*ingest.Result, error) {
		rel := relation.New([]string{"country", "coal"})
		rel.Rows = []relation.Row{
			{"country": "Germany", "coal": float64(132)},
			{"country": "France", "coal": float64(8)},
		}
		return &ingest.Result{Relation: rel}, nil
	})
	return srv
}

func TestHandleLoadAndQuery(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/load", strings.NewReader(`{"id":"gapminder"}`))
	srv.handleLoad(rec, req)
	var load loadResponse
	if err := json.NewDecoder(rec.Body).Decode(&load); err != nil {
		t.Fatalf("decode load: %v", err)
	}
	if load.Error != "" {
		t.Fatalf("load error: %s", load.Error)
	}
	if load.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", load.Rows)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/query", strings.NewReader(`{"sql":"SELECT country FROM t ORDER BY country"}`))
	srv.handleQuery(rec, req)
	var out queryResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode query: %v", err)
	}
	if out.Error != "" {
		t.Fatalf("query error: %s", out.Error)
	}
	if out.Count != 2 || out.Rows[0]["country"] != "France" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestHandleQueryWithoutDataset(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/query", strings.NewReader(`{"sql":"SELECT x FROM t"}`))
	srv.handleQuery(rec, req)
	var out queryResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error == "" {
		t.Fatal("expected an error before any load")
	}
}

func TestHandleExportWithoutResult(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/export/csv", nil)
	srv.handleExport(rec, req)
	if rec.Code != 409 {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestResolveDataset(t *testing.T) {
	srv := testServer(t)
	if _, err := srv.resolveDataset(&loadRequest{ID: "nope"}); err == nil {
		t.Fatal("expected error for unknown id")
	}
	if _, err := srv.resolveDataset(&loadRequest{}); err == nil {
		t.Fatal("expected error for empty request")
	}
	d, err := srv.resolveDataset(&loadRequest{URL: "https://example.com/x.csv", Name: "x"})
	if err != nil {
		t.Fatalf("resolve url: %v", err)
	}
	if d.Table != "x" || d.URL != "https://example.com/x.csv" {
		t.Fatalf("unexpected dataset: %+v", d)
	}
}
