// Package sqlplot lets an application run SQL over public CSV datasets and
// turn the results into charts.
//
// The pipeline has four stages: ingest a remote CSV into a Relation, run a
// query against it, infer a chart for the result, and export the result or
// the chart. Two query engines share one contract: a small clause-extraction
// interpreter covering a SELECT/WHERE/GROUP BY/ORDER BY/LIMIT subset, and an
// embedded SQLite delegate that accepts full SQL.
//
// # Basic Usage
//
// Load a dataset and run a query through a session:
//
//	sess := sqlplot.NewSession(sqlplot.ModeInterp)
//	ds, _ := sqlplot.BuiltinCatalog().Get("gapminder")
//
//	info, err := sess.LoadDataset(ctx, ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("loaded %d rows\n", info.Rows)
//
//	res, err := sess.Run(ctx, "SELECT country, AVG(gdpPercap) FROM gapminder GROUP BY country")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Chart.Title)
//
// # Export
//
// Serialize the current view into downloadable artifacts:
//
//	snap := sess.Snapshot()
//	sqlplot.ExportCSV(os.Stdout, snap.Relation)
//	sqlplot.RenderPNG(file, snap.Relation, snap.Chart)
//
// # Standalone pieces
//
// The stages also work without a session: ingest.Fetch, the query engines,
// chart.Infer and the exporters are plain functions over Relations. See the
// internal packages for details and cmd/sqlplot for a one-shot CLI.
package sqlplot

import (
	"io"

	"github.com/sqlplot/sqlplot/internal/catalog"
	"github.com/sqlplot/sqlplot/internal/chart"
	"github.com/sqlplot/sqlplot/internal/complete"
	"github.com/sqlplot/sqlplot/internal/export"
	"github.com/sqlplot/sqlplot/internal/ingest"
	"github.com/sqlplot/sqlplot/internal/query"
	"github.com/sqlplot/sqlplot/internal/relation"
	"github.com/sqlplot/sqlplot/internal/session"
)

// ============================================================================
// Core Types - Re-exported from internal packages for public API
// ============================================================================

// Relation is an ordered list of rows sharing a column schema, the unit
// flowing between interpreter, chart inference and export.
type Relation = relation.Relation

// Row maps a column name to a scalar value: float64, string, or nil.
type Row = relation.Row

// Dataset describes one catalog entry: display name, remote CSV URL,
// description and reference table name.
type Dataset = catalog.Dataset

// Catalog is the read-only dataset registry.
type Catalog = catalog.Catalog

// ChartSpec binds an inferred chart type to columns of a result relation.
type ChartSpec = chart.Spec

// Session holds the interactive state: active dataset, last query, result
// and inferred chart.
type Session = session.Session

// LoadInfo describes a completed dataset load.
type LoadInfo = session.LoadInfo

// QueryResult describes a completed query execution.
type QueryResult = session.Result

// Engine runs a query against a relation. Interpreter and SQLiteEngine
// implement it.
type Engine = query.Engine

// Engine modes for NewSession.
const (
	ModeInterp = session.ModeInterp
	ModeSQLite = session.ModeSQLite
)

// Errors re-exported for errors.Is checks at call sites.
var (
	ErrInvalidQuery = query.ErrInvalidQuery
	ErrDatasetLoad  = ingest.ErrDatasetLoad
	ErrNoDataset    = session.ErrNoDataset
	ErrSuperseded   = session.ErrSuperseded
)

// ============================================================================
// Construction
// ============================================================================

// NewSession creates an engine-ready session in the given mode.
func NewSession(mode session.Mode) *Session {
	return session.New(mode)
}

// BuiltinCatalog returns the default dataset registry.
func BuiltinCatalog() *Catalog {
	return catalog.Builtin()
}

// LoadCatalogFile reads a YAML catalog file.
func LoadCatalogFile(path string) (*Catalog, error) {
	return catalog.LoadFile(path)
}

// ============================================================================
// Stage Functions
// ============================================================================

// InferChart selects a chart type and axis bindings for a result relation,
// consulting the query text only for GROUP BY / aggregate presence.
func InferChart(rel *Relation, queryText string) ChartSpec {
	return chart.Infer(rel, queryText)
}

// Suggest proposes query completions for the word under the cursor.
func Suggest(text string, cursor int, columns []string) []string {
	return complete.Suggest(text, cursor, columns)
}

// ExportCSV writes the relation as CSV text with a header row.
func ExportCSV(w io.Writer, rel *Relation) error {
	return export.CSV(w, rel)
}

// ExportJSON writes the relation as a JSON array of objects.
func ExportJSON(w io.Writer, rel *Relation, pretty bool) error {
	return export.JSON(w, rel, pretty)
}

// RenderPNG rasterizes a chart at fixed pixel dimensions.
func RenderPNG(w io.Writer, rel *Relation, spec ChartSpec) error {
	return export.RenderPNG(w, rel, spec)
}

// RenderSVG writes a chart as a vector image.
func RenderSVG(w io.Writer, rel *Relation, spec ChartSpec) error {
	return export.RenderSVG(w, rel, spec)
}

// ExportScript writes a Python script reproducing the query and chart.
func ExportScript(w io.Writer, datasetURL, queryText, table string, spec ChartSpec) error {
	return export.Script(w, datasetURL, queryText, table, spec)
}
