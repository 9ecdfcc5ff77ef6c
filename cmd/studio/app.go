package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sqlplot/sqlplot/internal/catalog"
	"github.com/sqlplot/sqlplot/internal/chart"
	"github.com/sqlplot/sqlplot/internal/export"
	"github.com/sqlplot/sqlplot/internal/ingest"
	"github.com/sqlplot/sqlplot/internal/session"
	wailsrt "github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx  context.Context
	sess *session.Session
	cat  *catalog.Catalog
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{
		sess: session.New(session.ModeInterp),
		cat:  catalog.Builtin(),
	}
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

func (a *App) shutdown(ctx context.Context) {}

// DatasetInfo describes one catalog entry for the frontend
type DatasetInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// LoadResult describes a completed dataset load
type LoadResult struct {
	Success   bool     `json:"success"`
	Dataset   string   `json:"dataset,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	RowCount  int      `json:"rowCount,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// QueryResult represents the result of a query plus its inferred chart
type QueryResult struct {
	Columns []string   `json:"columns"`
	Rows    [][]any    `json:"rows"`
	Chart   chart.Spec `json:"chart"`
	Error   string     `json:"error,omitempty"`
	Count   int        `json:"count"`
	Elapsed int64      `json:"elapsed_ms"`
}

// ListDatasets returns the catalog entries
func (a *App) ListDatasets() []DatasetInfo {
	out := make([]DatasetInfo, 0, a.cat.Len())
	for _, d := range a.cat.List() {
		out = append(out, DatasetInfo{ID: d.ID, Name: d.Name, Description: d.Description})
	}
	return out
}

// LoadDataset loads a catalog dataset by id
func (a *App) LoadDataset(id string) LoadResult {
	d, ok := a.cat.Get(id)
	if !ok {
		return LoadResult{Error: fmt.Sprintf("unknown dataset %q", id)}
	}
	info, err := a.sess.LoadDataset(a.ctx, d)
	if err != nil {
		return LoadResult{Error: err.Error()}
	}
	return LoadResult{
		Success:   true,
		Dataset:   info.Dataset,
		Columns:   info.Columns,
		RowCount:  info.Rows,
		Truncated: info.Truncated,
	}
}

// LoadFromFile opens a file dialog and loads the chosen CSV or shapefile
func (a *App) LoadFromFile() LoadResult {
	if a.ctx == nil {
		return LoadResult{Error: "application context not available"}
	}
	path, err := wailsrt.OpenFileDialog(a.ctx, wailsrt.OpenDialogOptions{
		Title: "Select dataset",
		Filters: []wailsrt.FileFilter{
			{DisplayName: "Data Files (*.csv, *.shp)", Pattern: "*.csv;*.shp"},
		},
	})
	if err != nil {
		return LoadResult{Error: err.Error()}
	}
	if path == "" {
		return LoadResult{} // User cancelled
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	d := catalog.Dataset{ID: name, Name: name, Table: name}
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		d.Shapefile = path
	} else {
		d.URL = path
	}

	// Local paths bypass the HTTP fetcher.
	a.sess.SetFetcher(func(ctx context.Context, d catalog.Dataset, opts *ingest.Options) (*ingest.Result, error) {
		if d.Shapefile != "" {
			return ingest.ReadShapefile(d.Shapefile, opts)
		}
		if strings.HasPrefix(d.URL, "http://") || strings.HasPrefix(d.URL, "https://") {
			return ingest.Fetch(ctx, d.URL, opts)
		}
		f, err := os.Open(d.URL)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ingest.Parse(f, opts)
	})

	info, err := a.sess.LoadDataset(a.ctx, d)
	if err != nil {
		return LoadResult{Error: err.Error()}
	}
	return LoadResult{
		Success:   true,
		Dataset:   info.Dataset,
		Columns:   info.Columns,
		RowCount:  info.Rows,
		Truncated: info.Truncated,
	}
}

// ExecuteQuery runs a query against the loaded dataset
func (a *App) ExecuteQuery(queryText string) QueryResult {
	start := time.Now()
	res, err := a.sess.Run(a.ctx, queryText)
	if err != nil {
		return QueryResult{
			Error:   err.Error(),
			Elapsed: time.Since(start).Milliseconds(),
		}
	}

	rows := make([][]any, 0, len(res.Relation.Rows))
	for _, r := range res.Relation.Rows {
		line := make([]any, len(res.Relation.Cols))
		for i, c := range res.Relation.Cols {
			line[i] = r[c]
		}
		rows = append(rows, line)
	}

	return QueryResult{
		Columns: res.Relation.Cols,
		Rows:    rows,
		Chart:   res.Chart,
		Count:   len(rows),
		Elapsed: res.Elapsed.Milliseconds(),
	}
}

// Suggest returns query completions for the word under the cursor
func (a *App) Suggest(text string, cursor int) []string {
	return a.sess.Suggest(text, cursor)
}

// ColumnKinds reports the inferred kind per result column for the table view
func (a *App) ColumnKinds() map[string]string {
	snap := a.sess.Snapshot()
	if snap.Relation == nil {
		return nil
	}
	out := make(map[string]string, len(snap.Relation.Cols))
	for _, c := range snap.Relation.Cols {
		out[c] = snap.Relation.ColumnKind(c).String()
	}
	return out
}

// ExportResultToCSV saves the current result as a CSV file
func (a *App) ExportResultToCSV() (string, error) {
	snap := a.sess.Snapshot()
	if snap.Relation == nil {
		return "", fmt.Errorf("no result to export")
	}
	path, err := wailsrt.SaveFileDialog(a.ctx, wailsrt.SaveDialogOptions{
		Title:           "Export Result to CSV",
		DefaultFilename: "result.csv",
		Filters: []wailsrt.FileFilter{
			{DisplayName: "CSV Files (*.csv)", Pattern: "*.csv"},
		},
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := writeWith(path, func(f *os.File) error {
		return export.CSV(f, snap.Relation)
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Exported %d rows to %s", len(snap.Relation.Rows), path), nil
}

// ExportChart saves the current chart as a PNG or SVG file
func (a *App) ExportChart() (string, error) {
	snap := a.sess.Snapshot()
	if snap.Relation == nil {
		return "", fmt.Errorf("no chart to export")
	}
	path, err := wailsrt.SaveFileDialog(a.ctx, wailsrt.SaveDialogOptions{
		Title:           "Export Chart",
		DefaultFilename: "chart.png",
		Filters: []wailsrt.FileFilter{
			{DisplayName: "PNG Image (*.png)", Pattern: "*.png"},
			{DisplayName: "SVG Image (*.svg)", Pattern: "*.svg"},
		},
	})
	if err != nil || path == "" {
		return "", err
	}
	render := export.RenderPNG
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		render = export.RenderSVG
	}
	if err := writeWith(path, func(f *os.File) error {
		return render(f, snap.Relation, snap.Chart)
	}); err != nil {
		return "", err
	}
	return path, nil
}

// ExportScript saves a Python script reproducing the current query and chart
func (a *App) ExportScript() (string, error) {
	snap := a.sess.Snapshot()
	if snap.Relation == nil {
		return "", fmt.Errorf("no result to export")
	}
	path, err := wailsrt.SaveFileDialog(a.ctx, wailsrt.SaveDialogOptions{
		Title:           "Export Python Script",
		DefaultFilename: "plot.py",
		Filters: []wailsrt.FileFilter{
			{DisplayName: "Python Files (*.py)", Pattern: "*.py"},
		},
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := writeWith(path, func(f *os.File) error {
		return export.Script(f, snap.Dataset.URL, snap.Query, snap.Dataset.Table, snap.Chart)
	}); err != nil {
		return "", err
	}
	return path, nil
}

func writeWith(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}
