// Command sqlplot-server exposes the query and chart pipeline over HTTP and
// gRPC. The HTTP side serves a small single-page UI plus a JSON API; the
// gRPC side offers Load/Query/Suggest with a JSON codec so clients can call
// it without protobuf tooling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sqlplot/sqlplot/internal/catalog"
	"github.com/sqlplot/sqlplot/internal/export"
	"github.com/sqlplot/sqlplot/internal/ingest"
	"github.com/sqlplot/sqlplot/internal/session"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Flags
var (
	flagHTTP    = flag.String("http", ":8080", "HTTP listen address (empty to disable)")
	flagGRPC    = flag.String("grpc", ":9090", "gRPC listen address (empty to disable)")
	flagEngine  = flag.String("engine", "interp", "Query engine: interp or sqlite")
	flagCatalog = flag.String("catalog", "", "Path to a YAML dataset catalog merged over the builtin one")
	flagRefresh = flag.String("refresh", "", "Cron spec for background catalog prefetch (empty to disable)")
	flagVerbose = flag.Bool("v", false, "Verbose logging")
)

// HTTP/gRPC request and response types
type loadRequest struct {
	ID   string `json:"id,omitempty"`
	URL  string `json:"url,omitempty"`
	Name string `json:"name,omitempty"`
}
type loadResponse struct {
	*session.LoadInfo
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type queryRequest struct {
	SQL string `json:"sql"`
}
type queryResponse struct {
	SQL      string           `json:"sql"`
	Columns  []string         `json:"columns,omitempty"`
	Rows     []map[string]any `json:"rows,omitempty"`
	Chart    any              `json:"chart,omitempty"`
	Count    int              `json:"count"`
	Error    string           `json:"error,omitempty"`
	Duration string           `json:"duration"`
}

type suggestRequest struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}
type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// gRPC JSON codec
type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// gRPC service interface and descriptors (manual, no protobuf)
type SQLPlotServer interface {
	Load(context.Context, *loadRequest) (*loadResponse, error)
	Query(context.Context, *queryRequest) (*queryResponse, error)
	Suggest(context.Context, *suggestRequest) (*suggestResponse, error)
}

func registerSQLPlotServer(s *grpc.Server, srv SQLPlotServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "sqlplot.SQLPlot",
		HandlerType: (*SQLPlotServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Load", Handler: _SQLPlot_Load_Handler},
			{MethodName: "Query", Handler: _SQLPlot_Query_Handler},
			{MethodName: "Suggest", Handler: _SQLPlot_Suggest_Handler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "sqlplot", // informational
	}, srv)
}

func _SQLPlot_Load_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(loadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SQLPlotServer).Load(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sqlplot.SQLPlot/Load"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SQLPlotServer).Load(ctx, req.(*loadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SQLPlot_Query_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(queryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SQLPlotServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sqlplot.SQLPlot/Query"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SQLPlotServer).Query(ctx, req.(*queryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SQLPlot_Suggest_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(suggestRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SQLPlotServer).Suggest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sqlplot.SQLPlot/Suggest"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SQLPlotServer).Suggest(ctx, req.(*suggestRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// server state
type server struct {
	sess      *session.Session
	cat       *catalog.Catalog
	refresher *catalog.Refresher
}

func newServer() (*server, error) {
	mode := session.ModeInterp
	switch *flagEngine {
	case "interp":
	case "sqlite":
		mode = session.ModeSQLite
	default:
		return nil, fmt.Errorf("unknown engine %q", *flagEngine)
	}

	cat := catalog.Builtin()
	if *flagCatalog != "" {
		extra, err := catalog.LoadFile(*flagCatalog)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		cat = cat.Merge(extra)
	}

	s := &server{sess: session.New(mode), cat: cat}
	if *flagRefresh != "" {
		s.refresher = catalog.NewRefresher(cat, *flagRefresh)
		// Loads go through the warm cache when the refresher has the set.
		s.sess.SetFetcher(func(ctx context.Context, d catalog.Dataset, opts *ingest.Options) (*ingest.Result, error) {
			if res, ok := s.refresher.Cached(d.ID); ok {
				return res, nil
			}
			if d.Shapefile != "" {
				return ingest.ReadShapefile(d.Shapefile, opts)
			}
			return ingest.Fetch(ctx, d.URL, opts)
		})
	}
	return s, nil
}

// resolveDataset maps a load request to a catalog entry or an ad-hoc URL.
func (s *server) resolveDataset(req *loadRequest) (catalog.Dataset, error) {
	if req.ID != "" {
		d, ok := s.cat.Get(req.ID)
		if !ok {
			return catalog.Dataset{}, fmt.Errorf("unknown dataset %q", req.ID)
		}
		return d, nil
	}
	if req.URL == "" {
		return catalog.Dataset{}, fmt.Errorf("load needs an id or a url")
	}
	name := req.Name
	if name == "" {
		name = "dataset"
	}
	return catalog.Dataset{ID: name, Name: name, URL: req.URL, Table: name}, nil
}

// SQLPlotServer implementation
func (s *server) Load(ctx context.Context, req *loadRequest) (*loadResponse, error) {
	start := time.Now()
	d, err := s.resolveDataset(req)
	if err != nil {
		return &loadResponse{Error: err.Error(), Duration: time.Since(start).String()}, nil
	}
	info, err := s.sess.LoadDataset(ctx, d)
	if err != nil {
		return &loadResponse{Error: err.Error(), Duration: time.Since(start).String()}, nil
	}
	return &loadResponse{LoadInfo: info, Duration: time.Since(start).String()}, nil
}

func (s *server) Query(ctx context.Context, req *queryRequest) (*queryResponse, error) {
	start := time.Now()
	res, err := s.sess.Run(ctx, req.SQL)
	if err != nil {
		return &queryResponse{SQL: req.SQL, Error: err.Error(), Duration: time.Since(start).String()}, nil
	}
	rows := make([]map[string]any, 0, len(res.Relation.Rows))
	for _, r := range res.Relation.Rows {
		rows = append(rows, map[string]any(r))
	}
	return &queryResponse{
		SQL:      req.SQL,
		Columns:  res.Relation.Cols,
		Rows:     rows,
		Chart:    res.Chart,
		Count:    len(rows),
		Duration: res.Elapsed.String(),
	}, nil
}

func (s *server) Suggest(ctx context.Context, req *suggestRequest) (*suggestResponse, error) {
	return &suggestResponse{Suggestions: s.sess.Suggest(req.Text, req.Cursor)}, nil
}

// HTTP handlers
func (s *server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"datasets": s.cat.List()})
}

func (s *server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, _ := s.Load(r.Context(), &req)
	writeJSON(w, resp)
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, _ := s.Query(r.Context(), &req)
	writeJSON(w, resp)
}

func (s *server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, _ := s.Suggest(r.Context(), &req)
	writeJSON(w, resp)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.sess.Snapshot()
	writeJSON(w, map[string]any{
		"ok":       true,
		"time":     time.Now().Format(time.RFC3339),
		"state":    snap.State.String(),
		"engine":   string(s.sess.Mode()),
		"dataset":  snap.Dataset.ID,
		"datasets": s.cat.Len(),
	})
}

// handleExport serves the current result in the format named by the last
// path segment: csv, json, png, svg or script.
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.sess.Snapshot()
	if snap.Relation == nil {
		http.Error(w, "no result to export", http.StatusConflict)
		return
	}
	format := strings.TrimPrefix(r.URL.Path, "/api/export/")
	var err error
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="result.csv"`)
		err = export.CSV(w, snap.Relation)
	case "json":
		w.Header().Set("Content-Type", "application/json")
		err = export.JSON(w, snap.Relation, r.URL.Query().Get("pretty") != "")
	case "png":
		w.Header().Set("Content-Type", "image/png")
		err = export.RenderPNG(w, snap.Relation, snap.Chart)
	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
		err = export.RenderSVG(w, snap.Relation, snap.Chart)
	case "script":
		w.Header().Set("Content-Type", "text/x-python")
		w.Header().Set("Content-Disposition", `attachment; filename="plot.py"`)
		err = export.Script(w, snap.Dataset.URL, snap.Query, snap.Dataset.Table, snap.Chart)
	default:
		http.Error(w, "unknown export format "+format, http.StatusNotFound)
		return
	}
	if err != nil {
		// Headers are gone by now; log instead of rewriting the status.
		log.Printf("export %s error: %v", format, err)
	}
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, map[string]any{
		"Engine":   *flagEngine,
		"Datasets": s.cat.List(),
	}); err != nil {
		log.Printf("index template error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>sqlplot</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2em auto; max-width: 960px; }
textarea { width: 100%; height: 4em; font-family: monospace; font-size: 14px; }
select, button { font-size: 14px; padding: 4px 10px; }
table { border-collapse: collapse; margin-top: 1em; }
td, th { border: 1px solid #ccc; padding: 4px 10px; }
#chart { margin-top: 1em; }
#error { color: #b00; }
.exports a { margin-right: 1em; }
</style>
</head>
<body>
<h1>sqlplot <small>({{.Engine}})</small></h1>
<p>
<select id="dataset">
{{range .Datasets}}<option value="{{.ID}}">{{.Name}}</option>
{{end}}</select>
<button onclick="loadDataset()">Load</button>
<span id="loadinfo"></span>
</p>
<textarea id="sql" placeholder="SELECT ..."></textarea>
<p><button onclick="runQuery()">Run</button> <span id="error"></span></p>
<div class="exports">
<a href="/api/export/csv">csv</a>
<a href="/api/export/png">png</a>
<a href="/api/export/svg">svg</a>
<a href="/api/export/script">python</a>
</div>
<img id="chart">
<div id="result"></div>
<script>
async function post(url, body) {
  const r = await fetch(url, {method: 'POST', body: JSON.stringify(body)});
  return r.json();
}
async function loadDataset() {
  const out = await post('/api/load', {id: document.getElementById('dataset').value});
  document.getElementById('loadinfo').textContent =
    out.error ? out.error : out.rows + ' rows, ' + out.columns.length + ' columns';
}
async function runQuery() {
  const out = await post('/api/query', {sql: document.getElementById('sql').value});
  document.getElementById('error').textContent = out.error || '';
  if (out.error) return;
  let html = '<table><tr>';
  for (const c of out.columns) html += '<th>' + c + '</th>';
  html += '</tr>';
  for (const row of out.rows) {
    html += '<tr>';
    for (const c of out.columns) html += '<td>' + (row[c] ?? '') + '</td>';
    html += '</tr>';
  }
  document.getElementById('result').innerHTML = html + '</table>';
  document.getElementById('chart').src = '/api/export/svg?t=' + Date.now();
}
</script>
</body>
</html>
`

func main() {
	flag.Parse()

	srv, err := newServer()
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	if srv.refresher != nil {
		if err := srv.refresher.Start(); err != nil {
			log.Fatalf("refresher error: %v", err)
		}
		defer srv.refresher.Stop()
	}
	if *flagVerbose {
		log.Printf("engine=%s catalog entries=%d", *flagEngine, srv.cat.Len())
	}

	// Register JSON codec for gRPC
	encoding.RegisterCodec(jsonCodec{})

	// Start gRPC server. The failure flag crosses goroutines, hence atomic.
	var grpcFailed atomic.Bool
	if *flagGRPC != "" {
		go func() {
			lis, err := net.Listen("tcp", *flagGRPC)
			if err != nil {
				log.Printf("gRPC listen error: %v", err)
				grpcFailed.Store(true)
				return
			}
			gs := grpc.NewServer()
			registerSQLPlotServer(gs, srv)
			log.Printf("gRPC listening on %s", *flagGRPC)
			if err := gs.Serve(lis); err != nil {
				log.Printf("gRPC serve error: %v", err)
				grpcFailed.Store(true)
			}
		}()
	}

	// Start HTTP server
	if *flagHTTP != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/", srv.handleIndex)
		mux.HandleFunc("/api/datasets", srv.handleDatasets)
		mux.HandleFunc("/api/load", srv.handleLoad)
		mux.HandleFunc("/api/query", srv.handleQuery)
		mux.HandleFunc("/api/suggest", srv.handleSuggest)
		mux.HandleFunc("/api/export/", srv.handleExport)
		mux.HandleFunc("/api/status", srv.handleStatus)
		log.Printf("HTTP listening on %s", *flagHTTP)
		if err := http.ListenAndServe(*flagHTTP, mux); err != nil {
			log.Printf("HTTP serve error: %v", err)
			if grpcFailed.Load() {
				os.Exit(1)
			}
		}
	} else {
		// If HTTP disabled, block on gRPC only
		select {}
	}
}
