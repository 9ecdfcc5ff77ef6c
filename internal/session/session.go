// Package session holds the process-wide interactive state: the active
// dataset, the last query and its result, and the inferred chart.
//
// Lifecycle: engine-ready -> dataset-loaded -> query-executed. Loading a
// new dataset clears the prior query and result; every load or query starts
// a new generation and cancels the in-flight operation it supersedes, so a
// stale response can never overwrite newer state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sqlplot/sqlplot/internal/catalog"
	"github.com/sqlplot/sqlplot/internal/chart"
	"github.com/sqlplot/sqlplot/internal/complete"
	"github.com/sqlplot/sqlplot/internal/ingest"
	"github.com/sqlplot/sqlplot/internal/query"
	"github.com/sqlplot/sqlplot/internal/relation"
)

// State enumerates the session lifecycle.
type State int

const (
	EngineReady State = iota
	DatasetLoaded
	QueryExecuted
)

func (s State) String() string {
	switch s {
	case DatasetLoaded:
		return "dataset-loaded"
	case QueryExecuted:
		return "query-executed"
	default:
		return "engine-ready"
	}
}

// Mode selects the execution engine.
type Mode string

const (
	ModeInterp Mode = "interp"
	ModeSQLite Mode = "sqlite"
)

var (
	// ErrNoDataset is returned when a query runs before any dataset load.
	ErrNoDataset = errors.New("no dataset loaded")
	// ErrSuperseded is returned to an operation that finished after a newer
	// one started; its result has been discarded.
	ErrSuperseded = errors.New("operation superseded")
)

// LoadInfo describes a completed dataset load.
type LoadInfo struct {
	ID        string   `json:"id"`
	Dataset   string   `json:"dataset"`
	Table     string   `json:"table"`
	Columns   []string `json:"columns"`
	Rows      int      `json:"rows"`
	Truncated bool     `json:"truncated"`
}

// Result describes a completed query execution.
type Result struct {
	ID       string             `json:"id"`
	Query    string             `json:"query"`
	Relation *relation.Relation `json:"-"`
	Chart    chart.Spec         `json:"chart"`
	Elapsed  time.Duration      `json:"-"`
}

// Snapshot is a consistent read of the current view, used by the export
// adapters.
type Snapshot struct {
	State    State
	Dataset  catalog.Dataset
	Query    string
	Relation *relation.Relation
	Chart    chart.Spec
}

// Session is safe for concurrent use; operations serialize on an internal
// mutex and long-running work happens outside of it under a generation
// token.
type Session struct {
	mu     sync.Mutex
	state  State
	mode   Mode
	engine query.Engine

	dataset    catalog.Dataset
	datasetRel *relation.Relation
	queryText  string
	result     *relation.Relation
	chartSpec  chart.Spec

	gen    uint64
	cancel context.CancelFunc

	// fetch is swappable for tests and for a warm catalog cache.
	fetch func(ctx context.Context, d catalog.Dataset, opts *ingest.Options) (*ingest.Result, error)
}

// New creates an engine-ready session in the given mode.
func New(mode Mode) *Session {
	s := &Session{mode: mode}
	switch mode {
	case ModeSQLite:
		s.engine = query.SQLiteEngine{}
	default:
		s.mode = ModeInterp
		s.engine = query.Interpreter{}
	}
	s.fetch = func(ctx context.Context, d catalog.Dataset, opts *ingest.Options) (*ingest.Result, error) {
		if d.Shapefile != "" {
			return ingest.ReadShapefile(d.Shapefile, opts)
		}
		return ingest.Fetch(ctx, d.URL, opts)
	}
	return s
}

// SetFetcher overrides the dataset fetcher, e.g. to consult a catalog
// refresher cache before hitting the network.
func (s *Session) SetFetcher(fn func(ctx context.Context, d catalog.Dataset, opts *ingest.Options) (*ingest.Result, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch = fn
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode reports the configured engine mode.
func (s *Session) Mode() Mode { return s.mode }

// begin starts a new generation, cancelling any in-flight operation.
func (s *Session) begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	return ctx, s.gen
}

// current reports whether gen is still the newest generation.
func (s *Session) current(gen uint64) bool {
	return s.gen == gen
}

// LoadDataset fetches and parses a dataset, replacing the active relation
// and clearing the prior query and result. On failure the prior state is
// retained.
func (s *Session) LoadDataset(ctx context.Context, d catalog.Dataset) (*LoadInfo, error) {
	ctx, gen := s.begin(ctx)

	opts := &ingest.Options{}
	if s.mode == ModeSQLite {
		// The embedded engine bulk-inserts the full set.
		opts.MaxRows = -1
	}
	res, err := s.fetch(ctx, d, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return nil, ErrSuperseded
	}
	s.dataset = d
	s.datasetRel = res.Relation
	s.queryText = ""
	s.result = nil
	s.chartSpec = chart.Spec{}
	s.state = DatasetLoaded

	return &LoadInfo{
		ID:        uuid.NewString(),
		Dataset:   d.ID,
		Table:     d.Table,
		Columns:   res.Relation.Cols,
		Rows:      len(res.Relation.Rows),
		Truncated: res.Truncated,
	}, nil
}

// Run executes a query against the active dataset and infers a chart for
// the result. A failed query leaves the prior result in place.
func (s *Session) Run(ctx context.Context, queryText string) (*Result, error) {
	s.mu.Lock()
	rel := s.datasetRel
	s.mu.Unlock()
	if rel == nil {
		return nil, ErrNoDataset
	}

	ctx, gen := s.begin(ctx)
	start := time.Now()

	out, err := s.engine.Execute(ctx, rel, queryText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	spec := chart.Infer(out, queryText)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return nil, ErrSuperseded
	}
	s.queryText = queryText
	s.result = out
	s.chartSpec = spec
	s.state = QueryExecuted

	return &Result{
		ID:       uuid.NewString(),
		Query:    queryText,
		Relation: out,
		Chart:    spec,
		Elapsed:  time.Since(start),
	}, nil
}

// Suggest proposes completions for the current editor content using the
// active dataset's columns.
func (s *Session) Suggest(text string, cursor int) []string {
	s.mu.Lock()
	var cols []string
	if s.datasetRel != nil {
		cols = s.datasetRel.Cols
	}
	s.mu.Unlock()
	return complete.Suggest(text, cursor, cols)
}

// Snapshot returns a consistent view of the session for export.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:    s.state,
		Dataset:  s.dataset,
		Query:    s.queryText,
		Relation: s.result,
		Chart:    s.chartSpec,
	}
}
