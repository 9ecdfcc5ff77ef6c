package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sqlplot/sqlplot/internal/ingest"
)

// Refresher prefetches catalog datasets on a cron schedule and keeps the
// latest parsed payload in memory, so interactive loads of a warm dataset
// skip the network round trip. Entirely optional; a cold load falls through
// to a direct fetch.
type Refresher struct {
	catalog *Catalog
	cron    *cron.Cron
	spec    string

	mu    sync.RWMutex
	cache map[string]*ingest.Result

	// fetch is swappable for tests.
	fetch func(ctx context.Context, d Dataset) (*ingest.Result, error)
}

// NewRefresher creates a refresher for the catalog. spec is a standard cron
// expression or descriptor; it defaults to hourly.
func NewRefresher(c *Catalog, spec string) *Refresher {
	if spec == "" {
		spec = "@hourly"
	}
	return &Refresher{
		catalog: c,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		spec:    spec,
		cache:   make(map[string]*ingest.Result),
		fetch: func(ctx context.Context, d Dataset) (*ingest.Result, error) {
			if d.Shapefile != "" {
				return ingest.ReadShapefile(d.Shapefile, nil)
			}
			return ingest.Fetch(ctx, d.URL, nil)
		},
	}
}

// Start schedules the refresh job and runs an immediate warm-up pass in the
// background.
func (r *Refresher) Start() error {
	if _, err := r.cron.AddFunc(r.spec, r.RefreshAll); err != nil {
		return err
	}
	r.cron.Start()
	go r.RefreshAll()
	log.Printf("catalog refresher started (%d datasets, schedule %q)", r.catalog.Len(), r.spec)
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Println("catalog refresher stopped")
}

// RefreshAll fetches every catalog dataset once, keeping whatever cached
// payload a failing dataset had before.
func (r *Refresher) RefreshAll() {
	for _, d := range r.catalog.List() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		res, err := r.fetch(ctx, d)
		cancel()
		if err != nil {
			log.Printf("refresh %q failed: %v", d.ID, err)
			continue
		}
		r.mu.Lock()
		r.cache[d.ID] = res
		r.mu.Unlock()
	}
}

// Cached returns the most recent prefetched payload for a dataset id.
func (r *Refresher) Cached(id string) (*ingest.Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.cache[id]
	return res, ok
}
