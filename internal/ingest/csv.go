// Package ingest fetches remote dataset payloads and converts them into
// relations.
//
// What: HTTP(S) GET of a public CSV resource, followed by parsing into a
// relation with per-value typing (numbers become float64, empty fields nil).
// How: encoding/csv with lenient settings (lazy quotes, ragged rows),
// transparent gzip, UTF-8 BOM stripping and a Latin-1 fallback for payloads
// that are not valid UTF-8. Typing is per value, not per column; column
// semantics are decided later by the consumer.
package ingest

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/sqlplot/sqlplot/internal/relation"
)

// ErrDatasetLoad wraps any network or parse failure while ingesting a
// dataset. Callers keep their prior state when they see it.
var ErrDatasetLoad = errors.New("dataset load failed")

// DefaultMaxRows caps ingestion for the interpreter path. The SQLite engine
// path loads the full set by passing MaxRows < 0.
const DefaultMaxRows = 10000

const defaultHTTPTimeout = 30 * time.Second

// Options configures ingestion. The zero value applies the defaults.
type Options struct {
	// MaxRows caps the number of data rows. 0 means DefaultMaxRows,
	// negative means unlimited.
	MaxRows int

	// HTTPTimeout bounds the fetch when the context carries no deadline.
	HTTPTimeout time.Duration
}

// Result carries the parsed relation and ingestion metadata.
type Result struct {
	Relation  *relation.Relation
	Truncated bool
	Encoding  string // "utf-8", "utf-8-bom" or "latin-1"
}

func (o *Options) maxRows() int {
	switch {
	case o == nil || o.MaxRows == 0:
		return DefaultMaxRows
	case o.MaxRows < 0:
		return 0
	default:
		return o.MaxRows
	}
}

// Fetch downloads a CSV resource over plain HTTP(S) GET (no auth) and
// parses it. Prior state is the caller's to keep on failure.
func Fetch(ctx context.Context, url string, opts *Options) (*Result, error) {
	timeout := defaultHTTPTimeout
	if opts != nil && opts.HTTPTimeout > 0 {
		timeout = opts.HTTPTimeout
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetLoad, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrDatasetLoad, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: unexpected status %s", ErrDatasetLoad, url, resp.Status)
	}
	res, err := Parse(resp.Body, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrDatasetLoad, url, err)
	}
	return res, nil
}

// Parse reads delimited text into a relation. The first record is always
// the header; ragged data rows are padded with nil or silently truncated.
func Parse(src io.Reader, opts *Options) (*Result, error) {
	raw, err := io.ReadAll(maybeGzip(src))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	data, encoding := decodePayload(raw)

	csvr := csv.NewReader(bytes.NewReader(data))
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true
	csvr.TrimLeadingSpace = true

	header, err := csvr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("col_%d", i+1)
		}
		cols[i] = h
	}

	rel := relation.New(cols)
	limit := (&Options{}).maxRows()
	if opts != nil {
		limit = opts.maxRows()
	}
	truncated := false

	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip unreadable records rather than aborting the dataset.
			continue
		}
		if limit > 0 && len(rel.Rows) >= limit {
			truncated = true
			break
		}
		row := relation.Row{}
		for i, c := range cols {
			if i < len(rec) {
				row[c] = relation.ParseValue(rec[i])
			} else {
				row[c] = nil
			}
		}
		rel.Rows = append(rel.Rows, row)
	}

	return &Result{Relation: rel, Truncated: truncated, Encoding: encoding}, nil
}

func maybeGzip(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(2)
	if len(magic) >= 2 && magic[0] == 0x1F && magic[1] == 0x8B {
		if gr, err := gzip.NewReader(br); err == nil {
			return gr
		}
	}
	return br
}

// decodePayload strips a UTF-8 BOM and falls back to Latin-1 when the bytes
// are not valid UTF-8.
func decodePayload(b []byte) ([]byte, string) {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:], "utf-8-bom"
	}
	if utf8.Valid(b) {
		return b, "utf-8"
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return b, "utf-8"
	}
	return decoded, "latin-1"
}
