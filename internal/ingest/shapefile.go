package ingest

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/sqlplot/sqlplot/internal/relation"
)

// ReadShapefile converts a .shp attribute table into a relation. Each
// record's DBF attributes become columns; point geometries additionally
// contribute numeric "x" and "y" columns so the result charts as a scatter.
// When an attribute already uses one of those names the geometry column
// yields to it and moves to a "geom_" prefixed name.
func ReadShapefile(path string, opts *Options) (*Result, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open shapefile: %v", ErrDatasetLoad, err)
	}
	defer r.Close()

	fields := r.Fields()
	cols := make([]string, 0, len(fields)+2)
	for _, fld := range fields {
		cols = append(cols, strings.TrimRight(fld.String(), "\x00"))
	}
	hasPoints := false
	xCol := freeColumn(cols, "x")
	yCol := freeColumn(cols, "y")

	limit := (&Options{}).maxRows()
	if opts != nil {
		limit = opts.maxRows()
	}

	var rows []relation.Row
	truncated := false
	for r.Next() {
		if limit > 0 && len(rows) >= limit {
			truncated = true
			break
		}
		idx, shape := r.Shape()
		row := relation.Row{}
		for fi, c := range cols {
			row[c] = relation.ParseValue(r.ReadAttribute(idx, fi))
		}
		if p, ok := shape.(*shp.Point); ok {
			row[xCol] = p.X
			row[yCol] = p.Y
			hasPoints = true
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no records in shapefile", ErrDatasetLoad)
	}

	if hasPoints {
		cols = append(cols, xCol, yCol)
	}
	rel := relation.New(cols)
	rel.Rows = rows
	return &Result{Relation: rel, Truncated: truncated, Encoding: "dbf"}, nil
}

// freeColumn returns name unless a DBF attribute already claims it, in which
// case the geometry column moves to a "geom_" variant. Comparison is
// case-insensitive to match column lookup.
func freeColumn(cols []string, name string) string {
	taken := func(n string) bool {
		for _, c := range cols {
			if strings.EqualFold(c, n) {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	n := "geom_" + name
	for i := 2; taken(n); i++ {
		n = fmt.Sprintf("geom_%s%d", name, i)
	}
	return n
}
