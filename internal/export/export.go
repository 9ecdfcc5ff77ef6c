// Package export serializes result relations and inferred charts into
// downloadable artifacts: CSV text, JSON, raster PNG, vector SVG, and a
// generated plotting script.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/sqlplot/sqlplot/internal/relation"
)

// CSV writes the relation as comma-separated text with a header row.
// Values containing the delimiter or quotes are quoted by the writer, so
// re-parsing the output reconstructs the same columns and values.
func CSV(w io.Writer, rel *relation.Relation) error {
	csvw := csv.NewWriter(w)
	if err := csvw.Write(rel.Cols); err != nil {
		return err
	}
	record := make([]string, len(rel.Cols))
	for _, row := range rel.Rows {
		for i, c := range rel.Cols {
			record[i] = relation.FormatValue(row[c])
		}
		if err := csvw.Write(record); err != nil {
			return err
		}
	}
	csvw.Flush()
	return csvw.Error()
}

// JSON writes the relation as an array of objects in column order per row.
func JSON(w io.Writer, rel *relation.Relation, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	out := make([]map[string]any, len(rel.Rows))
	for i, row := range rel.Rows {
		m := make(map[string]any, len(rel.Cols))
		for _, c := range rel.Cols {
			m[c] = row[c]
		}
		out[i] = m
	}
	return enc.Encode(out)
}
