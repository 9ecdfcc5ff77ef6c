// Command sqlplot runs one query against a CSV dataset and prints or
// exports the result.
//
// Usage:
//
//	sqlplot -dataset gapminder "SELECT country, AVG(gdpPercap) FROM gapminder GROUP BY country"
//	sqlplot -url https://example.com/data.csv -mode csv "SELECT * FROM data LIMIT 5"
//	sqlplot -file data.csv -chart out.png "SELECT year, SUM(co2) FROM data GROUP BY year"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqlplot/sqlplot/internal/catalog"
	"github.com/sqlplot/sqlplot/internal/chart"
	"github.com/sqlplot/sqlplot/internal/export"
	"github.com/sqlplot/sqlplot/internal/ingest"
	"github.com/sqlplot/sqlplot/internal/query"
	"github.com/sqlplot/sqlplot/internal/relation"
)

type outputMode string

const (
	modeTable outputMode = "table"
	modeCSV   outputMode = "csv"
	modeJSON  outputMode = "json"
)

var (
	flagDataset = flag.String("dataset", "", "Catalog dataset id (see -list)")
	flagURL     = flag.String("url", "", "Ad-hoc CSV URL")
	flagFile    = flag.String("file", "", "Local CSV file")
	flagShp     = flag.String("shp", "", "Local shapefile (.shp)")
	flagEngine  = flag.String("engine", "interp", "Query engine: interp or sqlite")
	flagMode    = flag.String("mode", string(modeTable), "Output mode: table|csv|json")
	flagChart   = flag.String("chart", "", "Write the inferred chart to this .png or .svg file")
	flagScript  = flag.String("script", "", "Write a reproducing Python script to this file")
	flagMaxRows = flag.Int("max-rows", 0, "Row cap for ingestion (0 = default, -1 = unlimited)")
	flagList    = flag.Bool("list", false, "List catalog datasets and exit")
)

func main() {
	flag.Parse()
	exitIfErr(run(flag.Args()))
}

func exitIfErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "sqlplot:", err)
	os.Exit(1)
}

func run(args []string) error {
	cat := catalog.Builtin()
	if *flagList {
		for _, d := range cat.List() {
			fmt.Printf("%-12s %s\n", d.ID, d.Name)
		}
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("no query given")
	}
	queryText := strings.Join(args, " ")
	ctx := context.Background()

	sourceURL, res, err := ingestSource(ctx, cat)
	if err != nil {
		return err
	}
	if res.Truncated {
		fmt.Fprintf(os.Stderr, "note: dataset truncated to %d rows\n", len(res.Relation.Rows))
	}

	var eng query.Engine
	switch *flagEngine {
	case "interp":
		eng = query.Interpreter{}
	case "sqlite":
		eng = query.SQLiteEngine{}
	default:
		return fmt.Errorf("unknown engine %q", *flagEngine)
	}

	out, err := eng.Execute(ctx, res.Relation, queryText)
	if err != nil {
		return err
	}
	spec := chart.Infer(out, queryText)

	if *flagChart != "" {
		if err := writeChart(*flagChart, out, spec); err != nil {
			return err
		}
	}
	if *flagScript != "" {
		f, err := os.Create(*flagScript)
		if err != nil {
			return err
		}
		defer f.Close()
		table := query.FromName(queryText)
		if err := export.Script(f, sourceURL, queryText, table, spec); err != nil {
			return err
		}
	}

	switch outputMode(*flagMode) {
	case modeCSV:
		return export.CSV(os.Stdout, out)
	case modeJSON:
		return export.JSON(os.Stdout, out, true)
	case modeTable:
		printTable(out)
		return nil
	default:
		return fmt.Errorf("unknown output mode %q", *flagMode)
	}
}

// ingestSource resolves exactly one of the source flags and loads it.
func ingestSource(ctx context.Context, cat *catalog.Catalog) (string, *ingest.Result, error) {
	opts := &ingest.Options{MaxRows: *flagMaxRows}
	switch {
	case *flagDataset != "":
		d, ok := cat.Get(*flagDataset)
		if !ok {
			return "", nil, fmt.Errorf("unknown dataset %q (try -list)", *flagDataset)
		}
		res, err := ingest.Fetch(ctx, d.URL, opts)
		return d.URL, res, err
	case *flagURL != "":
		res, err := ingest.Fetch(ctx, *flagURL, opts)
		return *flagURL, res, err
	case *flagFile != "":
		f, err := os.Open(*flagFile)
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		res, err := ingest.Parse(f, opts)
		return *flagFile, res, err
	case *flagShp != "":
		res, err := ingest.ReadShapefile(*flagShp, opts)
		return *flagShp, res, err
	default:
		return "", nil, fmt.Errorf("no data source: use -dataset, -url, -file or -shp")
	}
}

func writeChart(path string, rel *relation.Relation, spec chart.Spec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return export.RenderPNG(f, rel, spec)
	case ".svg":
		return export.RenderSVG(f, rel, spec)
	default:
		return fmt.Errorf("chart file must end in .png or .svg")
	}
}

// printTable writes the relation with padded columns, header first.
func printTable(rel *relation.Relation) {
	widths := make([]int, len(rel.Cols))
	cells := make([][]string, 0, len(rel.Rows)+1)
	cells = append(cells, rel.Cols)
	for _, row := range rel.Rows {
		line := make([]string, len(rel.Cols))
		for i, c := range rel.Cols {
			line[i] = relation.FormatValue(row[c])
		}
		cells = append(cells, line)
	}
	for _, line := range cells {
		for i, s := range line {
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}
	for n, line := range cells {
		parts := make([]string, len(line))
		for i, s := range line {
			parts[i] = fmt.Sprintf("%-*s", widths[i], s)
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
		if n == 0 {
			seps := make([]string, len(widths))
			for i, w := range widths {
				seps[i] = strings.Repeat("-", w)
			}
			fmt.Println(strings.Join(seps, "  "))
		}
	}
	fmt.Printf("(%d rows)\n", len(rel.Rows))
}
