package export

import (
	"io"
	"text/template"

	"github.com/sqlplot/sqlplot/internal/chart"
)

// scriptTemplate reproduces the current view as a standalone Python script:
// it embeds the dataset URL and the literal SQL text and issues default
// plotting calls for the inferred chart.
var scriptTemplate = template.Must(template.New("script").Parse(`#!/usr/bin/env python3
# Generated by sqlplot. Re-runs the query below against the source dataset
# and reproduces the inferred chart.
import pandas as pd
import pandasql
import plotly.express as px

DATASET_URL = {{printf "%q" .DatasetURL}}
QUERY = {{printf "%q" .Query}}

{{.Table}} = pd.read_csv(DATASET_URL)
result = pandasql.sqldf(QUERY, {"{{.Table}}": {{.Table}}})

{{if eq .Kind "line" -}}
fig = px.line(result, x={{printf "%q" .X}}, y={{printf "%q" .Y}}{{if .SeriesKey}}, color={{printf "%q" .SeriesKey}}{{end}}, title={{printf "%q" .Title}})
{{- else if eq .Kind "bar" -}}
fig = px.bar(result, x={{printf "%q" .X}}, y={{printf "%q" .Y}}, title={{printf "%q" .Title}})
{{- else if eq .Kind "pie" -}}
fig = px.pie(result, names={{printf "%q" .X}}, values={{printf "%q" .Y}}, title={{printf "%q" .Title}})
{{- else -}}
fig = px.scatter(result, x={{printf "%q" .X}}, y={{printf "%q" .Y}}{{if .SeriesKey}}, color={{printf "%q" .SeriesKey}}{{end}}, title={{printf "%q" .Title}})
{{- end}}
fig.show()
`))

type scriptData struct {
	DatasetURL string
	Query      string
	Table      string
	Kind       string
	X, Y       string
	SeriesKey  string
	Title      string
}

// Script writes a downloadable Python script for the dataset, query and
// inferred chart. table is the reference name the query's FROM clause uses.
func Script(w io.Writer, datasetURL, query, table string, spec chart.Spec) error {
	if table == "" {
		table = "dataset"
	}
	return scriptTemplate.Execute(w, scriptData{
		DatasetURL: datasetURL,
		Query:      query,
		Table:      table,
		Kind:       string(spec.Type),
		X:          spec.X,
		Y:          spec.Y,
		SeriesKey:  spec.SeriesKey,
		Title:      spec.Title,
	})
}
