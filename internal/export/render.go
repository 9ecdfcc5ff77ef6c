package export

import (
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/sqlplot/sqlplot/internal/chart"
	"github.com/sqlplot/sqlplot/internal/relation"
)

// Fixed output dimensions for exported images.
const (
	renderWidth  = 800
	renderHeight = 500
)

// RenderPNG rasterizes the chart at the fixed pixel dimensions.
func RenderPNG(w io.Writer, rel *relation.Relation, spec chart.Spec) error {
	return render(w, rel, spec, gochart.PNG)
}

// RenderSVG writes the chart as a vector image.
func RenderSVG(w io.Writer, rel *relation.Relation, spec chart.Spec) error {
	return render(w, rel, spec, gochart.SVG)
}

func render(w io.Writer, rel *relation.Relation, spec chart.Spec, rp gochart.RendererProvider) error {
	if len(rel.Rows) == 0 {
		return fmt.Errorf("nothing to render: empty result")
	}
	switch spec.Type {
	case chart.Bar:
		graph := gochart.BarChart{
			Title:  spec.Title,
			Width:  renderWidth,
			Height: renderHeight,
			Bars:   values(rel, spec),
		}
		return graph.Render(rp, w)
	case chart.Pie:
		graph := gochart.PieChart{
			Title:  spec.Title,
			Width:  renderWidth,
			Height: renderHeight,
			Values: values(rel, spec),
		}
		return graph.Render(rp, w)
	default:
		return renderXY(w, rel, spec, rp)
	}
}

// renderXY draws line and scatter charts, one series per trace.
func renderXY(w io.Writer, rel *relation.Relation, spec chart.Spec, rp gochart.RendererProvider) error {
	var series []gochart.Series
	for _, tr := range chart.Traces(rel, spec) {
		s := gochart.ContinuousSeries{
			Name:    tr.Name,
			XValues: numbers(tr.X),
			YValues: numbers(tr.Y),
		}
		if spec.Type == chart.Scatter {
			s.Style = gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    4,
			}
		}
		series = append(series, s)
	}
	graph := gochart.Chart{
		Title:  spec.Title,
		Width:  renderWidth,
		Height: renderHeight,
		XAxis:  gochart.XAxis{Name: spec.X},
		YAxis:  gochart.YAxis{Name: spec.Y},
		Series: series,
	}
	return graph.Render(rp, w)
}

// values converts label/value rows for bar and pie charts. Non-numeric
// values coerce to 0, consistent with the interpreter's aggregates.
func values(rel *relation.Relation, spec chart.Spec) []gochart.Value {
	out := make([]gochart.Value, 0, len(rel.Rows))
	for _, row := range rel.Rows {
		out = append(out, gochart.Value{
			Label: relation.FormatValue(row[spec.X]),
			Value: relation.ToNumber(row[spec.Y]),
		})
	}
	return out
}

func numbers(vals []any) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = relation.ToNumber(v)
	}
	return out
}
