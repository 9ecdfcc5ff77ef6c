package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/sqlplot/sqlplot/internal/relation"
)

func benchRelation(n int) *relation.Relation {
	rel := relation.New([]string{"country", "year", "value"})
	countries := []string{"Germany", "France", "Poland", "Spain", "Italy"}
	rel.Rows = make([]relation.Row, 0, n)
	for i := 0; i < n; i++ {
		rel.Rows = append(rel.Rows, relation.Row{
			"country": countries[i%len(countries)],
			"year":    float64(2000 + i%25),
			"value":   float64(i),
		})
	}
	return rel
}

func BenchmarkFullScan(b *testing.B) {
	rel := benchRelation(10000)
	eng := Interpreter{}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.Execute(ctx, rel, "SELECT country, value FROM t WHERE country = 'France'"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGroupBy(b *testing.B) {
	rel := benchRelation(10000)
	eng := Interpreter{}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.Execute(ctx, rel, "SELECT country, SUM(value) FROM t GROUP BY country"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOrderByLimit(b *testing.B) {
	for _, n := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			rel := benchRelation(n)
			eng := Interpreter{}
			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := eng.Execute(ctx, rel, "SELECT year, value FROM t ORDER BY value DESC LIMIT 20"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
