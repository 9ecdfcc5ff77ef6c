package query

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sqlplot/sqlplot/internal/relation"
)

// Interpreter evaluates a small SQL subset by extracting each clause
// independently from the query text. Clauses are not parsed as one grammar:
// a malformed clause simply fails to match its pattern and is ignored, so
// the result degrades silently instead of erroring. Only a missing
// SELECT ... FROM pattern is a hard error.
type Interpreter struct{}

// Clause patterns. Each extractor below is a pure function over the query
// text; extraction order is irrelevant because the patterns are independent.
var (
	selectFromRe = regexp.MustCompile(`(?is)\bselect\s+(.+?)\s+from\s+([A-Za-z_][\w.]*)`)
	whereRe      = regexp.MustCompile(`(?is)\bwhere\s+(\w+)\s*=\s*(?:'([^']*)'|"([^"]*)"|([\w.\-]+))`)
	whereConjRe  = regexp.MustCompile(`(?is)^\s+(?:and|or)\b`)
	groupByRe    = regexp.MustCompile(`(?is)\bgroup\s+by\s+(\w+)`)
	orderByRe    = regexp.MustCompile(`(?is)\border\s+by\s+(\w+)(?:\s+(asc|desc))?`)
	limitRe      = regexp.MustCompile(`(?is)\blimit\s+(\d+)`)
	aggregateRe  = regexp.MustCompile(`(?i)^(count|sum|avg|min|max)\s*\(\s*(\*|\w+)\s*\)$`)
)

// selectItem is one entry of the SELECT list: either a plain column, the
// star, or a single-level aggregate call.
type selectItem struct {
	Text string // the item as written, used for output column naming
	Col  string
	Func string // upper-case aggregate name, empty for plain columns
	Star bool
}

func (it selectItem) isAggregate() bool { return it.Func != "" }

// outName is the column name the item produces in the result.
func (it selectItem) outName() string {
	if it.Func == "" {
		return it.Col
	}
	return it.Func + "(" + it.Col + ")"
}

// extractSelectFrom pulls the SELECT list and the FROM name out of the
// query. The FROM name is referenced for presentation only; execution always
// targets the already-loaded relation.
func extractSelectFrom(q string) (list, from string, ok bool) {
	m := selectFromRe.FindStringSubmatch(q)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}

// extractWhere matches exactly one simple equality predicate. Compound
// expressions and other operators do not match and default to all rows; a
// predicate continuing with AND/OR after the first equality is rejected as a
// whole rather than filtered on its first conjunct.
func extractWhere(q string) (col, val string, ok bool) {
	loc := whereRe.FindStringIndex(q)
	if loc == nil {
		return "", "", false
	}
	if whereConjRe.MatchString(q[loc[1]:]) {
		return "", "", false
	}
	m := whereRe.FindStringSubmatch(q)
	col = m[1]
	switch {
	case m[2] != "":
		val = m[2]
	case m[3] != "":
		val = m[3]
	default:
		val = m[4]
	}
	return col, val, true
}

func extractGroupBy(q string) (string, bool) {
	m := groupByRe.FindStringSubmatch(q)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func extractOrderBy(q string) (col string, desc bool, ok bool) {
	m := orderByRe.FindStringSubmatch(q)
	if m == nil {
		return "", false, false
	}
	return m[1], strings.EqualFold(m[2], "desc"), true
}

func extractLimit(q string) (int, bool) {
	m := limitRe.FindStringSubmatch(q)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseSelectList(list string) []selectItem {
	var items []selectItem
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "*" {
			items = append(items, selectItem{Text: "*", Star: true})
			continue
		}
		if m := aggregateRe.FindStringSubmatch(part); m != nil {
			items = append(items, selectItem{
				Text: part,
				Func: strings.ToUpper(m[1]),
				Col:  m[2],
			})
			continue
		}
		items = append(items, selectItem{Text: part, Col: part})
	}
	return items
}

// Execute runs the query against rel. Execution order is fixed: filter,
// group/aggregate, sort, truncate, project.
func (Interpreter) Execute(ctx context.Context, rel *relation.Relation, q string) (*relation.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, _, ok := extractSelectFrom(q)
	if !ok {
		return nil, fmt.Errorf("%w: no SELECT ... FROM pattern", ErrInvalidQuery)
	}
	items := parseSelectList(list)

	rows := filterRows(rel, q)

	var out *relation.Relation
	grouped := false
	if key, hasGroup := extractGroupBy(q); hasGroup {
		out = aggregateGroups(rel, rows, key, items)
		grouped = true
	} else if hasAggregate(items) {
		// Aggregates without GROUP BY collapse the whole relation into a
		// single group with no key column.
		out = aggregateGroups(rel, rows, "", items)
		grouped = true
	} else {
		out = &relation.Relation{Cols: rel.Cols, Rows: rows}
	}

	sortRows(out, q)

	if n, hasLimit := extractLimit(q); hasLimit && n < len(out.Rows) {
		out.Rows = out.Rows[:n]
	}

	if !grouped {
		out = project(out, items)
	}
	return out, nil
}

func hasAggregate(items []selectItem) bool {
	for _, it := range items {
		if it.isAggregate() {
			return true
		}
	}
	return false
}

// filterRows applies the WHERE equality predicate when one was extracted.
// Comparison is on the canonical string form of each value, so a numeric
// literal matches a numeric field.
func filterRows(rel *relation.Relation, q string) []relation.Row {
	col, val, ok := extractWhere(q)
	if !ok {
		return append([]relation.Row(nil), rel.Rows...)
	}
	canon, found := rel.Lookup(col)
	if !found {
		return append([]relation.Row(nil), rel.Rows...)
	}
	want := relation.FormatValue(relation.ParseValue(val))
	var out []relation.Row
	for _, row := range rel.Rows {
		if relation.FormatValue(row[canon]) == want {
			out = append(out, row)
		}
	}
	return out
}

// aggregateGroups partitions rows by the literal value of the group key
// (first-seen order) and computes the aggregate items per partition.
// Non-aggregated SELECT columns other than the key are dropped. An empty
// key collapses everything into a single anonymous group.
func aggregateGroups(rel *relation.Relation, rows []relation.Row, key string, items []selectItem) *relation.Relation {
	keyCol := ""
	if key != "" {
		if canon, ok := rel.Lookup(key); ok {
			keyCol = canon
		} else {
			keyCol = key
		}
	}

	var order []string
	groups := map[string][]relation.Row{}
	for _, row := range rows {
		gk := ""
		if keyCol != "" {
			gk = relation.FormatValue(row[keyCol])
		}
		if _, seen := groups[gk]; !seen {
			order = append(order, gk)
		}
		groups[gk] = append(groups[gk], row)
	}

	var cols []string
	if keyCol != "" {
		cols = append(cols, keyCol)
	}
	for _, it := range items {
		if it.isAggregate() {
			cols = append(cols, it.outName())
		}
	}

	out := relation.New(cols)
	for _, gk := range order {
		members := groups[gk]
		row := relation.Row{}
		if keyCol != "" {
			row[keyCol] = members[0][keyCol]
		}
		for _, it := range items {
			if !it.isAggregate() {
				continue
			}
			row[it.outName()] = computeAggregate(rel, members, it)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// computeAggregate evaluates one aggregate over a group. Non-numeric values
// coerce to 0 for SUM/AVG accumulation and participate in MIN/MAX as 0.
func computeAggregate(rel *relation.Relation, rows []relation.Row, it selectItem) any {
	if it.Func == "COUNT" {
		if it.Col == "*" {
			return float64(len(rows))
		}
		canon, _ := rel.Lookup(it.Col)
		n := 0
		for _, row := range rows {
			if row[canon] != nil {
				n++
			}
		}
		return float64(n)
	}

	canon, _ := rel.Lookup(it.Col)
	var sum float64
	var min, max float64
	for i, row := range rows {
		v := relation.ToNumber(row[canon])
		sum += v
		if i == 0 || v < min {
			min = v
		}
		if i == 0 || v > max {
			max = v
		}
	}
	switch it.Func {
	case "SUM":
		return sum
	case "AVG":
		if len(rows) == 0 {
			return float64(0)
		}
		return sum / float64(len(rows))
	case "MIN":
		return min
	case "MAX":
		return max
	}
	return nil
}

// sortRows applies the ORDER BY clause in place. The sort is stable; values
// compare numerically when both sides are numbers, lexicographically on
// their string form otherwise.
func sortRows(rel *relation.Relation, q string) {
	col, desc, ok := extractOrderBy(q)
	if !ok {
		return
	}
	canon, found := rel.Lookup(col)
	if !found {
		return
	}
	sort.SliceStable(rel.Rows, func(i, j int) bool {
		less := compareValues(rel.Rows[i][canon], rel.Rows[j][canon])
		if desc {
			return compareValues(rel.Rows[j][canon], rel.Rows[i][canon])
		}
		return less
	})
}

func compareValues(a, b any) bool {
	an, aok := a.(float64)
	bn, bok := b.(float64)
	if aok && bok {
		return an < bn
	}
	return relation.FormatValue(a) < relation.FormatValue(b)
}

// project restricts the result to the SELECT list, preserving the listed
// order. Unknown column names yield empty columns rather than errors.
func project(rel *relation.Relation, items []selectItem) *relation.Relation {
	for _, it := range items {
		if it.Star {
			return rel
		}
	}
	cols := make([]string, 0, len(items))
	canon := make([]string, 0, len(items))
	for _, it := range items {
		cols = append(cols, it.Col)
		if c, ok := rel.Lookup(it.Col); ok {
			canon = append(canon, c)
		} else {
			canon = append(canon, "")
		}
	}
	out := relation.New(cols)
	for _, row := range rel.Rows {
		nr := relation.Row{}
		for i, c := range cols {
			if canon[i] != "" {
				nr[c] = row[canon[i]]
			} else {
				nr[c] = nil
			}
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// FromName exposes the FROM clause table name for presentation purposes.
func FromName(q string) string {
	_, from, ok := extractSelectFrom(q)
	if !ok {
		return ""
	}
	return from
}
