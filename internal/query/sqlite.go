package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sqlplot/sqlplot/internal/relation"
)

// SQLiteEngine delegates query execution to an embedded SQLite database.
// The source relation is bulk-inserted into a fresh in-memory database under
// the query's FROM name, then the query runs unmodified. This path accepts
// the full SQLite dialect instead of the interpreter's subset.
type SQLiteEngine struct{}

// Execute loads rel into an in-memory SQLite table and runs q against it.
func (SQLiteEngine) Execute(ctx context.Context, rel *relation.Relation, q string) (*relation.Relation, error) {
	table := FromName(q)
	if table == "" {
		return nil, fmt.Errorf("%w: no SELECT ... FROM pattern", ErrInvalidQuery)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if err := loadRelation(ctx, db, table, rel); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := relation.New(cols)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := relation.Row{}
		for i, c := range cols {
			row[c] = normalizeValue(vals[i])
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rows.Err()
}

func loadRelation(ctx context.Context, db *sql.DB, table string, rel *relation.Relation) error {
	if len(rel.Cols) == 0 {
		return fmt.Errorf("relation has no columns")
	}

	defs := make([]string, len(rel.Cols))
	marks := make([]string, len(rel.Cols))
	for i, c := range rel.Cols {
		typ := "TEXT"
		if columnNumeric(rel, c) {
			typ = "REAL"
		}
		defs[i] = quoteIdent(c) + " " + typ
		marks[i] = "?"
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s VALUES (%s)", quoteIdent(table), strings.Join(marks, ", ")))
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, row := range rel.Rows {
		args := make([]any, len(rel.Cols))
		for i, c := range rel.Cols {
			args[i] = row[c]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("bulk insert: %w", err)
		}
	}
	stmt.Close()
	return tx.Commit()
}

// columnNumeric reports whether every non-nil value of the column is a
// number. Unlike relation.Kind it ignores temporal naming, since SQLite
// needs the storage type, not the chart semantics.
func columnNumeric(rel *relation.Relation, col string) bool {
	seen := false
	for _, row := range rel.Rows {
		v := row[col]
		if v == nil {
			continue
		}
		if !relation.IsNumber(v) {
			return false
		}
		seen = true
	}
	return seen
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int64:
		return float64(t)
	case float64:
		return t
	case []byte:
		return string(t)
	case string:
		return t
	case bool:
		if t {
			return float64(1)
		}
		return float64(0)
	default:
		return fmt.Sprint(t)
	}
}
