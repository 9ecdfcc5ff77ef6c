// Package query executes SQL text against an in-memory Relation.
//
// Two engines implement the same contract: Interpreter, a deliberately
// small clause-extraction interpreter covering a SELECT/WHERE/GROUP BY/
// ORDER BY/LIMIT subset, and SQLiteEngine, which bulk-loads the relation
// into an in-memory SQLite database and delegates arbitrary SQL to it.
package query

import (
	"context"
	"errors"

	"github.com/sqlplot/sqlplot/internal/relation"
)

// ErrInvalidQuery is returned when the query text contains no recognizable
// SELECT ... FROM pattern. All other clause mismatches degrade silently.
var ErrInvalidQuery = errors.New("invalid query")

// Engine runs a query string against a source relation and produces a
// result relation. The source relation is never modified.
type Engine interface {
	Execute(ctx context.Context, rel *relation.Relation, query string) (*relation.Relation, error)
}
