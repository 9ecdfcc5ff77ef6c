// Package complete proposes completions for a partially typed query.
//
// Matching is a case-insensitive prefix check against a fixed keyword list
// and the loaded column names, keywords first. There is no fuzzy matching or
// ranking beyond that ordering.
package complete

import (
	"regexp"
	"strings"
)

// maxSuggestions caps the returned list.
const maxSuggestions = 10

// Keywords is the fixed completion vocabulary. It deliberately advertises
// more operators than the interpreter evaluates; the SQLite engine path
// accepts all of them.
var Keywords = []string{
	"SELECT", "FROM", "WHERE", "GROUP BY", "ORDER BY", "LIMIT",
	"AND", "OR", "NOT", "IN", "LIKE", "AS", "ASC", "DESC",
	"COUNT", "SUM", "AVG", "MIN", "MAX",
}

var wordRe = regexp.MustCompile(`\w+$`)

// CurrentWord extracts the partial word ending at the cursor offset. Returns
// the empty string when the cursor does not sit at the end of a word.
func CurrentWord(text string, cursor int) string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	return wordRe.FindString(text[:cursor])
}

// Suggest returns keyword matches followed by column-name matches for the
// word under the cursor, capped at maxSuggestions. An empty current word
// yields no suggestions.
func Suggest(text string, cursor int, columns []string) []string {
	word := CurrentWord(text, cursor)
	if word == "" {
		return nil
	}
	prefix := strings.ToLower(word)

	out := make([]string, 0, maxSuggestions)
	for _, kw := range Keywords {
		if strings.HasPrefix(strings.ToLower(kw), prefix) {
			out = append(out, kw)
			if len(out) == maxSuggestions {
				return out
			}
		}
	}
	for _, col := range columns {
		if strings.HasPrefix(strings.ToLower(col), prefix) {
			out = append(out, col)
			if len(out) == maxSuggestions {
				return out
			}
		}
	}
	return out
}
