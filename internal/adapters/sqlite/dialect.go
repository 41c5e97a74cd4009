// Package sqlite contains SQLite implementations of repository interfaces.
// The same repositories serve PostgreSQL through the Dialect they are built with.
package sqlite

import (
	"strconv"
	"strings"
)

// Dialect selects the SQL placeholder style for a repository.
type Dialect int

const (
	// DialectSQLite uses ? placeholders.
	DialectSQLite Dialect = iota
	// DialectPostgres uses $1, $2, ... placeholders.
	DialectPostgres
)

// rebind rewrites ? placeholders for the dialect. Queries never contain a
// literal question mark.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
