package postgres

import (
	"fmt"
	"strings"
)

// predicate is one WHERE fragment plus its bound value. Clauses use %d as
// the placeholder position so the builder can number them after composition.
type predicate struct {
	clause string // e.g. "timestamp >= $%d"
	arg    interface{}
}

// whereBuilder composes predicate fragments as data instead of
// concatenating caller input into SQL. Arguments always travel as bind
// parameters, never as interpolated strings.
type whereBuilder struct {
	preds []predicate
}

func (b *whereBuilder) add(clause string, arg interface{}) {
	b.preds = append(b.preds, predicate{clause: clause, arg: arg})
}

// build renders the composed WHERE clause with placeholders numbered from
// next. Returns the clause (empty when no predicates), the args, and the
// next free placeholder position for LIMIT/OFFSET to continue from.
func (b *whereBuilder) build(next int) (string, []interface{}, int) {
	if len(b.preds) == 0 {
		return "", nil, next
	}

	parts := make([]string, 0, len(b.preds))
	args := make([]interface{}, 0, len(b.preds))
	for _, p := range b.preds {
		parts = append(parts, fmt.Sprintf(p.clause, next))
		args = append(args, p.arg)
		next++
	}
	return " WHERE " + strings.Join(parts, " AND "), args, next
}

// orderDirection maps the filter's sort flag to a SQL keyword. The keyword
// is chosen here, never taken from the caller.
func orderDirection(descending bool) string {
	if descending {
		return "DESC"
	}
	return "ASC"
}
