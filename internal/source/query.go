package source

import (
	"strings"
)

// Comparison operators a SelectQuery condition may use. Restricting the set
// keeps user-controlled catalog data out of the SQL text; values always bind
// through placeholders.
const (
	OpEqual   = "="
	OpGreater = ">"
)

// Condition is one ANDed predicate of a SelectQuery.
type Condition struct {
	Column string
	Op     string
	Value  interface{}
}

// SelectQuery is an engine-neutral description of a read. Build renders it
// for a concrete dialect; every identifier is quoted and every value becomes
// a bind parameter.
type SelectQuery struct {
	Schema     string
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    string
	Descending bool
	Limit      int
}

// Build renders the query for the given dialect and returns the SQL text with
// its bind arguments in placeholder order.
func (q SelectQuery) Build(d Dialect) (string, []interface{}) {
	var sb strings.Builder
	args := make([]interface{}, 0, len(q.Conditions))

	var top, suffix string
	if q.Limit > 0 {
		top, suffix = d.LimitClause(q.Limit)
	}

	sb.WriteString("SELECT ")
	if top != "" {
		sb.WriteString(top)
		sb.WriteString(" ")
	}
	for i, col := range q.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.QuoteIdentifier(col))
	}

	sb.WriteString(" FROM ")
	if q.Schema != "" {
		sb.WriteString(d.QuoteIdentifier(q.Schema))
		sb.WriteString(".")
	}
	sb.WriteString(d.QuoteIdentifier(q.Table))

	for i, cond := range q.Conditions {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(d.QuoteIdentifier(cond.Column))
		sb.WriteString(" ")
		sb.WriteString(cond.Op)
		sb.WriteString(" ")
		sb.WriteString(d.Placeholder(len(args) + 1))
		args = append(args, cond.Value)
	}

	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(d.QuoteIdentifier(q.OrderBy))
		if q.Descending {
			sb.WriteString(" DESC")
		}
	}

	if suffix != "" {
		sb.WriteString(" ")
		sb.WriteString(suffix)
	}
	return sb.String(), args
}
