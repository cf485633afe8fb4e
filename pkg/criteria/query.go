package criteria

import (
	"fmt"
	"strings"
)

// Op is a comparison operator understood by every product store.
type Op int

const (
	// Eq matches documents whose field equals the value.
	Eq Op = iota
	// Lt matches documents whose field is strictly less than the value.
	Lt
	// Gt matches documents whose field is strictly greater than the value.
	Gt
	// Contains matches documents whose string field contains the value,
	// ignoring case.
	Contains
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "eq"
	case Lt:
		return "lt"
	case Gt:
		return "gt"
	case Contains:
		return "contains"
	default:
		return "unknown"
	}
}

// Direction represents sort direction.
type Direction int

const (
	// Asc represents ascending order.
	Asc Direction = iota
	// Desc represents descending order.
	Desc
)

// Condition is a single field predicate. Conditions in a Query are ANDed.
type Condition struct {
	Field string
	Op    Op
	Value interface{}
}

// Sort names the field and direction a result set is ordered by.
type Sort struct {
	Field     string
	Direction Direction
}

// Query is the store-neutral description of a find operation.
// A zero Query matches every document in store order.
type Query struct {
	Conditions []Condition
	Sort       *Sort
	Skip       int64
	Limit      int64
}

// Fields returns the distinct condition fields in first-seen order.
// Stores that group predicates per field (document filters) rely on it.
func (q Query) Fields() []string {
	seen := make(map[string]bool, len(q.Conditions))
	fields := make([]string, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		if seen[c.Field] {
			continue
		}
		seen[c.Field] = true
		fields = append(fields, c.Field)
	}
	return fields
}

// ConditionsFor returns the conditions on a single field, in order.
func (q Query) ConditionsFor(field string) []Condition {
	var out []Condition
	for _, c := range q.Conditions {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}

// String renders the query for debug logs, e.g.
// "WHERE category eq shoes SORT strike_price ASC SKIP 0 LIMIT 3".
func (q Query) String() string {
	parts := make([]string, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		parts = append(parts, fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value))
	}
	s := "WHERE " + strings.Join(parts, " AND ")
	if q.Sort != nil {
		dir := "ASC"
		if q.Sort.Direction == Desc {
			dir = "DESC"
		}
		s += fmt.Sprintf(" SORT %s %s", q.Sort.Field, dir)
	}
	return s + fmt.Sprintf(" SKIP %d LIMIT %d", q.Skip, q.Limit)
}
