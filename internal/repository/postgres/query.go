package pgrepo

import (
	"fmt"
	"strings"

	"product-service/internal/domain"
	"product-service/pkg/criteria"
)

// statement is a parameterized SQL query.
type statement struct {
	SQL  string
	Args []interface{}
}

// buildSelect translates a criteria.Query into a SELECT over the JSONB
// documents. Field names are checked against the product schema before
// they reach the SQL text; values always travel as parameters.
func buildSelect(q criteria.Query) (statement, error) {
	var sb strings.Builder
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString("SELECT id::text, doc FROM products")

	if len(q.Conditions) > 0 {
		parts := make([]string, 0, len(q.Conditions))
		for _, c := range q.Conditions {
			part, err := conditionSQL(c, arg)
			if err != nil {
				return statement{}, err
			}
			parts = append(parts, part)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	sb.WriteString(" ORDER BY ")
	if q.Sort != nil {
		expr, err := sortExpr(q.Sort.Field)
		if err != nil {
			return statement{}, err
		}
		sb.WriteString(expr)
		// Absent fields order like a document store: first ascending, last descending.
		if q.Sort.Direction == criteria.Desc {
			sb.WriteString(" DESC NULLS LAST, ")
		} else {
			sb.WriteString(" ASC NULLS FIRST, ")
		}
	}
	sb.WriteString("created_at, id")

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(arg(q.Limit))
	}
	if q.Skip > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(arg(q.Skip))
	}

	return statement{SQL: sb.String(), Args: args}, nil
}

func conditionSQL(c criteria.Condition, arg func(interface{}) string) (string, error) {
	if err := checkField(c.Field); err != nil {
		return "", err
	}

	switch c.Op {
	case criteria.Eq:
		if n, ok := numeric(c.Value); ok && domain.IsNumericField(c.Field) {
			return fmt.Sprintf("%s = %s", numericExpr(c.Field), arg(n)), nil
		}
		return fmt.Sprintf("%s = %s", textExpr(c.Field), arg(fmt.Sprint(c.Value))), nil
	case criteria.Lt, criteria.Gt:
		n, ok := numeric(c.Value)
		if !ok {
			return "", fmt.Errorf("%w: %s requires a number", domain.ErrInvalidInput, c.Field)
		}
		op := "<"
		if c.Op == criteria.Gt {
			op = ">"
		}
		return fmt.Sprintf("%s %s %s", numericExpr(c.Field), op, arg(n)), nil
	case criteria.Contains:
		pattern := "%" + escapeLike(fmt.Sprint(c.Value)) + "%"
		return fmt.Sprintf("%s ILIKE %s", textExpr(c.Field), arg(pattern)), nil
	}
	return "", fmt.Errorf("unsupported operator %s", c.Op)
}

func checkField(field string) error {
	if field == domain.FieldID || domain.IsProductField(field) {
		return nil
	}
	return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
}

func sortExpr(field string) (string, error) {
	if err := checkField(field); err != nil {
		return "", err
	}
	if domain.IsNumericField(field) {
		return numericExpr(field), nil
	}
	return textExpr(field), nil
}

func textExpr(field string) string {
	if field == domain.FieldID {
		return "id::text"
	}
	return fmt.Sprintf("doc->>'%s'", field)
}

func numericExpr(field string) string {
	return fmt.Sprintf("(doc->>'%s')::numeric", field)
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
