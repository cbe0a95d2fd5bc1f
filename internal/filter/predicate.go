package filter

import (
	"fmt"

	"github.com/juliosaraiva/loghetti/internal/parser"
)

// Predicate is a single test applied to an enriched record.
// Implementations are immutable and free of side effects.
type Predicate interface {
	Match(rec *parser.Record) bool
	String() string
}

// FieldPredicate compares a named record field for equality. The expected
// value must have the field's type: string for parsed fields, int for date
// parts. A field that is absent never matches.
type FieldPredicate struct {
	Field string
	Value any
}

// Match implements Predicate.
func (p FieldPredicate) Match(rec *parser.Record) bool {
	v, ok := rec.Field(p.Field)
	return ok && v == p.Value
}

func (p FieldPredicate) String() string {
	return fmt.Sprintf("%s=%v", p.Field, p.Value)
}

// QueryPredicate compares the first value of a query-string parameter.
// Later values of a repeated key are never consulted.
type QueryPredicate struct {
	Key   string
	Value string
}

// Match implements Predicate.
func (p QueryPredicate) Match(rec *parser.Record) bool {
	if !rec.Has(parser.GroupQuery) {
		return false
	}
	values, ok := rec.Query[p.Key]
	return ok && len(values) > 0 && values[0] == p.Value
}

func (p QueryPredicate) String() string {
	return fmt.Sprintf("urldata:%s=%s", p.Key, p.Value)
}
