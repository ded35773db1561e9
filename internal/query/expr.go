// Package query holds storage-agnostic filter trees over joined entities.
//
// A tree is built from leaf clauses (Contains, AtLeast, Within) combined with
// All and Any. Storage implementations compile the tree into their own query
// language; Match evaluates it directly against a Row.
package query

import (
	"strings"
	"time"
)

// Field names a column of a joined entity. Entity is the alias the entity
// carries in a Graph.
type Field struct {
	Entity string
	Column string
}

func (f Field) String() string {
	return f.Entity + "." + f.Column
}

// Row exposes field values of one joined result row.
type Row interface {
	Value(f Field) (any, bool)
}

type Expr interface {
	Match(r Row) bool
}

// Contains matches when Substr appears anywhere in the field's text.
type Contains struct {
	Field  Field
	Substr string
}

func (c Contains) Match(r Row) bool {
	v, ok := r.Value(c.Field)
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return strings.Contains(s, c.Substr)
}

// AtLeast matches when the field's integer value is >= Min.
type AtLeast struct {
	Field Field
	Min   int
}

func (a AtLeast) Match(r Row) bool {
	v, ok := r.Value(a.Field)
	if !ok {
		return false
	}
	switch n := v.(type) {
	case int:
		return n >= a.Min
	case int32:
		return int(n) >= a.Min
	case int64:
		return n >= int64(a.Min)
	default:
		return false
	}
}

// Within matches timestamps in the half-open interval [From, To).
type Within struct {
	Field Field
	From  time.Time
	To    time.Time
}

func (w Within) Match(r Row) bool {
	v, ok := r.Value(w.Field)
	if !ok {
		return false
	}
	t, ok := v.(time.Time)
	if !ok {
		return false
	}
	return !t.Before(w.From) && t.Before(w.To)
}

// Equals matches when the field's value equals Value.
type Equals struct {
	Field Field
	Value any
}

func (e Equals) Match(r Row) bool {
	v, ok := r.Value(e.Field)
	return ok && v == e.Value
}

// All is a conjunction. An empty All matches every row.
type All []Expr

func (a All) Match(r Row) bool {
	for _, e := range a {
		if !e.Match(r) {
			return false
		}
	}
	return true
}

// Any is a disjunction. An empty Any matches nothing.
type Any []Expr

func (a Any) Match(r Row) bool {
	for _, e := range a {
		if e.Match(r) {
			return true
		}
	}
	return false
}

// Fields lists every field referenced by e, in tree order.
func Fields(e Expr) []Field {
	var out []Field
	walk(e, func(f Field) { out = append(out, f) })
	return out
}

func walk(e Expr, fn func(Field)) {
	switch x := e.(type) {
	case Contains:
		fn(x.Field)
	case AtLeast:
		fn(x.Field)
	case Within:
		fn(x.Field)
	case Equals:
		fn(x.Field)
	case All:
		for _, c := range x {
			walk(c, fn)
		}
	case Any:
		for _, c := range x {
			walk(c, fn)
		}
	}
}
