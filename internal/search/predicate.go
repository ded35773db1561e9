package search

import (
	"time"

	"github.com/Domenick1991/flightsearch/internal/query"
)

// Breadth selects how origin and destination text is matched.
type Breadth int

const (
	// Narrow matches the route's own origin/destination identifiers only.
	Narrow Breadth = iota
	// Broad also matches the joined airport's name, city and country.
	Broad
)

type ClauseKind string

const (
	ClauseDeparture   ClauseKind = "departure"
	ClauseSeats       ClauseKind = "seats"
	ClauseOrigin      ClauseKind = "origin"
	ClauseDestination ClauseKind = "destination"
)

type Clause struct {
	Kind ClauseKind
	Expr query.Expr
}

// Builder accumulates one optional clause per supplied search field.
// Methods called with an absent value add nothing.
type Builder struct {
	clauses []Clause
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) DepartingOn(day *time.Time) *Builder {
	if day == nil {
		return b
	}
	from, to := DayRange(*day)
	return b.add(ClauseDeparture, query.Within{Field: FieldDepartureTime, From: from, To: to})
}

func (b *Builder) Seats(passengers *int) *Builder {
	if passengers == nil {
		return b
	}
	return b.add(ClauseSeats, query.AtLeast{Field: FieldAvailableSeats, Min: *passengers})
}

func (b *Builder) From(text string, breadth Breadth) *Builder {
	if text == "" {
		return b
	}
	return b.add(ClauseOrigin, place(FieldRouteOriginID, EntityOrigin, text, breadth))
}

func (b *Builder) To(text string, breadth Breadth) *Builder {
	if text == "" {
		return b
	}
	return b.add(ClauseDestination, place(FieldRouteDestinationID, EntityDestination, text, breadth))
}

func (b *Builder) Clauses() []Clause {
	out := make([]Clause, len(b.clauses))
	copy(out, b.clauses)
	return out
}

// Build ANDs every accumulated clause. With no clauses the result matches all rows.
func (b *Builder) Build() query.Expr {
	all := make(query.All, 0, len(b.clauses))
	for _, c := range b.clauses {
		all = append(all, c.Expr)
	}
	return all
}

func (b *Builder) add(kind ClauseKind, e query.Expr) *Builder {
	b.clauses = append(b.clauses, Clause{Kind: kind, Expr: e})
	return b
}

func place(routeField query.Field, airport, text string, breadth Breadth) query.Expr {
	idClause := query.Contains{Field: routeField, Substr: text}
	if breadth == Narrow {
		return idClause
	}
	either := query.Any{idClause}
	for _, col := range airportFields {
		either = append(either, query.Contains{Field: query.Field{Entity: airport, Column: col}, Substr: text})
	}
	return either
}
