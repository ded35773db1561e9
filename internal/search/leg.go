package search

import (
	"time"

	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/query"
)

// Leg is the criteria of one directional query.
type Leg struct {
	Origin      string
	Destination string
	Date        *time.Time
	Passengers  *int
}

// OutboundLeg travels from the requested origin to the requested destination
// on the departure date.
func OutboundLeg(c domain.SearchCriteria) Leg {
	return Leg{
		Origin:      c.Origin,
		Destination: c.Destination,
		Date:        c.DepartureDate,
		Passengers:  c.Passengers,
	}
}

// ReverseLeg travels back from the requested destination to the requested
// origin on the returning date.
func ReverseLeg(c domain.SearchCriteria) Leg {
	return Leg{
		Origin:      c.Destination,
		Destination: c.Origin,
		Date:        c.ReturningDate,
		Passengers:  c.Passengers,
	}
}

func (l Leg) Predicate(breadth Breadth) query.Expr {
	return l.builder(breadth).Build()
}

func (l Leg) builder(breadth Breadth) *Builder {
	return NewBuilder().
		DepartingOn(l.Date).
		Seats(l.Passengers).
		From(l.Origin, breadth).
		To(l.Destination, breadth)
}

// FeaturedPredicate is the broad-matching filter of the featured search.
func FeaturedPredicate(c domain.SearchCriteria) query.Expr {
	return OutboundLeg(c).Predicate(Broad)
}
