package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/query"
)

type FlightRepository interface {
	// FindAndCountAll returns one page of matching flights and the number of
	// matches ignoring the page.
	FindAndCountAll(ctx context.Context, sel query.Select) ([]domain.Flight, int, error)
	FindAll(ctx context.Context, sel query.Select) ([]domain.Flight, error)
	// FindByID loads a flight with its route, route airports and airplane.
	FindByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, changes FlightChanges) (*domain.Flight, error)
	Update(ctx context.Context, id int64, changes FlightChanges) error
	Delete(ctx context.Context, id int64) error
}

// FlightChanges holds stored flight columns to write. Nil fields are skipped.
type FlightChanges struct {
	RouteID       *int64
	AirplaneID    *int64
	DepartureTime *time.Time
	ReservedSeats *int
	SeatPrice     *float64
}

type column struct {
	name  string
	value any
}

func (c FlightChanges) columns() []column {
	var cols []column
	if c.RouteID != nil {
		cols = append(cols, column{"route_id", *c.RouteID})
	}
	if c.AirplaneID != nil {
		cols = append(cols, column{"airplane_id", *c.AirplaneID})
	}
	if c.DepartureTime != nil {
		cols = append(cols, column{"departure_time", *c.DepartureTime})
	}
	if c.ReservedSeats != nil {
		cols = append(cols, column{"reserved_seats", *c.ReservedSeats})
	}
	if c.SeatPrice != nil {
		cols = append(cols, column{"seat_price", *c.SeatPrice})
	}
	return cols
}
