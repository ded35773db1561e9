package flights

import (
	"errors"
	"time"

	"github.com/Domenick1991/flightsearch/internal/apperr"
	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/repository"
	"github.com/Domenick1991/flightsearch/internal/validator"
)

// newFlight lists what a create must supply.
type newFlight struct {
	RouteID       *int64     `json:"routeId" validate:"required,gt=0"`
	AirplaneID    *int64     `json:"airplaneId" validate:"required,gt=0"`
	DepartureTime *time.Time `json:"departureTime" validate:"required"`
	Reserved      *int       `json:"seats.reserved" validate:"required,gte=0"`
	Price         *float64   `json:"seats.price" validate:"required,gte=0"`
}

func newFlightRules(in domain.FlightInput) newFlight {
	n := newFlight{
		RouteID:       in.RouteID,
		AirplaneID:    in.AirplaneID,
		DepartureTime: in.DepartureTime,
	}
	if in.Seats != nil {
		n.Reserved = in.Seats.Reserved
		n.Price = in.Seats.Price
	}
	return n
}

// toChanges maps {seats: {reserved, price}} onto the stored columns.
func toChanges(in domain.FlightInput) repository.FlightChanges {
	c := repository.FlightChanges{
		RouteID:       in.RouteID,
		AirplaneID:    in.AirplaneID,
		DepartureTime: in.DepartureTime,
	}
	if in.Seats != nil {
		c.ReservedSeats = in.Seats.Reserved
		c.SeatPrice = in.Seats.Price
	}
	return c
}

func validationError(op string, err error) error {
	return apperr.Wrap(apperr.KindValidation, "invalid flight", err).
		WithOp(op).
		WithDetails(validator.Details(err))
}

func mutationError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, "cannot find flight", err).WithOp(op)
	}
	var ce *repository.ConstraintError
	if errors.As(err, &ce) {
		details := map[string]string{"code": ce.Code}
		if ce.Constraint != "" {
			details["constraint"] = ce.Constraint
		}
		if ce.Column != "" {
			details["column"] = ce.Column
		}
		return apperr.Wrap(apperr.KindValidation, "flight violates a data constraint", err).
			WithOp(op).
			WithDetails(details)
	}
	return err
}
