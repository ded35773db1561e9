package domain

import "time"

type Airport struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type Route struct {
	ID            int64    `json:"id"`
	OriginID      string   `json:"originId"`
	DestinationID string   `json:"destinationId"`
	Origin        *Airport `json:"origin,omitempty"`
	Destination   *Airport `json:"destination,omitempty"`
}

type Airplane struct {
	ID       int64  `json:"id"`
	Model    string `json:"model"`
	Capacity int    `json:"capacity"`
}

type Flight struct {
	ID             int64     `json:"id"`
	RouteID        int64     `json:"routeId"`
	AirplaneID     int64     `json:"airplaneId"`
	DepartureTime  time.Time `json:"departureTime"`
	ReservedSeats  int       `json:"reservedSeats"`
	AvailableSeats int       `json:"availableSeats"`
	SeatPrice      float64   `json:"seatPrice"`
	Route          *Route    `json:"route,omitempty"`
	Airplane       *Airplane `json:"airplane,omitempty"`
}

// Seats is the seat sub-object accepted on create and update.
type Seats struct {
	Reserved *int     `json:"reserved" validate:"omitempty,gte=0"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
}

// FlightInput is the payload of create and update. Nil fields are left
// untouched on update.
type FlightInput struct {
	RouteID       *int64     `json:"routeId" validate:"omitempty,gt=0"`
	AirplaneID    *int64     `json:"airplaneId" validate:"omitempty,gt=0"`
	DepartureTime *time.Time `json:"departureTime"`
	Seats         *Seats     `json:"seats"`
}
