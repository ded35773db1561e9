package domain

import "time"

type SortKey string

const (
	SortSeatPrice     SortKey = "seatPrice"
	SortDepartureTime SortKey = "departureTime"
)

type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

const (
	DefaultLimit = 10
	MaxLimit     = 10000
)

// SearchCriteria is built per request. Zero values mean "not supplied".
type SearchCriteria struct {
	Origin        string
	Destination   string
	DepartureDate *time.Time
	ReturningDate *time.Time
	Passengers    *int
	Sort          SortKey
	Order         Order
}

type Pagination struct {
	Offset int
	Limit  int
}

func DefaultPagination() Pagination {
	return Pagination{Offset: 0, Limit: DefaultLimit}
}

type FeaturedFlights struct {
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Count   int      `json:"count"`
	Results []Flight `json:"results"`
}

type LegFlights struct {
	Total   int      `json:"total"`
	Flights []Flight `json:"flights"`
}

type RoundTripFlights struct {
	DepartureFlights LegFlights `json:"departureFlights"`
	ReturningFlights LegFlights `json:"returningFlights"`
}
