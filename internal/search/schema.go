package search

import "github.com/Domenick1991/flightsearch/internal/query"

// Entity aliases of the flight join graph.
const (
	EntityFlight      = "flight"
	EntityRoute       = "route"
	EntityOrigin      = "origin"
	EntityDestination = "destination"
	EntityAirplane    = "airplane"
)

var (
	FieldFlightID       = query.Field{Entity: EntityFlight, Column: "id"}
	FieldDepartureTime  = query.Field{Entity: EntityFlight, Column: "departure_time"}
	FieldAvailableSeats = query.Field{Entity: EntityFlight, Column: "available_seats"}
	FieldSeatPrice      = query.Field{Entity: EntityFlight, Column: "seat_price"}

	FieldRouteOriginID      = query.Field{Entity: EntityRoute, Column: "origin_id"}
	FieldRouteDestinationID = query.Field{Entity: EntityRoute, Column: "destination_id"}
)

// airportFields are the text columns of an airport searched in broad mode,
// identifier excluded.
var airportFields = []string{"name", "city", "country"}

// FlightGraph joins a flight to its route, both route airports and its airplane.
var FlightGraph = query.Graph{
	Root:  EntityFlight,
	Table: "flight",
	Joins: []query.Join{
		{Alias: EntityRoute, Table: "route", Parent: query.Field{Entity: EntityFlight, Column: "route_id"}, Column: "id"},
		{Alias: EntityOrigin, Table: "airport", Parent: FieldRouteOriginID, Column: "iata_id"},
		{Alias: EntityDestination, Table: "airport", Parent: FieldRouteDestinationID, Column: "iata_id"},
		{Alias: EntityAirplane, Table: "airplane", Parent: query.Field{Entity: EntityFlight, Column: "airplane_id"}, Column: "id"},
	},
}
