package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/query"
	"github.com/Domenick1991/flightsearch/internal/search"
)

// MemoryFlightRepository keeps flights, routes, airports and airplanes in
// process and evaluates filter trees with query.Expr.Match. It enforces the
// same foreign keys as the SQL schema and derives available seats from
// airplane capacity.
type MemoryFlightRepository struct {
	mu        sync.RWMutex
	nextID    int64
	flights   map[int64]domain.Flight
	routes    map[int64]domain.Route
	airports  map[string]domain.Airport
	airplanes map[int64]domain.Airplane
}

func NewMemoryFlightRepository() *MemoryFlightRepository {
	return &MemoryFlightRepository{
		flights:   make(map[int64]domain.Flight),
		routes:    make(map[int64]domain.Route),
		airports:  make(map[string]domain.Airport),
		airplanes: make(map[int64]domain.Airplane),
	}
}

func (r *MemoryFlightRepository) AddAirport(a domain.Airport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.airports[a.ID] = a
}

func (r *MemoryFlightRepository) AddRoute(rt domain.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt.Origin, rt.Destination = nil, nil
	r.routes[rt.ID] = rt
}

func (r *MemoryFlightRepository) AddAirplane(p domain.Airplane) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.airplanes[p.ID] = p
}

func (r *MemoryFlightRepository) FindAndCountAll(ctx context.Context, sel query.Select) ([]domain.Flight, int, error) {
	matched, err := r.match(sel)
	if err != nil {
		return nil, 0, err
	}
	total := len(matched)
	if sel.Page != nil {
		matched = paginate(matched, *sel.Page)
	}
	return matched, total, nil
}

func (r *MemoryFlightRepository) FindAll(ctx context.Context, sel query.Select) ([]domain.Flight, error) {
	matched, err := r.match(sel)
	if err != nil {
		return nil, err
	}
	if sel.Page != nil {
		matched = paginate(matched, *sel.Page)
	}
	return matched, nil
}

func (r *MemoryFlightRepository) FindByID(ctx context.Context, id int64) (*domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	joined := r.join(f)
	return &joined, nil
}

func (r *MemoryFlightRepository) Create(ctx context.Context, changes FlightChanges) (*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var f domain.Flight
	apply(&f, changes)
	if changes.RouteID == nil || changes.AirplaneID == nil || changes.DepartureTime == nil ||
		changes.ReservedSeats == nil || changes.SeatPrice == nil {
		return nil, &ConstraintError{Code: codeNotNull, Detail: "flight columns must not be null"}
	}
	if err := r.check(&f); err != nil {
		return nil, err
	}
	r.nextID++
	f.ID = r.nextID
	r.flights[f.ID] = f
	return &f, nil
}

func (r *MemoryFlightRepository) Update(ctx context.Context, id int64, changes FlightChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flights[id]
	if !ok {
		return ErrNotFound
	}
	apply(&f, changes)
	if err := r.check(&f); err != nil {
		return err
	}
	r.flights[id] = f
	return nil
}

func (r *MemoryFlightRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flights[id]; !ok {
		return ErrNotFound
	}
	delete(r.flights, id)
	return nil
}

// check enforces the foreign keys and derives available seats the way the
// flight_available_seats trigger does.
func (r *MemoryFlightRepository) check(f *domain.Flight) error {
	if _, ok := r.routes[f.RouteID]; !ok {
		return &ConstraintError{Code: codeForeignKey, Constraint: "flight_route_id_fkey", Column: "route_id"}
	}
	airplane, ok := r.airplanes[f.AirplaneID]
	if !ok {
		return &ConstraintError{Code: codeForeignKey, Constraint: "flight_airplane_id_fkey", Column: "airplane_id"}
	}
	available := airplane.Capacity - f.ReservedSeats
	if available < 0 {
		return &ConstraintError{Code: codeCheck, Constraint: "flight_capacity", Detail: "reserved seats exceed airplane capacity"}
	}
	f.AvailableSeats = available
	return nil
}

func (r *MemoryFlightRepository) match(sel query.Select) ([]domain.Flight, error) {
	if err := sel.Graph.Validate(sel.Where); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Flight, 0)
	for _, f := range r.flights {
		joined := r.join(f)
		if sel.Where == nil || sel.Where.Match(flightRow{&joined}) {
			out = append(out, joined)
		}
	}
	// Map iteration is random; id order stands in for the storage default.
	slices.SortFunc(out, func(a, b domain.Flight) int { return cmp.Compare(a.ID, b.ID) })
	if sel.Sort != nil {
		s := *sel.Sort
		slices.SortStableFunc(out, func(a, b domain.Flight) int {
			c := compareField(flightRow{&a}, flightRow{&b}, s.Field)
			if s.Desc {
				return -c
			}
			return c
		})
	}
	return out, nil
}

func (r *MemoryFlightRepository) join(f domain.Flight) domain.Flight {
	if rt, ok := r.routes[f.RouteID]; ok {
		if a, ok := r.airports[rt.OriginID]; ok {
			rt.Origin = &a
		}
		if a, ok := r.airports[rt.DestinationID]; ok {
			rt.Destination = &a
		}
		f.Route = &rt
	}
	if p, ok := r.airplanes[f.AirplaneID]; ok {
		f.Airplane = &p
	}
	return f
}

func apply(f *domain.Flight, c FlightChanges) {
	if c.RouteID != nil {
		f.RouteID = *c.RouteID
	}
	if c.AirplaneID != nil {
		f.AirplaneID = *c.AirplaneID
	}
	if c.DepartureTime != nil {
		f.DepartureTime = *c.DepartureTime
	}
	if c.ReservedSeats != nil {
		f.ReservedSeats = *c.ReservedSeats
	}
	if c.SeatPrice != nil {
		f.SeatPrice = *c.SeatPrice
	}
}

func paginate(flights []domain.Flight, p query.Page) []domain.Flight {
	if p.Offset >= len(flights) {
		return []domain.Flight{}
	}
	end := min(p.Offset+p.Limit, len(flights))
	return flights[p.Offset:end]
}

// flightRow exposes a joined flight under the aliases of search.FlightGraph.
type flightRow struct {
	f *domain.Flight
}

func (r flightRow) Value(field query.Field) (any, bool) {
	f := r.f
	switch field.Entity {
	case search.EntityFlight:
		switch field.Column {
		case "id":
			return f.ID, true
		case "route_id":
			return f.RouteID, true
		case "airplane_id":
			return f.AirplaneID, true
		case "departure_time":
			return f.DepartureTime, true
		case "reserved_seats":
			return f.ReservedSeats, true
		case "available_seats":
			return f.AvailableSeats, true
		case "seat_price":
			return f.SeatPrice, true
		}
	case search.EntityRoute:
		if f.Route == nil {
			return nil, false
		}
		switch field.Column {
		case "id":
			return f.Route.ID, true
		case "origin_id":
			return f.Route.OriginID, true
		case "destination_id":
			return f.Route.DestinationID, true
		}
	case search.EntityOrigin, search.EntityDestination:
		if f.Route == nil {
			return nil, false
		}
		a := f.Route.Origin
		if field.Entity == search.EntityDestination {
			a = f.Route.Destination
		}
		if a == nil {
			return nil, false
		}
		switch field.Column {
		case "iata_id":
			return a.ID, true
		case "name":
			return a.Name, true
		case "city":
			return a.City, true
		case "country":
			return a.Country, true
		}
	case search.EntityAirplane:
		if f.Airplane == nil {
			return nil, false
		}
		switch field.Column {
		case "id":
			return f.Airplane.ID, true
		case "model":
			return f.Airplane.Model, true
		case "capacity":
			return f.Airplane.Capacity, true
		}
	}
	return nil, false
}

func compareField(a, b flightRow, field query.Field) int {
	va, _ := a.Value(field)
	vb, _ := b.Value(field)
	switch x := va.(type) {
	case float64:
		y, _ := vb.(float64)
		return cmp.Compare(x, y)
	case int:
		y, _ := vb.(int)
		return cmp.Compare(x, y)
	case int64:
		y, _ := vb.(int64)
		return cmp.Compare(x, y)
	case string:
		y, _ := vb.(string)
		return cmp.Compare(x, y)
	case time.Time:
		y, _ := vb.(time.Time)
		return x.Compare(y)
	}
	return 0
}

var _ FlightRepository = (*MemoryFlightRepository)(nil)
