package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/query"
	"github.com/Domenick1991/flightsearch/internal/search"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flightColumns = `id, route_id, airplane_id, departure_time, reserved_seats, available_seats, seat_price`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pool is the subset of *pgxpool.Pool the repository uses.
type pool interface {
	querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var _ pool = (*pgxpool.Pool)(nil)

// snapshotTx makes the count and the page of one search see the same data.
var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

type PGFlightRepository struct {
	db pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) FindAndCountAll(ctx context.Context, sel query.Select) ([]domain.Flight, int, error) {
	countSQL, countArgs, err := buildCount(sel)
	if err != nil {
		return nil, 0, err
	}

	tx, err := r.db.BeginTx(ctx, snapshotTx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin search: %w", mapError(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count flights: %w", mapError(err))
	}
	flights, err := findAll(ctx, tx, sel)
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit search: %w", mapError(err))
	}
	return flights, total, nil
}

func (r *PGFlightRepository) FindAll(ctx context.Context, sel query.Select) ([]domain.Flight, error) {
	return findAll(ctx, r.db, sel)
}

func findAll(ctx context.Context, q querier, sel query.Select) ([]domain.Flight, error) {
	sqlText, args, err := buildSelect(sel)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", mapError(err))
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		st := newScanState()
		if err := rows.Scan(st.destinations(sel.Graph)...); err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, st.assemble())
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) FindByID(ctx context.Context, id int64) (*domain.Flight, error) {
	flights, err := r.FindAll(ctx, query.Select{
		Where: query.Equals{Field: search.FieldFlightID, Value: id},
		Graph: search.FlightGraph,
	})
	if err != nil {
		return nil, err
	}
	if len(flights) == 0 {
		return nil, ErrNotFound
	}
	return &flights[0], nil
}

func (r *PGFlightRepository) Create(ctx context.Context, changes FlightChanges) (*domain.Flight, error) {
	cols := changes.columns()
	names := make([]string, 0, len(cols))
	w := &sqlWriter{}
	placeholders := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.name)
		placeholders = append(placeholders, w.arg(c.value))
	}
	sqlText := `INSERT INTO flight (` + strings.Join(names, ", ") + `) VALUES (` + strings.Join(placeholders, ", ") + `) RETURNING ` + flightColumns
	if len(cols) == 0 {
		sqlText = `INSERT INTO flight DEFAULT VALUES RETURNING ` + flightColumns
	}

	var f domain.Flight
	if err := r.db.QueryRow(ctx, sqlText, w.args...).Scan(&f.ID, &f.RouteID, &f.AirplaneID, &f.DepartureTime, &f.ReservedSeats, &f.AvailableSeats, &f.SeatPrice); err != nil {
		return nil, fmt.Errorf("insert flight: %w", mapError(err))
	}
	return &f, nil
}

func (r *PGFlightRepository) Update(ctx context.Context, id int64, changes FlightChanges) error {
	cols := changes.columns()
	if len(cols) == 0 {
		return nil
	}
	w := &sqlWriter{}
	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		sets = append(sets, c.name+" = "+w.arg(c.value))
	}
	sqlText := `UPDATE flight SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + w.arg(id)

	res, err := r.db.Exec(ctx, sqlText, w.args...)
	if err != nil {
		return fmt.Errorf("update flight %d: %w", id, mapError(err))
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM flight WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flight %d: %w", id, mapError(err))
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanState receives one joined row and nests it into a Flight.
type scanState struct {
	flight   domain.Flight
	route    *domain.Route
	airplane *domain.Airplane
	airports map[string]*domain.Airport
}

func newScanState() *scanState {
	return &scanState{airports: make(map[string]*domain.Airport)}
}

// destinations must follow the column order of selectColumns.
func (s *scanState) destinations(g query.Graph) []any {
	f := &s.flight
	dest := []any{&f.ID, &f.RouteID, &f.AirplaneID, &f.DepartureTime, &f.ReservedSeats, &f.AvailableSeats, &f.SeatPrice}
	for _, j := range g.Joins {
		switch j.Table {
		case "route":
			s.route = &domain.Route{}
			dest = append(dest, &s.route.ID, &s.route.OriginID, &s.route.DestinationID)
		case "airport":
			a := &domain.Airport{}
			s.airports[j.Alias] = a
			dest = append(dest, &a.ID, &a.Name, &a.City, &a.Country)
		case "airplane":
			s.airplane = &domain.Airplane{}
			dest = append(dest, &s.airplane.ID, &s.airplane.Model, &s.airplane.Capacity)
		}
	}
	return dest
}

func (s *scanState) assemble() domain.Flight {
	f := s.flight
	if s.route != nil {
		s.route.Origin = s.airports[search.EntityOrigin]
		s.route.Destination = s.airports[search.EntityDestination]
		f.Route = s.route
	}
	f.Airplane = s.airplane
	return f
}

var _ FlightRepository = (*PGFlightRepository)(nil)
