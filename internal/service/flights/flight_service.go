package flights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/flightsearch/internal/apperr"
	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/kafka"
	"github.com/Domenick1991/flightsearch/internal/metrics"
	"github.com/Domenick1991/flightsearch/internal/query"
	"github.com/Domenick1991/flightsearch/internal/repository"
	"github.com/Domenick1991/flightsearch/internal/search"
	"github.com/Domenick1991/flightsearch/internal/validator"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type FlightUseCase interface {
	FindAllFeaturedFlights(ctx context.Context, criteria domain.SearchCriteria, page domain.Pagination) (*domain.FeaturedFlights, error)
	FindAllFlights(ctx context.Context, criteria domain.SearchCriteria) (*domain.RoundTripFlights, error)
	FindFlightByID(ctx context.Context, id int64) (*domain.Flight, error)
	CreateFlight(ctx context.Context, input domain.FlightInput) (*domain.Flight, error)
	UpdateFlight(ctx context.Context, id int64, input domain.FlightInput) (*domain.Flight, error)
	DeleteFlight(ctx context.Context, id int64) error
}

type SearchCache interface {
	GetSearch(ctx context.Context, key string, dest any) (gen int64, found bool, err error)
	SetSearch(ctx context.Context, gen int64, key string, value any) error
	InvalidateSearches(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type FlightService struct {
	repo        repository.FlightRepository
	cache       SearchCache
	producer    Producer
	eventsTopic string
	validate    *validator.Validator
	metrics     *metrics.Registry
	logger      *zap.Logger
}

type FlightServiceOption func(*FlightService)

func WithEvents(producer Producer, topic string) FlightServiceOption {
	return func(s *FlightService) {
		s.producer = producer
		s.eventsTopic = topic
	}
}

func WithMetrics(m *metrics.Registry) FlightServiceOption {
	return func(s *FlightService) {
		s.metrics = m
	}
}

func WithLogger(logger *zap.Logger) FlightServiceOption {
	return func(s *FlightService) {
		s.logger = logger
	}
}

// NewFlightService builds the service. cache may be nil.
func NewFlightService(repo repository.FlightRepository, cache SearchCache, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		repo:     repo,
		cache:    cache,
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	opFeatured  = "featured"
	opRoundTrip = "round_trip"
)

func (s *FlightService) FindAllFeaturedFlights(ctx context.Context, criteria domain.SearchCriteria, page domain.Pagination) (result *domain.FeaturedFlights, err error) {
	defer s.observe(opFeatured, time.Now(), &err)

	if page.Limit > domain.MaxLimit {
		return nil, apperr.BadRequest(fmt.Sprintf("Limit exceeds maximum of %d", domain.MaxLimit)).WithOp("flights.FindAllFeaturedFlights")
	}
	if page.Limit < 0 || page.Offset < 0 {
		return nil, apperr.BadRequest("offset and limit must not be negative").WithOp("flights.FindAllFeaturedFlights")
	}
	sort, err := search.ResolveSort(criteria.Sort, criteria.Order, domain.OrderAsc)
	if err != nil {
		return nil, err
	}

	key := cacheKey(opFeatured, criteria, page)
	var cached domain.FeaturedFlights
	gen, hit, storable := s.fromCache(ctx, opFeatured, key, &cached)
	if hit {
		return &cached, nil
	}

	rows, total, err := s.repo.FindAndCountAll(ctx, query.Select{
		Where: search.FeaturedPredicate(criteria),
		Graph: search.FlightGraph,
		Sort:  sort,
		Page:  &query.Page{Offset: page.Offset, Limit: page.Limit},
	})
	if err != nil {
		return nil, fmt.Errorf("find featured flights: %w", err)
	}

	result = &domain.FeaturedFlights{
		Total:   total,
		Offset:  page.Offset,
		Count:   len(rows),
		Results: rows,
	}
	if storable {
		s.toCache(ctx, gen, key, result)
	}
	return result, nil
}

// FindAllFlights runs the outbound and return legs concurrently. Either leg
// failing fails the whole search.
func (s *FlightService) FindAllFlights(ctx context.Context, criteria domain.SearchCriteria) (result *domain.RoundTripFlights, err error) {
	defer s.observe(opRoundTrip, time.Now(), &err)

	sort, err := search.ResolveSort(criteria.Sort, criteria.Order, domain.OrderDesc)
	if err != nil {
		return nil, err
	}

	key := cacheKey(opRoundTrip, criteria, nil)
	var cached domain.RoundTripFlights
	gen, hit, storable := s.fromCache(ctx, opRoundTrip, key, &cached)
	if hit {
		return &cached, nil
	}

	legs := [2]search.Leg{search.OutboundLeg(criteria), search.ReverseLeg(criteria)}
	var found [2][]domain.Flight

	g, gctx := errgroup.WithContext(ctx)
	for i, leg := range legs {
		g.Go(func() error {
			flights, err := s.repo.FindAll(gctx, query.Select{
				Where: leg.Predicate(search.Narrow),
				Graph: search.FlightGraph,
				Sort:  sort,
			})
			if err != nil {
				return err
			}
			found[i] = flights
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("find round trip flights: %w", err)
	}

	result = &domain.RoundTripFlights{
		DepartureFlights: domain.LegFlights{Total: len(found[0]), Flights: found[0]},
		ReturningFlights: domain.LegFlights{Total: len(found[1]), Flights: found[1]},
	}
	if storable {
		s.toCache(ctx, gen, key, result)
	}
	return result, nil
}

func (s *FlightService) FindFlightByID(ctx context.Context, id int64) (*domain.Flight, error) {
	flight, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "cannot find flight", err).WithOp("flights.FindFlightByID")
		}
		return nil, fmt.Errorf("find flight %d: %w", id, err)
	}
	return flight, nil
}

func (s *FlightService) CreateFlight(ctx context.Context, input domain.FlightInput) (*domain.Flight, error) {
	if err := s.validate.Struct(newFlightRules(input)); err != nil {
		return nil, validationError("flights.CreateFlight", err)
	}

	created, err := s.repo.Create(ctx, toChanges(input))
	if err != nil {
		return nil, mutationError("flights.CreateFlight", err)
	}

	s.afterMutation(ctx, kafka.EventFlightCreated, created.ID)
	return created, nil
}

// UpdateFlight writes only the supplied fields and returns the stored flight
// once the update has completed.
func (s *FlightService) UpdateFlight(ctx context.Context, id int64, input domain.FlightInput) (*domain.Flight, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError("flights.UpdateFlight", err)
	}
	if _, err := s.FindFlightByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, toChanges(input)); err != nil {
		return nil, mutationError("flights.UpdateFlight", err)
	}
	s.afterMutation(ctx, kafka.EventFlightUpdated, id)

	return s.FindFlightByID(ctx, id)
}

func (s *FlightService) DeleteFlight(ctx context.Context, id int64) error {
	if _, err := s.FindFlightByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mutationError("flights.DeleteFlight", err)
	}
	s.afterMutation(ctx, kafka.EventFlightDeleted, id)
	return nil
}

// afterMutation drops cached searches and announces the change. Neither
// failure undoes the committed write, so both are only logged.
func (s *FlightService) afterMutation(ctx context.Context, eventType string, flightID int64) {
	if s.cache != nil {
		if err := s.cache.InvalidateSearches(ctx); err != nil {
			s.logger.Warn("invalidate search cache", zap.Error(err))
		}
	}
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.NewFlightEvent(eventType, flightID)
	if err := s.producer.Publish(ctx, s.eventsTopic, strconv.FormatInt(flightID, 10), event); err != nil {
		s.logger.Warn("publish flight event",
			zap.String("type", eventType),
			zap.Int64("flight_id", flightID),
			zap.Error(err))
	}
}

// fromCache looks key up. storable reports whether a freshly computed result
// may be written back under gen; a failed lookup leaves the generation unknown.
func (s *FlightService) fromCache(ctx context.Context, op, key string, dest any) (gen int64, hit, storable bool) {
	if s.cache == nil {
		return 0, false, false
	}
	gen, found, err := s.cache.GetSearch(ctx, key, dest)
	if err != nil {
		s.logger.Warn("read search cache", zap.String("operation", op), zap.Error(err))
		return 0, false, false
	}
	if found {
		s.metrics.CacheHit(op)
	} else {
		s.metrics.CacheMiss(op)
	}
	return gen, found, true
}

func (s *FlightService) toCache(ctx context.Context, gen int64, key string, value any) {
	if err := s.cache.SetSearch(ctx, gen, key, value); err != nil {
		s.logger.Warn("write search cache", zap.Error(err))
	}
}

func (s *FlightService) observe(op string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = apperr.KindOf(*err).String()
	}
	s.metrics.ObserveOperation(op, outcome, time.Since(start))
}

// cacheKey hashes the operation and its inputs. Dates are encoded as
// RFC3339 with offset so different zones never share an entry.
func cacheKey(op string, criteria domain.SearchCriteria, page any) string {
	payload, _ := json.Marshal(struct {
		Op       string
		Criteria domain.SearchCriteria
		Page     any
	}{op, criteria, page})
	sum := sha256.Sum256(payload)
	return op + ":" + hex.EncodeToString(sum[:])
}
