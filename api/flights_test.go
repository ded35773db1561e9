package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/flightsearch/internal/apperr"
	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) FindAllFeaturedFlights(ctx context.Context, criteria domain.SearchCriteria, page domain.Pagination) (*domain.FeaturedFlights, error) {
	args := m.Called(ctx, criteria, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeaturedFlights), args.Error(1)
}

func (m *MockFlightUseCase) FindAllFlights(ctx context.Context, criteria domain.SearchCriteria) (*domain.RoundTripFlights, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoundTripFlights), args.Error(1)
}

func (m *MockFlightUseCase) FindFlightByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) CreateFlight(ctx context.Context, input domain.FlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) UpdateFlight(ctx context.Context, id int64, input domain.FlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) DeleteFlight(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newRouter(service *MockFlightUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewFlightHandler(service, nil).Register(router.Group("/flights"))
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFlightHandler_featured(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	passengers := 2
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)
	expectedCriteria := domain.SearchCriteria{
		Origin:        "JFK",
		Destination:   "London",
		DepartureDate: &date,
		Passengers:    &passengers,
		Sort:          domain.SortSeatPrice,
		Order:         domain.OrderDesc,
	}
	page := domain.Pagination{Offset: 5, Limit: 5}
	result := &domain.FeaturedFlights{Total: 12, Offset: 5, Count: 1, Results: []domain.Flight{{ID: 7}}}

	mockService.On("FindAllFeaturedFlights", mock.Anything, expectedCriteria, page).Return(result, nil)

	w := serve(router, http.MethodGet,
		"/flights/featured?origin=JFK&destination=London&departureDate=2024-05-01&passengers=2&sort=seatPrice&order=DESC&offset=5&limit=5", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body domain.FeaturedFlights
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 12, body.Total)
	assert.Equal(t, int64(7), body.Results[0].ID)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_featuredDefaultPagination(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	mockService.On("FindAllFeaturedFlights", mock.Anything, domain.SearchCriteria{}, domain.DefaultPagination()).
		Return(&domain.FeaturedFlights{}, nil)

	w := serve(router, http.MethodGet, "/flights/featured", "")

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_featuredLimitError(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	mockService.On("FindAllFeaturedFlights", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperr.BadRequest("Limit exceeds maximum of 10000"))

	w := serve(router, http.MethodGet, "/flights/featured?limit=10001", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Limit exceeds maximum of 10000")
}

func TestFlightHandler_featuredInvalidDate(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	w := serve(router, http.MethodGet, "/flights/featured?departureDate=tomorrow", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "FindAllFeaturedFlights", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlightHandler_featuredInvalidNumber(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	w := serve(router, http.MethodGet, "/flights/featured?offset=abc", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightHandler_roundTrip(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	returning, err := time.Parse(time.RFC3339, "2024-05-08T00:00:00Z")
	require.NoError(t, err)
	expectedCriteria := domain.SearchCriteria{
		Origin:        "JFK",
		Destination:   "LAX",
		ReturningDate: &returning,
	}
	result := &domain.RoundTripFlights{
		DepartureFlights: domain.LegFlights{Total: 1, Flights: []domain.Flight{{ID: 1}}},
		ReturningFlights: domain.LegFlights{Total: 0, Flights: []domain.Flight{}},
	}
	mockService.On("FindAllFlights", mock.Anything, expectedCriteria).Return(result, nil)

	w := serve(router, http.MethodGet, "/flights?origin=JFK&destination=LAX&returningDate=2024-05-08T00:00:00Z", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "departureFlights")
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("GET", "/flights/1", nil)

	flight := &domain.Flight{ID: 1, RouteID: 3, AirplaneID: 1, AvailableSeats: 150, SeatPrice: 99.5}

	mockService.On("FindFlightByID", c.Request.Context(), int64(1)).Return(flight, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_getInvalidID(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "invalid"}}
	c.Request = httptest.NewRequest("GET", "/flights/invalid", nil)

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightHandler_getNotFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	mockService.On("FindFlightByID", mock.Anything, int64(42)).Return(nil, apperr.NotFound("cannot find flight"))

	w := serve(router, http.MethodGet, "/flights/42", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"cannot find flight"}`, w.Body.String())
}

func TestFlightHandler_create(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	routeID, airplaneID := int64(1), int64(2)
	reserved, price := 0, 120.0
	departure := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	input := domain.FlightInput{
		RouteID:       &routeID,
		AirplaneID:    &airplaneID,
		DepartureTime: &departure,
		Seats:         &domain.Seats{Reserved: &reserved, Price: &price},
	}
	mockService.On("CreateFlight", mock.Anything, input).
		Return(&domain.Flight{ID: 9, RouteID: 1, AirplaneID: 2, SeatPrice: 120}, nil)

	w := serve(router, http.MethodPost, "/flights",
		`{"routeId":1,"airplaneId":2,"departureTime":"2024-05-01T10:00:00Z","seats":{"reserved":0,"price":120}}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_createValidationDetails(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	details := map[string]string{"routeId": "required"}
	mockService.On("CreateFlight", mock.Anything, mock.Anything).
		Return(nil, apperr.Validation("invalid flight").WithDetails(details))

	w := serve(router, http.MethodPost, "/flights", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid flight","details":{"routeId":"required"}}`, w.Body.String())
}

func TestFlightHandler_createMalformedBody(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	w := serve(router, http.MethodPost, "/flights", `{"routeId":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateFlight", mock.Anything, mock.Anything)
}

func TestFlightHandler_update(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	price := 80.0
	input := domain.FlightInput{Seats: &domain.Seats{Price: &price}}
	mockService.On("UpdateFlight", mock.Anything, int64(5), input).
		Return(&domain.Flight{ID: 5, SeatPrice: 80}, nil)

	w := serve(router, http.MethodPut, "/flights/5", `{"seats":{"price":80}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"seatPrice":80`)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_delete(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	mockService.On("DeleteFlight", mock.Anything, int64(5)).Return(nil)

	w := serve(router, http.MethodDelete, "/flights/5", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_internalError(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newRouter(mockService)

	mockService.On("DeleteFlight", mock.Anything, int64(5)).Return(errors.New("connection reset"))

	w := serve(router, http.MethodDelete, "/flights/5", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := metrics.NewRegistry()
	router := gin.New()
	router.Use(Metrics(reg))
	router.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/ping/1", "")
	serve(router, http.MethodGet, "/ping/2", "")

	count, err := testutil.GatherAndCount(reg.Gatherer, "flights_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "requests are labelled by route template, not raw path")
}
