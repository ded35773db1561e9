package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightsearch/internal/cache"
	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/kafka"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearchInvalidator struct {
	mock.Mock
}

func (m *MockSearchInvalidator) InvalidateSearches(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func message(t *testing.T, event kafka.FlightEvent) kafkaGo.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafkaGo.Message{Value: data}
}

func TestCacheInvalidator_Handle(t *testing.T) {
	invalidator := &MockSearchInvalidator{}
	invalidator.On("InvalidateSearches", mock.Anything).Return(nil)
	h := NewCacheInvalidator(invalidator, nil)

	err := h.Handle(context.Background(), message(t, kafka.NewFlightEvent(kafka.EventFlightUpdated, 7)))

	assert.NoError(t, err)
	invalidator.AssertNumberOfCalls(t, "InvalidateSearches", 1)
}

func TestCacheInvalidator_HandleMalformed(t *testing.T) {
	invalidator := &MockSearchInvalidator{}
	h := NewCacheInvalidator(invalidator, nil)

	err := h.Handle(context.Background(), kafkaGo.Message{Value: []byte("{")})

	assert.NoError(t, err)
	invalidator.AssertNotCalled(t, "InvalidateSearches", mock.Anything)
}

func TestCacheInvalidator_HandleUnknownType(t *testing.T) {
	invalidator := &MockSearchInvalidator{}
	h := NewCacheInvalidator(invalidator, nil)

	err := h.Handle(context.Background(), message(t, kafka.NewFlightEvent("flight_archived", 7)))

	assert.NoError(t, err)
	invalidator.AssertNotCalled(t, "InvalidateSearches", mock.Anything)
}

func TestCacheInvalidator_HandleRetriesUntilCacheRecovers(t *testing.T) {
	invalidator := &MockSearchInvalidator{}
	invalidator.On("InvalidateSearches", mock.Anything).Return(errors.New("redis down")).Twice()
	invalidator.On("InvalidateSearches", mock.Anything).Return(nil).Once()
	h := NewCacheInvalidator(invalidator, nil, WithBackoff(time.Millisecond, 2*time.Millisecond))

	err := h.Handle(context.Background(), message(t, kafka.NewFlightEvent(kafka.EventFlightDeleted, 7)))

	assert.NoError(t, err)
	invalidator.AssertNumberOfCalls(t, "InvalidateSearches", 3)
}

func TestCacheInvalidator_HandleStopsOnContextCancel(t *testing.T) {
	invalidator := &MockSearchInvalidator{}
	invalidator.On("InvalidateSearches", mock.Anything).Return(errors.New("redis down"))
	h := NewCacheInvalidator(invalidator, nil, WithBackoff(time.Millisecond, time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := h.Handle(ctx, message(t, kafka.NewFlightEvent(kafka.EventFlightDeleted, 7)))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// The service writes and its inline invalidation fails; the event replay
// through the worker is what finally evicts the stale page.
func TestCacheInvalidator_RecoversFailedInlineInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { _ = redisCache.Close() })
	ctx := context.Background()

	var page domain.FeaturedFlights
	gen, _, err := redisCache.GetSearch(ctx, "featured", &page)
	require.NoError(t, err)
	require.NoError(t, redisCache.SetSearch(ctx, gen, "featured", domain.FeaturedFlights{Total: 0}))

	// inline invalidation lost: Redis rejects commands while the write commits
	mr.SetError("ERR server unavailable")
	require.Error(t, redisCache.InvalidateSearches(ctx))

	h := NewCacheInvalidator(redisCache, nil, WithBackoff(time.Millisecond, 5*time.Millisecond))
	done := make(chan error, 1)
	go func() {
		done <- h.Handle(ctx, message(t, kafka.NewFlightEvent(kafka.EventFlightCreated, 1)))
	}()
	time.Sleep(10 * time.Millisecond)
	mr.SetError("")
	require.NoError(t, <-done)

	_, found, err := redisCache.GetSearch(ctx, "featured", &page)
	require.NoError(t, err)
	assert.False(t, found)
}
