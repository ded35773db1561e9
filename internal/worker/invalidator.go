package worker

import (
	"context"
	"time"

	"github.com/Domenick1991/flightsearch/internal/kafka"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type SearchInvalidator interface {
	InvalidateSearches(ctx context.Context) error
}

// CacheInvalidator drops cached search results for every flight mutation event.
// The API invalidates inline after a write; when that call fails (Redis down
// at write time) the event is the only remaining trigger, so Handle retries
// until the cache accepts the invalidation or ctx ends.
type CacheInvalidator struct {
	cache      SearchInvalidator
	logger     *zap.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

type Option func(*CacheInvalidator)

// WithBackoff sets the retry delay bounds. The delay doubles per failed
// attempt up to ceiling.
func WithBackoff(initial, ceiling time.Duration) Option {
	return func(h *CacheInvalidator) {
		h.minBackoff = initial
		h.maxBackoff = ceiling
	}
}

func NewCacheInvalidator(cache SearchInvalidator, logger *zap.Logger, opts ...Option) *CacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &CacheInvalidator{
		cache:      cache,
		logger:     logger,
		minBackoff: 100 * time.Millisecond,
		maxBackoff: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle never fails on a malformed message so the consumer keeps moving.
// It returns an error only when ctx ends before the invalidation succeeds.
func (h *CacheInvalidator) Handle(ctx context.Context, msg kafkaGo.Message) error {
	event, err := kafka.DecodeFlightEvent(msg)
	if err != nil {
		h.logger.Warn("skipping malformed flight event",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}

	switch event.Type {
	case kafka.EventFlightCreated, kafka.EventFlightUpdated, kafka.EventFlightDeleted:
	default:
		h.logger.Debug("ignoring event", zap.String("type", event.Type))
		return nil
	}

	if err := h.invalidate(ctx, event); err != nil {
		return err
	}
	h.logger.Info("search cache invalidated",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.Int64("flight_id", event.FlightID))
	return nil
}

func (h *CacheInvalidator) invalidate(ctx context.Context, event kafka.FlightEvent) error {
	delay := h.minBackoff
	for attempt := 1; ; attempt++ {
		err := h.cache.InvalidateSearches(ctx)
		if err == nil {
			return nil
		}
		h.logger.Warn("invalidate search cache, retrying",
			zap.String("event_id", event.ID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, h.maxBackoff)
	}
}
