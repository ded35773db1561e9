package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventFlightCreated = "flight_created"
	EventFlightUpdated = "flight_updated"
	EventFlightDeleted = "flight_deleted"
)

type FlightEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	FlightID   int64     `json:"flight_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewFlightEvent(eventType string, flightID int64) FlightEvent {
	return FlightEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		FlightID:   flightID,
		OccurredAt: time.Now().UTC(),
	}
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	logger  *zap.Logger
}

func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{
		brokers: brokers,
		writer:  writer,
		logger:  logger,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.Debug("published event", zap.String("topic", topic), zap.String("key", key))
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}
	p.logger.Info("connected to kafka", zap.Int("partitions", len(partitions)))
	return nil
}
