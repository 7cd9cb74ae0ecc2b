// Package events carries sync outcomes over Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ledgersync/internal/logger"
	"ledgersync/internal/reconcile"
)

// OutcomeEvent is the message body published for every outcome.
type OutcomeEvent struct {
	RunID     string           `json:"run_id"`
	Sequence  int              `json:"sequence"`
	ProductID string           `json:"product_id,omitempty"`
	SKU       string           `json:"sku,omitempty"`
	Status    reconcile.Status `json:"status"`
	Message   string           `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func FromEntry(e reconcile.Entry) OutcomeEvent {
	return OutcomeEvent{
		RunID:     e.RunID,
		Sequence:  e.Sequence,
		ProductID: e.Outcome.ProductID,
		SKU:       e.Outcome.SKU,
		Status:    e.Outcome.Status,
		Message:   e.Outcome.Message,
		Timestamp: e.Time,
	}
}

func (ev OutcomeEvent) Outcome() reconcile.Outcome {
	return reconcile.Outcome{
		ProductID: ev.ProductID,
		SKU:       ev.SKU,
		Status:    ev.Status,
		Message:   ev.Message,
	}
}

// Encode keys the message by run id so a run stays ordered within one partition.
func Encode(ev OutcomeEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal outcome event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.RunID),
		Value: value,
		Time:  ev.Timestamp,
	}, nil
}

func Decode(msg kafka.Message) (OutcomeEvent, error) {
	var ev OutcomeEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return OutcomeEvent{}, fmt.Errorf("failed to parse outcome event: %w", err)
	}
	return ev, nil
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is a reconcile.Sink writing each outcome to a Kafka topic.
type Publisher struct {
	writer MessageWriter
	logger *logger.Logger
}

func NewPublisher(brokers []string, topic string, logger *logger.Logger) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		// Outcomes are written one at a time, so waiting to fill a batch only adds latency.
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
	}, logger)
}

func NewPublisherWithWriter(writer MessageWriter, logger *logger.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

func (p *Publisher) Record(ctx context.Context, e reconcile.Entry) error {
	msg, err := Encode(FromEntry(e))
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish outcome event: %w", err)
	}
	p.logger.Debug("Published outcome %d of run %s", e.Sequence, e.RunID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
