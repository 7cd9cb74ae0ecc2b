package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"ledgersync/internal/config"
	"ledgersync/internal/logger"
	"ledgersync/internal/worker/processors"
)

const consumerGroup = "ledgersync-log-sink"

// MessageReader is the subset of *kafka.Reader the worker needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Processor handles a single message.
type Processor interface {
	Process(ctx context.Context, msg kafka.Message) error
}

type Worker struct {
	logger      *logger.Logger
	reader      MessageReader
	processor   Processor
	readTimeout time.Duration
	retryDelay  time.Duration
}

func New(cfg *config.Config, logger *logger.Logger, processor Processor) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokerList(),
		GroupID:        consumerGroup,
		Topic:          cfg.OutcomeTopic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
	return NewWithReader(reader, processor, logger)
}

func NewWithReader(reader MessageReader, processor Processor, logger *logger.Logger) *Worker {
	return &Worker{
		logger:      logger,
		reader:      reader,
		processor:   processor,
		readTimeout: 10 * time.Second,
		retryDelay:  5 * time.Second,
	}
}

// Start consumes messages until ctx is cancelled or the reader is closed.
// A message is committed once it is written to the log or found malformed.
// Any other failure is retried, so a line is never lost to a transient error.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, listening for outcome events...")

	for {
		if ctx.Err() != nil {
			return
		}

		readCtx, cancel := context.WithTimeout(ctx, w.readTimeout)
		message, err := w.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				continue
			case errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
				return
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		if !w.process(ctx, message) {
			return
		}
		if err := w.reader.CommitMessages(ctx, message); err != nil {
			w.logger.Error("Failed to commit offset %d: %v", message.Offset, err)
		}
	}
}

// process returns false when ctx ends before the message is handled.
func (w *Worker) process(ctx context.Context, message kafka.Message) bool {
	for {
		err := w.processor.Process(ctx, message)
		switch {
		case err == nil:
			w.logger.Debug("Event processed successfully")
			return true
		case errors.Is(err, processors.ErrMalformedEvent):
			w.logger.Error("Discarding event at offset %d: %v: %s", message.Offset, err, string(message.Value))
			return true
		}

		w.logger.Error("Failed to process event at offset %d, retrying in %s: %v", message.Offset, w.retryDelay, err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(w.retryDelay):
		}
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.reader.Close(); err != nil {
		w.logger.Warn("Failed to close reader: %v", err)
	}
}
