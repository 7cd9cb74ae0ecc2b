package processors

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ledgersync/internal/events"
	"ledgersync/internal/logger"
	"ledgersync/internal/synclog"
	"ledgersync/internal/worker/processors/export"
	"ledgersync/internal/worker/processors/validation"
)

// ErrMalformedEvent marks a message that can never be processed, however often it is retried.
var ErrMalformedEvent = errors.New("malformed outcome event")

type EventProcessor struct {
	logger    *logger.Logger
	validator *validation.Validator
	exporter  *export.Exporter
}

func NewEventProcessor(log *synclog.Writer, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		logger:    logger,
		validator: validation.New(logger),
		exporter:  export.New(log, logger),
	}
}

// Process decodes, validates and logs one outcome message.
func (ep *EventProcessor) Process(_ context.Context, msg kafka.Message) error {
	ev, err := events.Decode(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if err := ep.validator.ValidateEvent(ev); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return ep.exporter.ExportToLog(ev)
}
