package validation

import (
	"errors"
	"fmt"

	"ledgersync/internal/events"
	"ledgersync/internal/logger"
	"ledgersync/internal/reconcile"
)

var ErrInvalidEvent = errors.New("invalid outcome event")

type Validator struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	return &Validator{
		logger: logger,
	}
}

// ValidateEvent checks an outcome event before it is written to the log.
func (v *Validator) ValidateEvent(ev events.OutcomeEvent) error {
	if ev.RunID == "" {
		return fmt.Errorf("%w: missing run id", ErrInvalidEvent)
	}
	if ev.Sequence < 1 {
		return fmt.Errorf("%w: sequence %d", ErrInvalidEvent, ev.Sequence)
	}

	switch ev.Status {
	case reconcile.StatusFound, reconcile.StatusNotFound:
		if ev.SKU == "" {
			return fmt.Errorf("%w: %s outcome without SKU", ErrInvalidEvent, ev.Status)
		}
	case reconcile.StatusSkipped, reconcile.StatusError, reconcile.StatusFatal:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, ev.Status)
	}

	v.logger.Debug("Validated outcome %d of run %s", ev.Sequence, ev.RunID)
	return nil
}
