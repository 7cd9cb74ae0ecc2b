package export

import (
	"time"

	"ledgersync/internal/events"
	"ledgersync/internal/logger"
	"ledgersync/internal/synclog"
)

// Exporter writes outcome events to the flat sync log.
type Exporter struct {
	log    *synclog.Writer
	logger *logger.Logger
}

func New(log *synclog.Writer, logger *logger.Logger) *Exporter {
	return &Exporter{
		log:    log,
		logger: logger,
	}
}

func (e *Exporter) ExportToLog(ev events.OutcomeEvent) error {
	at := ev.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	// Timestamps are written in the local zone, as the API does when it writes directly.
	at = at.Local()
	if err := e.log.Append(at, synclog.FormatLine(at, ev.Outcome())); err != nil {
		return err
	}

	e.logger.Debug("Exported outcome %d of run %s to %s", ev.Sequence, ev.RunID, synclog.FileName(at))
	return nil
}
