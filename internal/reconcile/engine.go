package reconcile

import (
	"context"
	"time"

	"ledgersync/internal/catalog"
	"ledgersync/internal/logger"
	"ledgersync/internal/services/xero"
)

// ItemFinder looks up accounting items by their code.
type ItemFinder interface {
	FindItemsByCode(ctx context.Context, code string) ([]xero.Item, error)
}

// Engine classifies the products of one run. It is not reused across runs.
type Engine struct {
	runID  string
	finder ItemFinder
	sink   Sink
	logger *logger.Logger
	now    func() time.Time
}

func NewEngine(runID string, finder ItemFinder, sink Sink, logger *logger.Logger) *Engine {
	return &Engine{
		runID:  runID,
		finder: finder,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// SyncProducts returns one outcome per product, in input order. A failed
// lookup becomes an error outcome and processing carries on.
func (e *Engine) SyncProducts(ctx context.Context, products []catalog.ProductRecord) []Outcome {
	outcomes := make([]Outcome, 0, len(products))
	for i, p := range products {
		o := e.classify(ctx, p)
		outcomes = append(outcomes, o)
		e.record(ctx, i+1, o)
	}
	return outcomes
}

func (e *Engine) classify(ctx context.Context, p catalog.ProductRecord) Outcome {
	if p.SKU == "" {
		return Skipped(p, MissingSKUReason)
	}

	items, err := e.finder.FindItemsByCode(ctx, p.SKU)
	if err != nil {
		e.logger.Warn("%v", &ItemError{SKU: p.SKU, Err: err})
		return Failed(p, err.Error())
	}
	if len(items) == 0 {
		return NotFound(p)
	}
	return Found(p)
}

func (e *Engine) record(ctx context.Context, seq int, o Outcome) {
	e.logger.Debug("Run %s #%d: %s", e.runID, seq, o)
	if e.sink == nil {
		return
	}
	entry := Entry{RunID: e.runID, Sequence: seq, Outcome: o, Time: e.now()}
	if err := e.sink.Record(ctx, entry); err != nil {
		e.logger.Warn("Failed to record outcome %d of run %s: %v", seq, e.runID, err)
	}
}
