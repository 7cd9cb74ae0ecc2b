package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledgersync/internal/catalog"
	"ledgersync/internal/logger"
	"ledgersync/internal/services/xero"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// SessionProvider yields credentials that are valid for at least the start of a run.
type SessionProvider interface {
	EnsureValidSession(ctx context.Context) (xero.Credentials, error)
}

// ConnectFunc builds an item finder for creds, failing if the remote side rejects them.
type ConnectFunc func(ctx context.Context, creds xero.Credentials) (ItemFinder, error)

// ConnectWith adapts a xero connector.
func ConnectWith(c *xero.Connector) ConnectFunc {
	return func(ctx context.Context, creds xero.Credentials) (ItemFinder, error) {
		client, err := c.Connect(ctx, creds)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Runner drives a full sync: session, client, catalog, then the engine.
type Runner struct {
	sessions SessionProvider
	connect  ConnectFunc
	catalog  catalog.Reader
	sink     Sink
	logger   *logger.Logger

	mu    sync.Mutex
	newID func() string
	now   func() time.Time
}

func NewRunner(sessions SessionProvider, connect ConnectFunc, reader catalog.Reader, sink Sink, logger *logger.Logger) *Runner {
	return &Runner{
		sessions: sessions,
		connect:  connect,
		catalog:  reader,
		sink:     sink,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Run performs one sync. A failure before any product is processed returns
// the error together with a report holding a single fatal outcome.
func (r *Runner) Run(ctx context.Context, q catalog.Query) (*Report, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	report := &Report{RunID: r.newID(), StartedAt: r.now()}
	log := r.logger.With("run_id", report.RunID)
	log.Info("Starting sync run")

	creds, err := r.sessions.EnsureValidSession(ctx)
	if err != nil {
		return r.fail(ctx, log, report, err)
	}

	finder, err := r.connect(ctx, creds)
	if err != nil {
		return r.fail(ctx, log, report, err)
	}

	products, err := r.catalog.GetProducts(ctx, q)
	if err != nil {
		return r.fail(ctx, log, report, err)
	}
	log.Info("Processing %d products", len(products))

	engine := NewEngine(report.RunID, finder, r.sink, log)
	engine.now = r.now
	report.Outcomes = engine.SyncProducts(ctx, products)
	report.finish(r.now())

	log.Info("Run finished: %s", report.Summary())
	return report, nil
}

func (r *Runner) fail(ctx context.Context, log *logger.Logger, report *Report, err error) (*Report, error) {
	outcome := Fatal(err)
	report.Outcomes = []Outcome{outcome}
	report.finish(r.now())

	log.Error("Run aborted: %v", err)
	if r.sink != nil {
		entry := Entry{RunID: report.RunID, Sequence: 1, Outcome: outcome, Time: report.FinishedAt}
		if serr := r.sink.Record(ctx, entry); serr != nil {
			log.Warn("Failed to record fatal outcome: %v", serr)
		}
	}
	return report, err
}
