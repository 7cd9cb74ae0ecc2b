package reconcile

import (
	"context"
	"sync"
	"time"

	"ledgersync/internal/logger"
)

// Entry is an outcome as handed to a sink.
type Entry struct {
	RunID    string
	Sequence int
	Outcome  Outcome
	Time     time.Time
}

// Sink receives every outcome of a run as it is produced.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// defaultRetryPrimaryAfter is how long a failed primary sink is bypassed.
const defaultRetryPrimaryAfter = 30 * time.Second

// FallbackSink records to a primary sink and, when that fails, to the fallback.
// After a primary failure the primary is bypassed for a while so a dead
// broker does not cost a timeout per outcome.
type FallbackSink struct {
	primary  Sink
	fallback Sink
	logger   *logger.Logger

	retryAfter time.Duration
	now        func() time.Time

	mu        sync.Mutex
	downUntil time.Time
}

func NewFallbackSink(primary, fallback Sink, logger *logger.Logger) *FallbackSink {
	return &FallbackSink{
		primary:    primary,
		fallback:   fallback,
		logger:     logger,
		retryAfter: defaultRetryPrimaryAfter,
		now:        time.Now,
	}
}

func (s *FallbackSink) Record(ctx context.Context, e Entry) error {
	if s.primaryUp() {
		err := s.primary.Record(ctx, e)
		if err == nil {
			return nil
		}
		s.markDown()
		s.logger.Warn("Primary outcome sink failed, using fallback for %s: %v", s.retryAfter, err)
	}
	return s.fallback.Record(ctx, e)
}

func (s *FallbackSink) primaryUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.downUntil)
}

func (s *FallbackSink) markDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downUntil = s.now().Add(s.retryAfter)
}
