package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgersync/internal/events"
	"ledgersync/internal/logger"
	"ledgersync/internal/reconcile"
	"ledgersync/internal/synclog"
	"ledgersync/internal/worker/processors"
)

type queueReader struct {
	results   []readResult
	committed []kafka.Message
	closed    bool
}

type readResult struct {
	msg kafka.Message
	err error
}

func (r *queueReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.results) == 0 {
		return kafka.Message{}, io.EOF
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next.msg, next.err
}

func (r *queueReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *queueReader) Close() error {
	r.closed = true
	return nil
}

func encoded(t *testing.T, ev events.OutcomeEvent) kafka.Message {
	t.Helper()
	msg, err := events.Encode(ev)
	require.NoError(t, err)
	return msg
}

func TestWorkerWritesOutcomesToLog(t *testing.T) {
	dir := t.TempDir()
	log, err := synclog.NewWriter(dir)
	require.NoError(t, err)
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.Local)

	reader := &queueReader{results: []readResult{
		{msg: encoded(t, events.OutcomeEvent{RunID: "r1", Sequence: 1, SKU: "A1", Status: reconcile.StatusFound, Timestamp: at})},
		{err: context.DeadlineExceeded},
		{msg: kafka.Message{Value: []byte("not json")}},
		{err: errors.New("broker hiccup")},
		{msg: encoded(t, events.OutcomeEvent{RunID: "r1", Sequence: 2, Status: "weird", Timestamp: at})},
		{msg: encoded(t, events.OutcomeEvent{RunID: "r1", Sequence: 3, SKU: "B2", Status: reconcile.StatusNotFound, Timestamp: at})},
	}}

	w := NewWithReader(reader, processors.NewEventProcessor(log, logger.NewNop()), logger.NewNop())
	w.Start(context.Background())
	w.Stop()

	data, err := os.ReadFile(filepath.Join(dir, "sync-2024-06-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "[2024-06-01 09:30:00] FOUND A1\n[2024-06-01 09:30:00] NOT_FOUND B2\n", string(data))
	assert.Len(t, reader.committed, 4, "written and malformed messages are committed")
	assert.True(t, reader.closed)
}

type flakyProcessor struct {
	failures int
	calls    int
}

func (p *flakyProcessor) Process(context.Context, kafka.Message) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("no space left on device")
	}
	return nil
}

func TestWorkerRetriesFailedExportBeforeCommitting(t *testing.T) {
	msg := kafka.Message{Offset: 7, Value: []byte("{}")}
	reader := &queueReader{results: []readResult{{msg: msg}}}
	processor := &flakyProcessor{failures: 2}

	w := NewWithReader(reader, processor, logger.NewNop())
	w.retryDelay = time.Millisecond
	w.Start(context.Background())

	assert.Equal(t, 3, processor.calls)
	require.Len(t, reader.committed, 1)
	assert.Equal(t, int64(7), reader.committed[0].Offset)
}

func TestWorkerLeavesMessageUncommittedWhenStoppedDuringRetry(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	reader := &queueReader{results: []readResult{{msg: kafka.Message{Value: []byte("{}")}}}}
	processor := &flakyProcessor{failures: 1000}

	w := NewWithReader(reader, processor, logger.NewNop())
	w.retryDelay = 5 * time.Millisecond
	w.Start(ctx)

	assert.Greater(t, processor.calls, 1)
	assert.Empty(t, reader.committed)
}

func TestWorkerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &queueReader{results: []readResult{{msg: kafka.Message{Value: []byte("{}")}}}}
	NewWithReader(reader, processors.NewEventProcessor(nil, logger.NewNop()), logger.NewNop()).Start(ctx)

	assert.Len(t, reader.results, 1, "nothing is read once the context is done")
}
