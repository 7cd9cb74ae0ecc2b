package synclog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgersync/internal/reconcile"
)

func TestRecordAppendsOneLinePerOutcome(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "logs"))
	require.NoError(t, err)
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	ctx := context.Background()

	require.NoError(t, w.Record(ctx, reconcile.Entry{Time: at, Outcome: reconcile.Outcome{SKU: "A1", Status: reconcile.StatusFound}}))
	require.NoError(t, w.Record(ctx, reconcile.Entry{Time: at, Outcome: reconcile.Outcome{Status: reconcile.StatusSkipped, Message: "missing SKU"}}))
	require.NoError(t, w.Record(ctx, reconcile.Entry{Time: at, Outcome: reconcile.Outcome{SKU: "C3", Status: reconcile.StatusError, Message: "reset"}}))

	data, err := os.ReadFile(filepath.Join(w.Dir(), "sync-2024-03-09.log"))
	require.NoError(t, err)
	assert.Equal(t,
		"[2024-03-09 14:05:07] FOUND A1\n"+
			"[2024-03-09 14:05:07] SKIPPED - missing SKU\n"+
			"[2024-03-09 14:05:07] ERROR C3 - reset\n",
		string(data))
}

func TestListOpenDelete(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.Append(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), "old"))
	require.NoError(t, w.Append(time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local), "new"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := w.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "sync-2024-01-02.log", files[0].Name)
	assert.Equal(t, int64(4), files[0].Size)

	f, err := w.Open("sync-2024-01-01.log")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))

	require.NoError(t, w.Delete("sync-2024-01-01.log"))
	assert.ErrorIs(t, w.Delete("sync-2024-01-01.log"), ErrNotFound)
	_, err = w.Open("sync-2024-01-01.log")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectsNamesOutsidePattern(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../secret.log", "notes.txt", "sync-2024-01-01.log/..", ""} {
		_, err := w.Open(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
		assert.ErrorIs(t, w.Delete(name), ErrInvalidName, name)
	}
}
