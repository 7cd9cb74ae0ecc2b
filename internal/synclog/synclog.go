// Package synclog keeps the flat, append-only sync log, one file per day.
package synclog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"ledgersync/internal/reconcile"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dayLayout       = "2006-01-02"
)

var (
	ErrInvalidName = errors.New("invalid log file name")
	ErrNotFound    = errors.New("log file not found")

	namePattern = regexp.MustCompile(`^sync-\d{4}-\d{2}-\d{2}\.log$`)
)

// FileName returns the log file name for the day of t.
func FileName(t time.Time) string {
	return "sync-" + t.Format(dayLayout) + ".log"
}

// FormatLine renders an outcome as "[2006-01-02 15:04:05] STATUS sku - message".
func FormatLine(at time.Time, o reconcile.Outcome) string {
	return fmt.Sprintf("[%s] %s", at.Format(timestampLayout), o.String())
}

// Writer appends outcome lines to the file of the day the outcome was produced.
type Writer struct {
	dir string
	mu  sync.Mutex
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

// Record implements reconcile.Sink.
func (w *Writer) Record(_ context.Context, e reconcile.Entry) error {
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	return w.Append(at, FormatLine(at, e.Outcome))
}

// Append writes a single line to the file for the day of at.
func (w *Writer) Append(at time.Time, line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(w.dir, FileName(at)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open sync log: %w", err)
	}
	if _, err := io.WriteString(f, line+"\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write sync log: %w", err)
	}
	return f.Close()
}

// FileInfo describes one log file.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified_at"`
}

// List returns the log files, newest day first.
func (w *Writer) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log dir: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !namePattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// Open opens a log file for reading. The caller closes it.
func (w *Writer) Open(name string) (*os.File, error) {
	path, err := w.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (w *Writer) Delete(name string) error {
	path, err := w.path(name)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete log file: %w", err)
	}
	return nil
}

func (w *Writer) path(name string) (string, error) {
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(w.dir, name), nil
}
