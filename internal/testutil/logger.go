// Package testutil provides test helpers: a logger that writes to the test
// log and fixtures that lay out packages on disk.
package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a debug-level logger whose records go to t.Log, so
// they only show for failing tests or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return newDebugLogger(testLog{t})
}

// LogCapture is a debug-level logger that also keeps its records for
// assertions.
type LogCapture struct {
	Logger *slog.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogCapture returns a capture that mirrors every record to t.Log.
func NewLogCapture(t testing.TB) *LogCapture {
	t.Helper()
	c := &LogCapture{}
	c.Logger = newDebugLogger(io.MultiWriter(testLog{t}, lockedWriter{c}))
	return c
}

// String returns everything logged so far, one record per line.
func (c *LogCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func newDebugLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testLog struct {
	t testing.TB
}

func (w testLog) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// lockedWriter serializes writes from concurrent loads.
type lockedWriter struct {
	c *LogCapture
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.buf.Write(p)
}
