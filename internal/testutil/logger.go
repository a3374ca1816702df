// Package testutil provides logging helpers for tests.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes to t.Log.
// Output only shows on failure or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	logger, _ := NewRecordingLogger(t)
	return logger
}

// NewRecordingLogger is NewTestLogger plus a Logs that keeps every record
// so a test can assert on what was logged.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *Logs) {
	t.Helper()
	logs := &Logs{}
	text := slog.NewTextHandler(lineWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(&recordingHandler{Handler: text, logs: logs}), logs
}

// Logs holds the records a recording logger has seen.
type Logs struct {
	mu      sync.Mutex
	records []slog.Record
}

// Messages returns the logged messages in order.
func (l *Logs) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := make([]string, len(l.records))
	for i, r := range l.records {
		msgs[i] = r.Message
	}
	return msgs
}

// Attr returns attribute key of the first record logged with msg. Attributes
// bound through Logger.With are not recorded.
func (l *Logs) Attr(msg, key string) (slog.Value, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.Message != msg {
			continue
		}
		var (
			val   slog.Value
			found bool
		)
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				val, found = a.Value, true
				return false
			}
			return true
		})
		return val, found
	}
	return slog.Value{}, false
}

type recordingHandler struct {
	slog.Handler
	logs *Logs
}

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.logs.mu.Lock()
	h.logs.records = append(h.logs.records, r.Clone())
	h.logs.mu.Unlock()
	return h.Handler.Handle(ctx, r)
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordingHandler{Handler: h.Handler.WithAttrs(attrs), logs: h.logs}
}

func (h *recordingHandler) WithGroup(name string) slog.Handler {
	return &recordingHandler{Handler: h.Handler.WithGroup(name), logs: h.logs}
}

// lineWriter sends each formatted record to t.Log without its newline.
type lineWriter struct {
	t testing.TB
}

func (w lineWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
