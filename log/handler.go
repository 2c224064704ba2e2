package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SimpleHandler writes logs in the format: <timestamp> <level> <message>.
// Attributes and groups are accepted but not rendered.
type SimpleHandler struct {
	level slog.Leveler

	mu *sync.Mutex
	w  io.Writer
}

// NewSimpleHandler creates a new SimpleHandler that writes to w the records at or above level.
func NewSimpleHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return &SimpleHandler{
		level: level,
		mu:    &sync.Mutex{},
		w:     w,
	}
}

// Enabled checks if the handler is enabled for the given log level.
func (h *SimpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements the slog.Handler interface.
func (h *SimpleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := fmt.Fprintf(h.w, "%s %s %s\n", r.Time.Format("15:04:05"), levelName(r.Level), r.Message)
	return err
}

// WithAttrs returns the same handler: attributes are not part of the simple format.
func (h *SimpleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

// WithGroup returns the same handler: groups are not part of the simple format.
func (h *SimpleHandler) WithGroup(_ string) slog.Handler {
	return h
}

func levelName(l slog.Level) string {
	if l == NoticeLevel {
		return "NOTICE"
	}
	return l.String()
}
