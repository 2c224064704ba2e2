// Package log is the screenlock logger.
//
// Messages are formatted eagerly and dispatched to a per-level handler, which defaults to
// the standard library slog logger configured with [SimpleHandler].
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"sync"
)

type (
	// Level is the log level for the logs.
	Level = slog.Level

	// Handler is the log handler function.
	Handler = func(_ context.Context, _ Level, format string, args ...interface{})
)

const (
	// ErrorLevel level. Used for errors that should definitely be noted.
	ErrorLevel = slog.LevelError
	// WarnLevel level. Non-critical entries that deserve eyes.
	WarnLevel = slog.LevelWarn
	// NoticeLevel level. Normal but significant conditions, such as an unlock.
	// slog doesn't have a Notice level, so we use the average between Info and Warn.
	NoticeLevel = (slog.LevelInfo + slog.LevelWarn) / 2
	// InfoLevel level. General operational entries about what's going on inside the application.
	InfoLevel = slog.LevelInfo
	// DebugLevel level. Usually only enabled when debugging. Very verbose logging.
	DebugLevel = slog.LevelDebug
)

var allLevels = []Level{DebugLevel, InfoLevel, NoticeLevel, WarnLevel, ErrorLevel}

var (
	level = func() *slog.LevelVar {
		var l slog.LevelVar
		l.Set(NoticeLevel)
		return &l
	}()

	outputMu sync.Mutex
	output   io.Writer = os.Stderr

	handlersMu      sync.RWMutex
	defaultHandlers = map[Level]Handler{
		DebugLevel:  slogHandler(DebugLevel),
		InfoLevel:   slogHandler(InfoLevel),
		NoticeLevel: slogHandler(NoticeLevel),
		WarnLevel:   slogHandler(WarnLevel),
		ErrorLevel:  slogHandler(ErrorLevel),
	}
	handlers = maps.Clone(defaultHandlers)
)

func init() {
	SetOutput(os.Stderr)
}

func slogHandler(l Level) Handler {
	return func(ctx context.Context, _ Level, format string, args ...interface{}) {
		slog.Default().Log(ctx, l, fmt.Sprintf(format, args...))
	}
}

// GetLevel returns the current log level.
func GetLevel() Level {
	return level.Level()
}

// SetLevel sets the log level and returns the previous one.
func SetLevel(l Level) (oldLevel Level) {
	oldLevel = level.Level()
	level.Set(l)
	return oldLevel
}

// IsLevelEnabled returns whether messages at l are emitted.
func IsLevelEnabled(l Level) bool {
	return l >= level.Level()
}

// SetOutput redirects the default handlers to out.
func SetOutput(out io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()

	output = out
	slog.SetDefault(slog.New(NewSimpleHandler(out, level)))
}

// Output returns the writer used by the default handlers.
func Output() io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	return output
}

// SetLevelHandler allows to define the handler function for a given level.
// A nil handler restores the default one.
func SetLevelHandler(l Level, handler Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()

	if handler == nil {
		h, ok := defaultHandlers[l]
		if !ok {
			return
		}
		handler = h
	}
	handlers[l] = handler
}

// SetHandler allows to define the handler function for all log levels.
// A nil handler restores the defaults.
func SetHandler(handler Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()

	if handler == nil {
		handlers = maps.Clone(defaultHandlers)
		return
	}
	for _, l := range allLevels {
		handlers[l] = handler
	}
}

func logf(ctx context.Context, l Level, format string, args ...interface{}) {
	if !IsLevelEnabled(l) {
		return
	}

	handlersMu.RLock()
	handler := handlers[l]
	handlersMu.RUnlock()

	handler(ctx, l, format, args...)
}

func logln(ctx context.Context, l Level, args ...interface{}) {
	if !IsLevelEnabled(l) {
		return
	}
	logf(ctx, l, "%s", fmt.Sprint(args...))
}

// Debug outputs messages with the level [DebugLevel].
func Debug(ctx context.Context, args ...interface{}) {
	logln(ctx, DebugLevel, args...)
}

// Debugf outputs formatted messages with the level [DebugLevel].
func Debugf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, DebugLevel, format, args...)
}

// Info outputs messages with the level [InfoLevel].
func Info(ctx context.Context, args ...interface{}) {
	logln(ctx, InfoLevel, args...)
}

// Infof outputs formatted messages with the level [InfoLevel].
func Infof(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, InfoLevel, format, args...)
}

// Notice outputs messages with the level [NoticeLevel].
func Notice(ctx context.Context, args ...interface{}) {
	logln(ctx, NoticeLevel, args...)
}

// Noticef outputs formatted messages with the level [NoticeLevel].
func Noticef(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, NoticeLevel, format, args...)
}

// Warning outputs messages with the level [WarnLevel].
func Warning(ctx context.Context, args ...interface{}) {
	logln(ctx, WarnLevel, args...)
}

// Warningf outputs formatted messages with the level [WarnLevel].
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, WarnLevel, format, args...)
}

// Error outputs messages with the level [ErrorLevel].
func Error(ctx context.Context, args ...interface{}) {
	logln(ctx, ErrorLevel, args...)
}

// Errorf outputs formatted messages with the level [ErrorLevel].
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, ErrorLevel, format, args...)
}
