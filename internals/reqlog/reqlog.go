// Package reqlog buffers log entries for one HTTP request and emits them as a
// single structured record when the request ends.
package reqlog

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

type Entry struct {
	Level   slog.Level
	Message string
	At      time.Time
	Attrs   []slog.Attr
}

type Logger struct {
	mu      sync.Mutex
	attrs   []slog.Attr
	entries []Entry
}

func New(attrs ...slog.Attr) *Logger {
	return &Logger{attrs: append([]slog.Attr(nil), attrs...)}
}

// Add attaches attributes to the final record.
func (l *Logger) Add(attrs ...slog.Attr) {
	l.mu.Lock()
	l.attrs = append(l.attrs, attrs...)
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, attrs ...slog.Attr) { l.append(slog.LevelDebug, msg, attrs) }
func (l *Logger) Info(msg string, attrs ...slog.Attr)  { l.append(slog.LevelInfo, msg, attrs) }
func (l *Logger) Warn(msg string, attrs ...slog.Attr)  { l.append(slog.LevelWarn, msg, attrs) }
func (l *Logger) Error(msg string, attrs ...slog.Attr) { l.append(slog.LevelError, msg, attrs) }

func (l *Logger) append(level slog.Level, msg string, attrs []slog.Attr) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Message: msg, At: time.Now(), Attrs: attrs})
	l.mu.Unlock()
}

// Level is the highest level among buffered entries, at least Info.
func (l *Logger) Level() slog.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	level := slog.LevelInfo
	for _, e := range l.entries {
		if e.Level > level {
			level = e.Level
		}
	}
	return level
}

// Flush drains the buffer and returns the record attributes followed by an
// "entries" group, one sub-group per entry.
func (l *Logger) Flush() []slog.Attr {
	l.mu.Lock()
	entries := l.entries
	l.entries = nil
	attrs := append([]slog.Attr(nil), l.attrs...)
	l.mu.Unlock()

	if len(entries) == 0 {
		return attrs
	}
	group := make([]any, 0, len(entries))
	for i, e := range entries {
		fields := []any{
			slog.String("level", e.Level.String()),
			slog.String("message", e.Message),
			slog.Time("at", e.At),
		}
		for _, attr := range e.Attrs {
			fields = append(fields, attr)
		}
		group = append(group, slog.Group(strconv.Itoa(i), fields...))
	}
	return append(attrs, slog.Group("entries", group...))
}

// Emit writes the buffered request as one record on logger.
func (l *Logger) Emit(ctx context.Context, logger *slog.Logger, msg string) {
	level := l.Level()
	logger.LogAttrs(ctx, level, msg, l.Flush()...)
}

type IDs struct {
	RequestID string
	TraceID   string
}

// IDsFromRequest reads the request and trace ids from headers and fills in
// missing ones. A missing trace id reuses the request id.
func IDsFromRequest(r *http.Request) IDs {
	ids := IDs{
		RequestID: r.Header.Get(HeaderRequestID),
		TraceID:   r.Header.Get(HeaderTraceID),
	}
	if ids.RequestID == "" {
		ids.RequestID = uuid.NewString()
	}
	if ids.TraceID == "" {
		ids.TraceID = ids.RequestID
	}
	return ids
}

type contextKey struct{}

func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or a detached one so callers
// never need a nil check.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return New()
}
