package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Background is context.Background for call sites outside an update.
func Background() context.Context { return context.Background() }

// Component returns the base logger scoped to name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes one event. A nil logger falls back to the one in ctx.
func LogEvent(ctx context.Context, l *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if l == nil {
		l = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	l.LogAttrs(ctx, lvl, "", attrs...)
}

// Debug logs a debug event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug event should be written.
func ShouldSampleDebug() bool {
	return traceAll || debug.Allow()
}
