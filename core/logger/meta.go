package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{ name string }

var (
	loggerKey = ctxKey{"logger"}
	metaKey   = ctxKey{"meta"}
)

// updateMeta identifies the Telegram update a context belongs to.
type updateMeta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
}

func metaFrom(ctx context.Context) updateMeta {
	if ctx == nil {
		return updateMeta{}
	}
	m, _ := ctx.Value(metaKey).(updateMeta)
	return m
}

func withMeta(ctx context.Context, edit func(*updateMeta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := metaFrom(ctx)
	edit(&m)
	return context.WithValue(ctx, metaKey, m)
}

// WithLogger attaches l to ctx. A nil l leaves ctx unchanged.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID sets the correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *updateMeta) { m.RID = rid })
}

// WithUpdateMeta sets update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *updateMeta) {
		m.UpdateID, m.UserID, m.ChatID = updateID, userID, chatID
	})
}

// WithHandler sets the handler name. An empty name leaves ctx unchanged.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withMeta(ctx, func(m *updateMeta) { m.Handler = handler })
}

// attrs returns the metadata as log fields, skipping zero values.
func (m updateMeta) attrs() []field {
	var out []field
	if m.RID != "" {
		out = append(out, field{"rid", m.RID})
	}
	if m.UpdateID != 0 {
		out = append(out, field{"update_id", int64(m.UpdateID)})
	}
	if m.UserID != 0 {
		out = append(out, field{"user_id", m.UserID})
	}
	if m.ChatID != 0 {
		out = append(out, field{"chat_id", m.ChatID})
	}
	if m.Handler != "" {
		out = append(out, field{"handler", m.Handler})
	}
	return out
}
