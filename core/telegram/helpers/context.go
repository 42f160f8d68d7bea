// Package helpers carries per-update state on tele.Context: the logging
// context, the handler outcome and the outbound send helpers.
package helpers

import (
	"context"

	"github.com/m3rciful/rosterbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Keys used with tele.Context.Set.
const (
	ctxKey     = "logger_ctx"
	outcomeKey = "handler_outcome"
)

// StoreContext keeps ctx on the update for later helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the update's logging context, creating it on first use
// with a request id and the update, user and chat ids.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}

	var userID, chatID int64
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	updateID := c.Update().ID

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}

	ctx := logger.WithUpdateMeta(logger.WithRID(context.Background(), rid), updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the update's context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}

// SetOutcome records the domain outcome reported in the handler summary.
func SetOutcome(c tele.Context, outcome string) {
	if c != nil && outcome != "" {
		c.Set(outcomeKey, outcome)
	}
}

// OutcomeFrom returns the outcome set by SetOutcome, or "".
func OutcomeFrom(c tele.Context) string {
	if c == nil {
		return ""
	}
	s, _ := c.Get(outcomeKey).(string)
	return s
}
