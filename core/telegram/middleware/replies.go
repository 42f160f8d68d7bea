package middleware

import (
	"github.com/m3rciful/rosterbot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

const (
	repliesKey  = "replies"
	keyboardKey = "replied_with_keyboard"
)

// replyContext counts what a handler sends for the per-update summary and
// the replies_total metric.
type replyContext struct{ tele.Context }

func (r replyContext) record(what any, opts []any, edit bool) {
	n, _ := r.Get(repliesKey).(int)
	r.Set(repliesKey, n+1)

	kind := "text"
	switch {
	case edit:
		kind = "edit"
	case isDocument(what):
		kind = "document"
	case markupIn(opts):
		kind = "keyboard"
	}
	if markupIn(opts) {
		r.Set(keyboardKey, true)
	}
	metrics.Replies.WithLabelValues(kind).Inc()
}

func isDocument(what any) bool {
	_, ok := what.(*tele.Document)
	return ok
}

func markupIn(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v != nil
		case *tele.SendOptions:
			return v != nil && v.ReplyMarkup != nil
		}
	}
	return false
}

func (r replyContext) Send(what any, opts ...any) error {
	if err := r.Context.Send(what, opts...); err != nil {
		return err
	}
	r.record(what, opts, false)
	return nil
}

func (r replyContext) Reply(what any, opts ...any) error {
	if err := r.Context.Reply(what, opts...); err != nil {
		return err
	}
	r.record(what, opts, false)
	return nil
}

func (r replyContext) Edit(what any, opts ...any) error {
	if err := r.Context.Edit(what, opts...); err != nil {
		return err
	}
	r.record(what, opts, true)
	return nil
}

// CountReplies wraps the context so sends and edits are counted.
func CountReplies(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return next(replyContext{Context: c})
	}
}

// Replies returns how many messages the current update produced and whether
// any of them carried a keyboard.
func Replies(c tele.Context) (int, bool) {
	n, _ := c.Get(repliesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}
