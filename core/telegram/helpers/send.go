package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var outbox atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes SendText and SendDocument through d. With nil they
// call Telegram inline.
func SetDispatcher(d *sender.Dispatcher) {
	outbox.Store(d)
}

// deliver queues run on the dispatcher. A full or closed queue degrades to an
// inline call so the reply is not lost.
func deliver(c tele.Context, action, endpoint string, run func() error) error {
	d := outbox.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	default:
		return err
	}
}

func withMarkup(markup []*tele.ReplyMarkup) []any {
	if len(markup) == 0 || markup[0] == nil {
		return nil
	}
	return []any{markup[0]}
}

// SendText sends plain text with an optional keyboard.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := withMarkup(markup)
	return deliver(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts...)
	})
}

// EditText replaces the text and keyboard of the callback's message.
// It always runs inline.
func EditText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Edit(text, withMarkup(markup)...)
}

// SendDocument uploads doc to the current chat.
func SendDocument(c tele.Context, doc *tele.Document) error {
	return deliver(c, "send.document", "sendDocument", func() error {
		return c.Send(doc)
	})
}
