package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/rosterbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware attaches the request id and update metadata to the update
// and logs its receipt (sampled, debug level). When the chain applies it more
// than once, only the first pass does anything.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, seen := tghelpers.ContextFrom(c); seen {
			return next(c)
		}
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil {
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}

	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
