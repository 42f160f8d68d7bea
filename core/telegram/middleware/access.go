package middleware

import (
	"log/slog"

	"github.com/m3rciful/rosterbot/core/logger"
	tghelpers "github.com/m3rciful/rosterbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// Admins is the allow-list. An empty set admits nobody.
	Admins   map[int64]struct{}
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether userID is in the allow-list.
func (o AdminOptions) IsAdmin(userID int64) bool {
	_, ok := o.Admins[userID]
	return ok
}

// AdminOnlyMiddleware lets only allow-listed users reach downstream handlers.
// Everyone else gets OnReject, or silence when it is nil.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender != nil && opts.IsAdmin(sender.ID) {
				return next(c)
			}
			logger.Debug(tghelpers.BuildContext(c), "tg", "access.denied",
				slog.String("status", "skip"),
				slog.String("outcome", "denied"),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
