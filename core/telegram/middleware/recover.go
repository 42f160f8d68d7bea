package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/metrics"
	tghelpers "github.com/m3rciful/rosterbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into an error for that update only.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			metrics.Panics.Inc()
			logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("telegram: handler panic: %v", r)
		}()
		return next(c)
	}
}
