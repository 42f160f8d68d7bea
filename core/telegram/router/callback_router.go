package router

import (
	"log/slog"

	tg "github.com/m3rciful/rosterbot/core/telegram"
	"github.com/m3rciful/rosterbot/core/telegram/callbacks"
	"github.com/m3rciful/rosterbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises access and fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound is used when the registry has no fallback of its own.
	NotFound tele.HandlerFunc
	// Admins gates keys listed in AdminKeys.
	Admins    map[int64]struct{}
	AdminKeys map[string]struct{}
}

// CallbackRoute returns the single OnCallback route that dispatches by key.
// Every callback is answered before its handler runs.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	admin := middleware.AdminOptions{Admins: opts.Admins}

	allowed := func(c tele.Context, key string) bool {
		if _, gated := opts.AdminKeys[key]; !gated {
			return true
		}
		return c.Sender() != nil && admin.IsAdmin(c.Sender().ID)
	}

	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		sum := newSummary("callback."+normalizeHandlerName(key), slog.String("cb_key", key))

		_ = c.Respond()

		if !allowed(c, key) {
			sum.skip(c, "denied")
			return nil
		}

		h, ok := reg.Callback(key)
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			if h == nil {
				h = opts.NotFound
			}
			sum.extras = append(sum.extras, slog.String("reason", "not_found"))
		}
		return sum.run(c, func() error {
			if h == nil {
				return nil
			}
			return h(c)
		})
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
