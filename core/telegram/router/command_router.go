package router

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/m3rciful/rosterbot/core/logger"
	tg "github.com/m3rciful/rosterbot/core/telegram"
	"github.com/m3rciful/rosterbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures admin gating for commands.
type CommandRouteOptions struct {
	Admins        map[int64]struct{}
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command, in name order.
// Each handler is wrapped as recover -> logger -> [admin] -> summary.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		Admins:   opts.Admins,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for _, name := range slices.Sorted(maps.Keys(cmds)) {
		def := cmds[name]
		handlerName := normalizeHandlerName(name)
		h := func(c tele.Context) error {
			return newSummary(handlerName).run(c, func() error { return def.Handler(c) })
		}
		if def.AdminOnly {
			h = gate(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		})
	}

	logger.TWire.Info("routes wired",
		slog.String("event", "complete"),
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.CallbackKeys())),
		slog.Int("admins", len(opts.Admins)),
	)
	return routes
}
