package telegram

import (
	"time"

	"github.com/samber/lo"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares is the global chain, outermost first:
// recover, rate_limit (when an interval is configured), logger, replies.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	chain := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		chain = append(chain, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:   lo.Keyify(cfg.RateLimit.ExcludeUpdates),
				OnLimited: onLimited,
			}),
		})
	}

	return append(chain,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "replies", Use: middleware.CountReplies},
	)
}
