package middleware

import (
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/metrics"
	tghelpers "github.com/m3rciful/rosterbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude lists update kinds (coreconfig.Update*) that are never limited.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

type lastSeen struct {
	mu    sync.Mutex
	users map[int64]time.Time
	swept time.Time
}

// allow records now for user and reports whether the previous update is older than interval.
// Entries older than interval are swept at most once per interval.
func (l *lastSeen) allow(user int64, now time.Time, interval time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.swept) > interval {
		for id, ts := range l.users {
			if now.Sub(ts) >= interval {
				delete(l.users, id)
			}
		}
		l.swept = now
	}
	if ts, ok := l.users[user]; ok && now.Sub(ts) < interval {
		return false
	}
	l.users[user] = now
	return true
}

func updateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return coreconfig.UpdateCallback
	case u.Message != nil:
		return coreconfig.UpdateMessage
	case u.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}

// RateLimitMiddleware drops updates that arrive from the same user faster than Interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	seen := &lastSeen{users: make(map[int64]time.Time)}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if seen.allow(user.ID, now(), opts.Interval) {
				return next(c)
			}

			metrics.RateLimited.WithLabelValues(kind).Inc()
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
