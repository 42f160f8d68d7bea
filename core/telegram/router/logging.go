package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/metrics"
	tghelpers "github.com/m3rciful/rosterbot/core/telegram/helpers"
	"github.com/m3rciful/rosterbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary is the single "handler.handled" line written per routed update.
type summary struct {
	handler string
	start   time.Time
	status  string
	outcome string
	extras  []slog.Attr
}

func newSummary(handler string, extras ...slog.Attr) *summary {
	return &summary{handler: handler, start: time.Now(), extras: extras}
}

// run executes fn under the handler name and writes the summary.
func (s *summary) run(c tele.Context, fn func() error) error {
	tghelpers.WithHandler(c, s.handler)
	err := fn()
	s.write(c, err)
	return err
}

// skip writes a summary for an update that never reached its handler.
func (s *summary) skip(c tele.Context, outcome string) {
	s.status, s.outcome = "skip", outcome
	s.write(c, nil)
}

func (s *summary) write(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.handler)

	status := s.status
	if status == "" {
		status = logger.Status(err)
	}
	outcome := s.outcome
	if outcome == "" {
		outcome = tghelpers.OutcomeFrom(c)
	}
	if outcome == "" {
		outcome = logger.Status(err)
	}

	replies, keyboard := middleware.Replies(c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.handler),
		slog.String("outcome", outcome),
		slog.Int("replies", replies),
		slog.Bool("keyboard", keyboard),
		slog.Duration("duration", logger.Took(s.start)),
	}, s.extras...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}

	metrics.Updates.WithLabelValues(s.handler, outcome).Inc()
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode names an error by its Code() method or, failing that, its
// innermost concrete type.
func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(inner) {
		err = inner
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
