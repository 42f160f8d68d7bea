package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
	tghelpers "github.com/m3rciful/rosterbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/rosterbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to an endpoint accepted by tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route
	// Setup runs once the bot exists and before the command menu is
	// published. It registers commands and returns routes that need the bot.
	Setup func(ctx context.Context, rt Runtime) ([]Route, error)

	// KeepWebhook skips removing a stale webhook in long-poll mode.
	KeepWebhook bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, wires middleware and routes, publishes the
// command menu and polls until ctx is done. Cancellation is a clean exit.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(ctx, opts.Config)
	if err != nil {
		return err
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: opts.Registry}

	if err := install(ctx, rt, opts); err != nil {
		return err
	}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := poll(ctx, bot)

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	return runErr
}

func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(PollTimeout(cfg.Telegram.LongPollTimeoutSeconds)),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}

	attrs := []slog.Attr{
		slog.String("event", "mode"),
		slog.Duration("duration", logger.Took(start)),
	}
	if wh, ok := poller.(*tele.Webhook); ok {
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", wh.Listen),
			slog.String("public_url", wh.Endpoint.PublicURL),
		)
	} else {
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.Duration("poll_timeout", PollTimeout(cfg.Telegram.LongPollTimeoutSeconds)),
		)
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "bot created", attrs...)
	return bot, nil
}

// install applies middleware, runs Setup, binds routes and publishes the menu.
func install(ctx context.Context, rt Runtime, opts RunOptions) error {
	if _, polling := rt.Bot.Poller.(*tele.LongPoller); polling && !opts.KeepWebhook {
		if err := rt.Bot.RemoveWebhook(false); err != nil {
			logger.TG.Warn("remove webhook failed",
				slog.String("event", "delete_webhook"),
				slog.String("err", err.Error()),
			)
		}
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			rt.Bot.Use(mw.Use)
		}
	}

	routes := opts.Routes
	if opts.Setup != nil {
		extra, err := opts.Setup(ctx, rt)
		if err != nil {
			return fmt.Errorf("telegram: setup: %w", err)
		}
		routes = append(routes, extra...)
	}
	for _, r := range routes {
		if r.Endpoint != nil && r.Handler != nil {
			rt.Bot.Handle(r.Endpoint, r.Handler)
		}
	}

	PublishCommands(rt.Bot, rt.Registry)
	return nil
}

// poll blocks in bot.Start until ctx is done or the poller exits on its own.
func poll(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-done:
		return nil
	}
}
