// Package app wires configuration, storage and handlers into a runnable bot.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/rosterbot/core/bootstrap"
	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/metrics"
	tg "github.com/m3rciful/rosterbot/core/telegram"
	"github.com/m3rciful/rosterbot/core/telegram/state"
	"github.com/m3rciful/rosterbot/internal/bot"
	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/platform"
	"github.com/m3rciful/rosterbot/internal/registration"
	"github.com/m3rciful/rosterbot/internal/report"
	"github.com/m3rciful/rosterbot/internal/roster"
	"github.com/m3rciful/rosterbot/internal/store"
	"github.com/m3rciful/rosterbot/internal/userinfo"
)

// App owns the long-lived collaborators of the bot process.
type App struct {
	Config   *coreconfig.Config
	Repo     *store.Repository
	Texts    *locale.Store
	Sessions state.Manager
}

// Options overrides parts of Bootstrap; zero values use the defaults.
type Options struct {
	LoggerInit func(*coreconfig.Config) error
	OpenStore  func(ctx context.Context, cfg coreconfig.StorageConfig) (*store.Repository, error)
}

// Bootstrap initializes logging, opens the store and loads the texts.
func Bootstrap(ctx context.Context, cfg *coreconfig.Config, opts Options) (*App, error) {
	open := opts.OpenStore
	if open == nil {
		open = store.Open
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options[*store.Repository]{
		Config:     cfg,
		LoggerInit: opts.LoggerInit,
		OpenStore:  open,
	})
	if err != nil {
		return nil, err
	}
	return &App{
		Config:   cfg,
		Repo:     res.Store,
		Texts:    locale.Load(ctx, cfg.Locale.Path),
		Sessions: state.NewMemoryManager(),
	}, nil
}

// CoreConfig satisfies the command runner.
func (a *App) CoreConfig() *coreconfig.Config { return a.Config }

// Handlers builds the handler set around a membership source and the bot's username.
func (a *App) Handlers(p platform.Platform, username string) *bot.Bot {
	return bot.New(bot.Deps{
		Texts:        a.Texts,
		Groups:       a.Repo,
		Registration: registration.NewService(a.Repo, p, a.Sessions),
		Roster:       roster.NewBrowser(a.Repo),
		Reports:      report.NewGenerator(a.Repo, p, a.Texts.Get(locale.KeyUnknownGroup)),
		Info:         userinfo.NewService(a.Repo),
		Sessions:     a.Sessions,
		Admins:       a.Config.Telegram.AdminSet(),
		Username:     username,
	})
}

// TelegramRunOptions describes how the runtime should start the bot.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.Config == nil {
		return tg.RunOptions{}, fmt.Errorf("app: nil config")
	}
	return tg.RunOptions{
		Config:      a.Config,
		Registry:    tg.NewRegistry(),
		Middlewares: tg.DefaultMiddlewares(a.Config, nil),
		Setup:       a.setup,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) setup(_ context.Context, rt tg.Runtime) ([]tg.Route, error) {
	username := ""
	if rt.Bot.Me != nil {
		username = rt.Bot.Me.Username
	}
	admins := a.Config.Telegram.AdminSet()
	if len(admins) == 0 {
		logger.Warn(logger.Background(), "app", "admins.empty",
			slog.String("reason", "admin commands are disabled"),
		)
	}
	return a.Handlers(platform.New(rt.Bot), username).Register(rt.Registry)
}

func (a *App) onStart(ctx context.Context, _ tg.Runtime) error {
	if addr := a.Config.Metrics.Listen; addr != "" {
		go func() { _ = metrics.Serve(ctx, addr) }()
	}
	return nil
}

func (a *App) onStop(context.Context, tg.Runtime) error {
	if err := a.Repo.Close(); err != nil {
		return fmt.Errorf("app: close store: %w", err)
	}
	return nil
}
