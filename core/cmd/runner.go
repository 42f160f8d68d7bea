// Package cmd runs a configured Telegram app from a command line entry point.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
	coretelegram "github.com/m3rciful/rosterbot/core/telegram"
)

// ConfigCarrier exposes the core configuration of an app-specific config.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is what Run needs from a bootstrapped app.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wires config loading, bootstrap and the bot runtime.
type Options struct {
	// ConfigPath is used unless the ConfigEnvVar (default CONFIG_PATH) is set.
	ConfigPath   string
	ConfigEnvVar string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	// Hooks for tests; nil means logger.Shutdown and coretelegram.RunTelegram.
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ResolveConfigPath returns the path from env when set, else fallback.
func ResolveConfigPath(env, fallback string) string {
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p
	}
	return fallback
}

// Run loads the config, bootstraps the app and runs the bot until ctx is done.
func Run(ctx context.Context, opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	path := ResolveConfigPath(opts.ConfigEnvVar, opts.ConfigPath)
	if path == "" {
		return errors.New("cmd: no config path")
	}

	started := time.Now()
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: load config %s: %w", path, err)
	}
	if cfg == nil || cfg.CoreConfig() == nil {
		return errors.New("cmd: config has no core section")
	}

	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	shutdown := opts.ShutdownLogger
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	defer func() { _ = shutdown() }()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: run options: %w", err)
	}
	announce(&runOpts, started)

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

// announce logs "ready" after the app's OnStart and "shutdown" before its OnStop.
func announce(o *coretelegram.RunOptions, started time.Time) {
	onStart, onStop := o.OnStart, o.OnStop
	o.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready", slog.Duration("startup", logger.Took(started)))
		return nil
	}
	o.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}
