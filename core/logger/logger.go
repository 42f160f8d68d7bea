// Package logger is the structured event log shared by every component.
// Events are slog records with an "event" name, a "component" and optional
// per-update metadata carried in the context.
package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/rosterbot/core/buildinfo"
	coreconfig "github.com/m3rciful/rosterbot/core/config"
)

var (
	initOnce sync.Once
	out      *sink
	level    slog.LevelVar
	debug    = newSampler(50)
	traceAll bool

	// L is the base logger; prefer the context-first helpers.
	L *slog.Logger
	// DB logs database events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs schema migrations.
	MIG *slog.Logger
	// TWire logs handler wiring.
	TWire *slog.Logger
	// Store logs registration store events.
	Store *slog.Logger
)

// Until InitLogger runs (tests, CLI subcommands) records are discarded.
func init() {
	use(slog.New(slog.DiscardHandler))
}

func use(base *slog.Logger) {
	L = base
	DB = Component("db")
	TG = Component("tg")
	MIG = Component("db.migrate")
	TWire = Component("tg.wire")
	Store = Component("store")
}

// InitLogger installs the structured handler. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		lc := coreconfig.LoggingConfig{}
		if cfg != nil {
			lc = cfg.Logging
		}
		level.Set(parseLevel(lc.Level))
		debug.every.Store(parseSample(lc.DebugSample))
		traceAll = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		out = newSink(openOutputs(lc)...)
		base := slog.New(&handler{
			level:  &level,
			out:    out,
			format: parseFormat(lc),
			order:  parseKeyOrder(lc.KeysOrder),
		})
		use(base)
		slog.SetDefault(base)
		startup(cfg)
	})
	return nil
}

func startup(cfg *coreconfig.Config) {
	attrs := []slog.Attr{
		slog.String("component", "app"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
	}
	if cfg != nil {
		attrs = append(attrs,
			slog.String("cfg_profile", profile(cfg.Logging)),
			slog.String("storage", cfg.Storage.Driver),
		)
	}
	LogEvent(context.Background(), L, slog.LevelInfo, "startup", attrs...)
}

// Shutdown closes file outputs. Safe to call more than once.
func Shutdown() error {
	if out == nil {
		return nil
	}
	return out.Close()
}

func openOutputs(lc coreconfig.LoggingConfig) []io.Writer {
	writers := []io.Writer{os.Stdout}
	dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile)
	if dir == "" || file == "" {
		return writers
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create %s: %v", dir, err)
		return writers
	}
	path := filepath.Join(dir, file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: open %s: %v", path, err)
		return writers
	}
	return append(writers, f)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// parseFormat honours an explicit format, else picks kv for debug/dev profiles.
func parseFormat(lc coreconfig.LoggingConfig) format {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if p := profile(lc); p == "debug" || p == "dev" {
		return formatKV
	}
	return formatJSON
}

func parseKeyOrder(list string) []string {
	if list == "" || list == "default" {
		return defaultKeyOrder
	}
	var order []string
	for _, k := range strings.Split(list, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return defaultKeyOrder
	}
	return order
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		return p
	}
	return "prod"
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
