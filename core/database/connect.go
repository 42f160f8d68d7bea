// Package database opens the postgres pool and applies schema migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
)

const connectTimeout = 5 * time.Second

// DSN renders the lib/pq keyword/value connection string.
func DSN(cfg coreconfig.PostgresConfig) string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)
}

// MigrateURL renders the URL form golang-migrate expects, escaping credentials.
func MigrateURL(cfg coreconfig.PostgresConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect opens and pings the pool within connectTimeout.
func Connect(ctx context.Context, cfg coreconfig.PostgresConfig) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
	attrs := []slog.Attr{
		slog.String("event", "db.connect"),
		slog.String("host", cfg.Host),
		slog.String("db", cfg.Name),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelError, "db connect failed", append(attrs, slog.String("err", err.Error()))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if n := cfg.MaxConnections; n > 0 {
		db.SetMaxOpenConns(n)
		db.SetMaxIdleConns(n)
	}
	logger.DB.LogAttrs(ctx, slog.LevelInfo, "db connected", append(attrs, slog.Int("pool_open", cfg.MaxConnections))...)
	return db, nil
}
