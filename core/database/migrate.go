package database

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
)

// migration is one "<version>_<name>.up.sql" file.
type migration struct {
	version uint64
	file    string
}

// RunMigrations applies every pending up migration in dir.
func RunMigrations(cfg coreconfig.PostgresConfig, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	available := scanMigrations(abs)

	m, err := migrate.New("file://"+abs, MigrateURL(cfg))
	if err != nil {
		logger.MIG.Error("init failed", slog.String("event", "db.migrate"), slog.String("err", err.Error()))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to, _, _ := m.Version()

	applied := pending(available, uint64(from), uint64(to))
	preview, truncated := logger.SummarizeStrings(applied, 6)
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.String("path", abs),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// scanMigrations lists up files in dir ordered by version. Files without a
// numeric version prefix are skipped.
func scanMigrations(dir string) []migration {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, migration{version: v, file: e.Name()})
	}
	slices.SortFunc(out, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	return out
}

// pending returns the files with from < version <= to.
func pending(all []migration, from, to uint64) []string {
	var out []string
	for _, m := range all {
		if m.version > from && m.version <= to {
			out = append(out, m.file)
		}
	}
	return out
}
