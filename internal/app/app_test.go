package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	tg "github.com/m3rciful/rosterbot/core/telegram"
	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/store"
)

func newApp(t *testing.T) *App {
	t.Helper()
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "x", AdminIDs: "1,2"},
		Storage:  coreconfig.StorageConfig{Driver: coreconfig.StorageMemory},
		Locale:   coreconfig.LocaleConfig{Path: "../../locales/en.yml"},
	}
	a, err := Bootstrap(context.Background(), cfg, Options{
		LoggerInit: func(*coreconfig.Config) error { return nil },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Repo.Close() })
	return a
}

func TestBootstrapLoadsTexts(t *testing.T) {
	a := newApp(t)
	assert.Positive(t, a.Texts.Len())
	assert.NotEqual(t, locale.KeyStart, a.Texts.Get(locale.KeyStart))
	assert.Same(t, a.Config, a.CoreConfig())
}

func TestHandlersRegister(t *testing.T) {
	a := newApp(t)
	reg := tg.NewRegistry()
	routes, err := a.Handlers(nil, "roster_bot").Register(reg)
	require.NoError(t, err)
	assert.NotEmpty(t, routes)
	assert.Len(t, reg.Commands(), 5)
}

func TestTelegramRunOptions(t *testing.T) {
	a := newApp(t)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, a.Config, opts.Config)
	assert.NotNil(t, opts.Registry)
	assert.NotNil(t, opts.Setup)
	assert.NotEmpty(t, opts.Middlewares)

	_, err = (&App{}).TelegramRunOptions()
	assert.Error(t, err)
}

func TestWriteGroups(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())
	require.NoError(t, repo.AddGroup(ctx, -100, "Alpha"))
	require.NoError(t, repo.AddGroup(ctx, -200, "Beta"))
	require.NoError(t, repo.SetRegistration(ctx, -100, 7, "Jane Doe"))

	var buf bytes.Buffer
	require.NoError(t, WriteGroups(ctx, repo, &buf))
	out := buf.String()
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Beta")
	assert.Contains(t, out, "-100")
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())
	texts := locale.New(map[string]string{locale.KeyNoUsersCSV: "nobody"})

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(ctx, repo, texts, -100, &buf))
	assert.Equal(t, "nobody", buf.String())

	require.NoError(t, repo.SetRegistration(ctx, -100, 7, "Jane Doe"))
	buf.Reset()
	require.NoError(t, ExportCSV(ctx, repo, texts, -100, &buf))
	assert.Contains(t, buf.String(), "Jane Doe")
	assert.Contains(t, buf.String(), "User ID")
}
