package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRequiresToken(t *testing.T) {
	err := Normalize(&Config{})
	require.EqualError(t, err, "telegram token is required")
}

func TestNormalizeDefaults(t *testing.T) {
	req := require.New(t)
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc", RunMode: "polling"}}

	req.NoError(Normalize(cfg))
	req.Equal(RunModeLongpoll, cfg.Telegram.RunMode)
	req.Equal(StorageRedis, cfg.Storage.Driver)
	req.Equal("localhost", cfg.Storage.Redis.Host)
	req.Equal(6379, cfg.Storage.Redis.Port)
	req.Equal("localhost:6379", cfg.Storage.Redis.Addr())
	req.Equal("locales/en.yml", cfg.Locale.Path)
}

func TestNormalizeRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Storage:  StorageConfig{Driver: "mongo"},
	}
	require.ErrorContains(t, Normalize(cfg), "invalid storage.driver")
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc", RunMode: "webhook"}}
	require.ErrorContains(t, Normalize(cfg), "webhook.url is required")
}

func TestNormalizeRejectsNegativeRedisDB(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Storage:  StorageConfig{Redis: RedisConfig{DB: -1}},
	}
	require.ErrorContains(t, Normalize(cfg), "invalid config")
}

func TestParseAdminIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int64
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "42", want: []int64{42}},
		{name: "list with spaces", raw: " 1, 2 ,3", want: []int64{1, 2, 3}},
		{name: "malformed entries dropped", raw: "1,abc,-5,2x,7", want: []int64{1, 7}},
		{name: "zero ignored", raw: "0", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAdminIDs(tt.raw)
			require.Len(t, got, len(tt.want))
			for _, id := range tt.want {
				require.Contains(t, got, id)
			}
		})
	}
}

func TestLoadToleratesMissingFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "5,6")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, StorageMemory, cfg.Storage.Driver)
	require.Len(t, cfg.Telegram.AdminSet(), 2)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte("telegram:\n  token: from-file\nstorage:\n  driver: badger\n  badger:\n    path: /tmp/x\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Telegram.Token)
	require.Equal(t, StorageBadger, cfg.Storage.Driver)
	require.Equal(t, "/tmp/x", cfg.Storage.Badger.Path)
}

func TestLoadOfflineSkipsToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("STORAGE_DRIVER", "memory")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	cfg, err := LoadOffline(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, StorageMemory, cfg.Storage.Driver)
	require.Same(t, cfg, cfg.CoreConfig())
}
