package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// AdminIDs is a comma separated allow-list of Telegram user ids.
	AdminIDs string `yaml:"admin_ids" envconfig:"ADMIN_ID"`
	RunMode  string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS" validate:"gte=0"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RedisConfig holds key-value store connection parameters.
type RedisConfig struct {
	Host     string `yaml:"host" envconfig:"REDIS_HOST"`
	Port     int    `yaml:"port" envconfig:"REDIS_PORT" validate:"gte=0,lte=65535"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB" validate:"gte=0"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + strconv.Itoa(r.Port)
}

// BadgerConfig configures the embedded store.
type BadgerConfig struct {
	Path string `yaml:"path" envconfig:"BADGER_PATH"`
}

// PostgresConfig holds database connection settings.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// StorageConfig selects and configures the registration store backend.
type StorageConfig struct {
	Driver   string         `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Redis    RedisConfig    `yaml:"redis"`
	Badger   BadgerConfig   `yaml:"badger"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// LocaleConfig points at the text template resource.
type LocaleConfig struct {
	Path string `yaml:"path" envconfig:"LOCALE_PATH"`
}

// MetricsConfig controls the prometheus listener. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StorageRedis stores records in redis hashes and sets.
	StorageRedis = "redis"
	// StorageBadger stores records in an embedded badger database.
	StorageBadger = "badger"
	// StoragePostgres stores records in postgres tables.
	StoragePostgres = "postgres"
	// StorageMemory keeps records in process memory (development only).
	StorageMemory = "memory"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS" validate:"gte=0"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Locale    LocaleConfig    `yaml:"locale"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

var validate = validator.New()

// CoreConfig returns the configuration itself; used by the command runner.
func (c *Config) CoreConfig() *Config { return c }

// Load reads configuration from .env, an optional YAML file and environment variables.
// A missing YAML file is not an error so env-only deployments keep working.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOffline is Load without the bot token requirement, for maintenance
// commands that only touch storage.
func LoadOffline(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := normalize(cfg, false); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	return &cfg, nil
}

// Normalize performs validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	return normalize(cfg, true)
}

func normalize(cfg *Config, requireToken bool) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if requireToken && strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if err := normalizeStorage(&cfg.Storage); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Locale.Path) == "" {
		cfg.Locale.Path = "locales/en.yml"
	}

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

func normalizeStorage(s *StorageConfig) error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		driver = StorageRedis
	}
	switch driver {
	case StorageRedis:
		if strings.TrimSpace(s.Redis.Host) == "" {
			s.Redis.Host = "localhost"
		}
		if s.Redis.Port == 0 {
			s.Redis.Port = 6379
		}
	case StorageBadger:
		if strings.TrimSpace(s.Badger.Path) == "" {
			s.Badger.Path = "data/badger"
		}
	case StoragePostgres:
		if strings.TrimSpace(s.Postgres.Host) == "" || strings.TrimSpace(s.Postgres.Name) == "" {
			return fmt.Errorf("storage.postgres.host and storage.postgres.name are required for the postgres driver")
		}
		if s.Postgres.SSLMode == "" {
			s.Postgres.SSLMode = "disable"
		}
		if s.Postgres.MaxConnections <= 0 {
			s.Postgres.MaxConnections = 4
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: redis, badger, postgres, memory", s.Driver)
	}
	s.Driver = driver
	return nil
}

// AdminSet parses the admin allow-list. Entries that are not plain digits are
// skipped, so a malformed list degrades to an empty set instead of failing.
func (t TelegramConfig) AdminSet() map[int64]struct{} {
	return ParseAdminIDs(t.AdminIDs)
}

// ParseAdminIDs splits a comma separated list of user ids.
func ParseAdminIDs(raw string) map[int64]struct{} {
	set := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}
