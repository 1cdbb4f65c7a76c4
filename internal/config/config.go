// Package config resolves pricebook settings from the environment, an
// optional .env file and an optional config file, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Viper keys. Config files use the dotted form (telegram.token, ...).
const (
	KeyTelegramToken   = "telegram.token"
	KeyTelegramAPIBase = "telegram.api_base"
	KeyWebhookSecret   = "telegram.webhook_secret"
	KeyPublicURL       = "server.public_url"
	KeyPort            = "server.port"
	KeyDatabaseURL     = "database.url"
	KeyDBPath          = "database.path"
	KeyJWTSecret       = "auth.jwt_secret"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyWorkers         = "workers"
)

var envNames = map[string]string{
	KeyTelegramToken:   "TELEGRAM_BOT_TOKEN",
	KeyTelegramAPIBase: "TELEGRAM_API_BASE",
	KeyWebhookSecret:   "TELEGRAM_WEBHOOK_SECRET",
	KeyPublicURL:       "PUBLIC_URL",
	KeyPort:            "PORT",
	KeyDatabaseURL:     "DATABASE_URL",
	KeyDBPath:          "DB_PATH",
	KeyJWTSecret:       "JWT_SECRET",
	KeyLogLevel:        "LOG_LEVEL",
	KeyLogFormat:       "LOG_FORMAT",
	KeyWorkers:         "WORKERS",
}

// Config is the resolved process configuration.
type Config struct {
	TelegramToken   string
	TelegramAPIBase string
	WebhookSecret   string
	PublicURL       string
	Port            int
	DatabaseURL     string
	DBPath          string
	JWTSecret       string
	LogLevel        string
	LogFormat       string
	Workers         int
}

// Bind registers defaults and environment variable names on v.
func Bind(v *viper.Viper) {
	v.SetDefault(KeyTelegramAPIBase, "https://api.telegram.org")
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyDBPath, "./data/pricebook.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyWorkers, 8)

	for key, env := range envNames {
		_ = v.BindEnv(key, env)
	}
}

// LoadDotEnv loads variables from path into the process environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ReadFile merges a YAML/TOML/JSON config file into v. Empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Load reads the bound keys from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		TelegramToken:   strings.TrimSpace(v.GetString(KeyTelegramToken)),
		TelegramAPIBase: strings.TrimRight(strings.TrimSpace(v.GetString(KeyTelegramAPIBase)), "/"),
		WebhookSecret:   v.GetString(KeyWebhookSecret),
		PublicURL:       strings.TrimSpace(v.GetString(KeyPublicURL)),
		Port:            v.GetInt(KeyPort),
		DatabaseURL:     strings.TrimSpace(v.GetString(KeyDatabaseURL)),
		DBPath:          strings.TrimSpace(v.GetString(KeyDBPath)),
		JWTSecret:       v.GetString(KeyJWTSecret),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		Workers:         v.GetInt(KeyWorkers),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.DatabaseURL == "" && cfg.DBPath == "" {
		return nil, errors.New("either DATABASE_URL or DB_PATH must be set")
	}
	return cfg, nil
}

// RequireTelegram reports a missing bot token.
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// UsePostgres reports whether DATABASE_URL selects the Postgres store.
func (c *Config) UsePostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// WebhookURL is the public webhook endpoint, or "" when no public URL is set.
func (c *Config) WebhookURL() string {
	if c.PublicURL == "" {
		return ""
	}
	return strings.TrimRight(c.PublicURL, "/") + "/webhook"
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
