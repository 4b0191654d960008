package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

// rawConfig is the env-tag view of the configuration. Parsed by caarlos0/env
// and validated into Config.
type rawConfig struct {
	Environment string `env:"STANDING_ENVIRONMENT"`
	Port        string `env:"PORT" envDefault:"8123"`

	DBConnectionString string `env:"DB_CONNECTION_STRING"`
	RedisURL           string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SentryDSN          string `env:"SENTRY_DSN"`

	// Notification sink webhooks, one per channel.
	BunkerWebhook  string `env:"NOTIFY_WEBHOOK_BUNKER"`
	CMWebhook      string `env:"NOTIFY_WEBHOOK_CM"`
	StaffWebhook   string `env:"NOTIFY_WEBHOOK_STAFF"`
	GeneralWebhook string `env:"NOTIFY_WEBHOOK_GENERAL"`

	IDCacheTTL time.Duration `env:"ID_CACHE_TTL" envDefault:"1h"`

	// Multiaccount policy. The sentinel hashes identify clients running in a
	// virtualized/emulated environment, where the mac hash set and disk id
	// are shared across machines and only the unique id can be trusted.
	MultiaccountThreshold float64 `env:"MULTIACCOUNT_THRESHOLD" envDefault:"0.10"`
	VirtualizedMACHashSet string  `env:"VIRTUALIZED_MAC_HASH_SET" envDefault:"b4ec3c4334a0249dae95c284ec5983df"`
	VirtualizedDiskID     string  `env:"VIRTUALIZED_DISK_ID" envDefault:"ffae06fb022871fe9beb58b005c5e21d"`

	NotifyRefillPerSecond int `env:"NOTIFY_REFILL_PER_SECOND" envDefault:"1"`
	NotifyBurstSize       int `env:"NOTIFY_BURST_SIZE" envDefault:"10"`
}

type Config struct {
	env environment

	port               string
	dbConnectionString string
	redisURL           string
	sentryDSN          string

	notifyWebhooks map[string]string

	idCacheTTL time.Duration

	multiaccountThreshold float64
	virtualizedMACHashSet string
	virtualizedDiskID     string

	notifyRefillPerSecond int
	notifyBurstSize       int
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) DBConnectionString() string {
	return c.dbConnectionString
}

func (c *Config) RedisURL() string {
	return c.redisURL
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// NotifyWebhooks returns the configured webhook URL per channel name.
// Channels without a configured webhook are omitted.
func (c *Config) NotifyWebhooks() map[string]string {
	return c.notifyWebhooks
}

func (c *Config) IDCacheTTL() time.Duration {
	return c.idCacheTTL
}

func (c *Config) MultiaccountThreshold() float64 {
	return c.multiaccountThreshold
}

func (c *Config) VirtualizedMACHashSet() string {
	return c.virtualizedMACHashSet
}

func (c *Config) VirtualizedDiskID() string {
	return c.virtualizedDiskID
}

func (c *Config) NotifyRefillPerSecond() int {
	return c.notifyRefillPerSecond
}

func (c *Config) NotifyBurstSize() int {
	return c.notifyBurstSize
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, idCacheTTL: %s, multiaccountThreshold: %.2f, ...}",
		string(c.env), c.port, c.idCacheTTL, c.multiaccountThreshold,
	)
}

func ConfigFromEnv() (Config, error) {
	var raw rawConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	var environ environment
	switch raw.Environment {
	case "production":
		environ = production
	case "staging":
		environ = staging
	case "development":
		environ = development
	case "":
		return Config{}, fmt.Errorf("%w: STANDING_ENVIRONMENT", ErrMissingRequiredValue)
	default:
		return Config{}, fmt.Errorf("%w: STANDING_ENVIRONMENT (%s)", ErrInvalidValue, raw.Environment)
	}

	if environ == production || environ == staging {
		if raw.DBConnectionString == "" {
			return Config{}, fmt.Errorf("%w: DB_CONNECTION_STRING", ErrMissingRequiredValue)
		}
		if raw.SentryDSN == "" {
			return Config{}, fmt.Errorf("%w: SENTRY_DSN", ErrMissingRequiredValue)
		}
	}

	if raw.MultiaccountThreshold <= 0 || raw.MultiaccountThreshold > 1 {
		return Config{}, fmt.Errorf("%w: MULTIACCOUNT_THRESHOLD (%f)", ErrInvalidValue, raw.MultiaccountThreshold)
	}

	notifyWebhooks := make(map[string]string)
	for channel, url := range map[string]string{
		"bunker":  raw.BunkerWebhook,
		"cm":      raw.CMWebhook,
		"staff":   raw.StaffWebhook,
		"general": raw.GeneralWebhook,
	} {
		if url != "" {
			notifyWebhooks[channel] = url
		}
	}

	return Config{
		env:                   environ,
		port:                  raw.Port,
		dbConnectionString:    raw.DBConnectionString,
		redisURL:              raw.RedisURL,
		sentryDSN:             raw.SentryDSN,
		notifyWebhooks:        notifyWebhooks,
		idCacheTTL:            raw.IDCacheTTL,
		multiaccountThreshold: raw.MultiaccountThreshold,
		virtualizedMACHashSet: raw.VirtualizedMACHashSet,
		virtualizedDiskID:     raw.VirtualizedDiskID,
		notifyRefillPerSecond: raw.NotifyRefillPerSecond,
		notifyBurstSize:       raw.NotifyBurstSize,
	}, nil
}
