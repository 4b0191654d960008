package config_test

import (
	"testing"

	"github.com/lumen-gg/standing/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Run("missing environment", func(t *testing.T) {
		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrMissingRequiredValue)
	})

	t.Run("invalid environment", func(t *testing.T) {
		t.Setenv("STANDING_ENVIRONMENT", "prod")
		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrInvalidValue)
	})

	t.Run("development defaults", func(t *testing.T) {
		t.Setenv("STANDING_ENVIRONMENT", "development")
		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)

		require.True(t, conf.IsDevelopment())
		require.False(t, conf.IsProduction())
		require.Equal(t, "8123", conf.Port())
		require.InDelta(t, 0.10, conf.MultiaccountThreshold(), 1e-9)
		require.Equal(t, "b4ec3c4334a0249dae95c284ec5983df", conf.VirtualizedMACHashSet())
		require.Equal(t, "ffae06fb022871fe9beb58b005c5e21d", conf.VirtualizedDiskID())
	})

	t.Run("production requires db and sentry", func(t *testing.T) {
		t.Setenv("STANDING_ENVIRONMENT", "production")
		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrMissingRequiredValue)

		t.Setenv("DB_CONNECTION_STRING", "user=standing dbname=standing sslmode=disable")
		_, err = config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrMissingRequiredValue)

		t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")
		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		require.True(t, conf.IsProduction())
	})

	t.Run("invalid threshold", func(t *testing.T) {
		t.Setenv("STANDING_ENVIRONMENT", "development")
		t.Setenv("MULTIACCOUNT_THRESHOLD", "1.5")
		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrInvalidValue)
	})

	t.Run("non sensitive string omits secrets", func(t *testing.T) {
		t.Setenv("STANDING_ENVIRONMENT", "development")
		t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")
		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		require.NotContains(t, conf.NonSensitiveString(), "sentry.example")
	})
}
