package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DASHBOARD_PRIMARY.ENV", "test")
	t.Setenv("DASHBOARD_DATABASE.HOST", "db.internal")
	t.Setenv("DASHBOARD_DATABASE.USER", "dashboard")
	t.Setenv("DASHBOARD_DATABASE.PASSWORD", "p@ss word")
	t.Setenv("DASHBOARD_DATABASE.NAME", "dashboard")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, float64(20), cfg.Server.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Cache.StatsTTL)
	assert.False(t, cfg.Redis.Enabled())

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "test", cfg.Observability.Environment)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DASHBOARD_SERVER.PORT", "9090")
	t.Setenv("DASHBOARD_REDIS.ADDRESS", "localhost:6379")
	t.Setenv("DASHBOARD_CACHE.STATS_TTL", "5m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Cache.StatsTTL)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("DASHBOARD_PRIMARY.ENV", "test")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{
		Host:     "::1",
		Port:     5433,
		User:     "u",
		Password: "p@ss word",
		Name:     "db",
		SSLMode:  "disable",
	}

	assert.Equal(t, "postgres://u:p%40ss%20word@[::1]:5433/db?sslmode=disable", c.DSN())
}

func TestLoadConfig_PartialObservabilityKeepsDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DASHBOARD_OBSERVABILITY.LOGGING.LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
	assert.Equal(t, 5*time.Second, cfg.Observability.HealthChecks.Timeout)
}

func TestObservabilityConfig_Validate(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	require.NoError(t, cfg.Validate())

	cfg.HealthChecks.Checks = []string{"database", "elasticsearch"}
	assert.ErrorContains(t, cfg.Validate(), "unknown health check")

	cfg = DefaultObservabilityConfig()
	cfg.Logging.Level = "trace"
	assert.ErrorContains(t, cfg.Validate(), "invalid logging level")
}
