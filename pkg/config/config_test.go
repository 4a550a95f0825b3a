package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.False(t, cfg.IsProduction())

	assert.Equal(t, 25*time.Second, cfg.WhatsApp.InitiateTimeout)
	assert.Equal(t, "info", cfg.WhatsApp.LogLevel)

	assert.Equal(t, 100, cfg.Updates.MaxPerSession)
	assert.Equal(t, 24*time.Hour, cfg.Updates.MaxAge)
	assert.Equal(t, "*/10 * * * *", cfg.Updates.PruneSchedule)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("KEY", "general-key")
	t.Setenv("SERVICE_API_KEY", "svc-key")
	t.Setenv("INITIATE_TIMEOUT", "10s")
	t.Setenv("WA_LOG_LEVEL", "debug")
	t.Setenv("MAX_MESSAGE_UPDATES_PER_SESSION", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "general-key", cfg.Auth.GeneralKey)
	assert.Equal(t, "svc-key", cfg.Auth.ServiceKey)
	assert.Equal(t, 10*time.Second, cfg.WhatsApp.InitiateTimeout)
	assert.Equal(t, "debug", cfg.WhatsApp.LogLevel)
	assert.Equal(t, 50, cfg.Updates.MaxPerSession)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("WA_LOG_LEVEL", "verbose")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveUpdateCap(t *testing.T) {
	t.Setenv("MAX_MESSAGE_UPDATES_PER_SESSION", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: "5432", User: "wa", Password: "secret",
		DBName: "wagateway", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=wa password=secret dbname=wagateway sslmode=disable",
		cfg.GetDSN())
}
