package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.PasswordResetTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionLifespan)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PASSWORD_RESET_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("FEATURE_SIGNUP", "false")
	t.Setenv("FEATURE_BROKEN", "maybe")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	enabled, exists := cfg.FeatureToggles["SIGNUP"]
	assert.True(t, exists)
	assert.False(t, enabled)
	_, exists = cfg.FeatureToggles["BROKEN"]
	assert.False(t, exists, "invalid toggle values are ignored")
}

func TestDSN(t *testing.T) {
	cfg := AppConfig{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC", cfg.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", cfg.MigrationURL())

	cfg.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.DSN())
	assert.Equal(t, "postgres://x", cfg.MigrationURL())
}
