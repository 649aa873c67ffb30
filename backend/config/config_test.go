package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DATABASE_URL", "JWT_TTL_HOURS", "BCRYPT_COST", "SEED_CATALOG", "SERVER_PORT", "LOG_FORMAT"} {
		// Setenv registers the restore; Unsetenv makes the key absent.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.SeedCatalog)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Contains(t, cfg.DSN(), "host=localhost")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_TTL_HOURS", "2")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("LOG_COLORS", "yes-please")
	t.Setenv("SEED_CATALOG", "false")
	t.Setenv("CORS_ORIGINS", "https://capdigital.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.LogColors, "unparsable bool falls back to the default")
	assert.False(t, cfg.SeedCatalog)
	assert.Equal(t, "https://capdigital.example", cfg.CORSOrigins)
}

func TestLoadConfigRejectsBadInt(t *testing.T) {
	t.Setenv("BCRYPT_COST", "twelve")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "BCRYPT_COST")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "cap", DBPassword: "pw", DBName: "capdigital", DBSSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=cap password=pw dbname=capdigital sslmode=require TimeZone=UTC", cfg.DSN())

	cfg.DatabaseURL = "postgres://cap:pw@db/capdigital"
	assert.Equal(t, "postgres://cap:pw@db/capdigital", cfg.DSN())
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := &Config{DBUser: "cap", DBPassword: "hunter2", JWTSecret: "topsecret", DBHost: "db", DBPort: "5432", DBName: "capdigital"}
	s := cfg.String()
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "topsecret")
	assert.Contains(t, s, "cap@db:5432/capdigital")
}
