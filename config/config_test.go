package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "TOKEN_TTL", "DEFAULT_VALIDITY_DAYS", "PASSWORD_SCHEME"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "json", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 365, cfg.DefaultValidityDays)
	assert.Equal(t, "bcrypt", cfg.PasswordScheme)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadConfig_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env.test")
	require.NoError(t, os.WriteFile(envFile, []byte("CATALOG_TTL=90s\nREMINDER_DAYS=5\n"), 0o600))

	t.Setenv("CATALOG_TTL", "")
	t.Setenv("REMINDER_DAYS", "")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SALT_ROUND", "not-a-number")

	// godotenv never overrides variables that are already set, so clear the ones the file provides.
	require.NoError(t, os.Unsetenv("CATALOG_TTL"))
	require.NoError(t, os.Unsetenv("REMINDER_DAYS"))

	cfg := LoadConfig(envFile)

	assert.Equal(t, 90*time.Second, cfg.CatalogTTL)
	assert.Equal(t, 5, cfg.ReminderDays)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 10, cfg.SaltRound)
}
