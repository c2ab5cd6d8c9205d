package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"LODGE_APP_NAME":            os.Getenv("LODGE_APP_NAME"),
		"LODGE_APP_ENV":             os.Getenv("LODGE_APP_ENV"),
		"LODGE_APP_PORT":            os.Getenv("LODGE_APP_PORT"),
		"LODGE_DATABASE_HOST":       os.Getenv("LODGE_DATABASE_HOST"),
		"LODGE_DATABASE_PORT":       os.Getenv("LODGE_DATABASE_PORT"),
		"LODGE_DATABASE_PASSWORD":   os.Getenv("LODGE_DATABASE_PASSWORD"),
		"LODGE_DATABASE_SSLMODE":    os.Getenv("LODGE_DATABASE_SSLMODE"),
		"LODGE_REDIS_ENABLED":       os.Getenv("LODGE_REDIS_ENABLED"),
		"LODGE_SESSION_TTL":         os.Getenv("LODGE_SESSION_TTL"),
		"LODGE_SESSION_TOKEN_BYTES": os.Getenv("LODGE_SESSION_TOKEN_BYTES"),
		"LODGE_STORAGE_BACKEND":     os.Getenv("LODGE_STORAGE_BACKEND"),
		"LODGE_STORAGE_BUCKET":      os.Getenv("LODGE_STORAGE_BUCKET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "lodgehr-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, "lodgehr", cfg.Database.DBName)
		assert.Equal(t, "filesystem", cfg.Storage.Backend)
		assert.Equal(t, 32, cfg.Session.TokenBytes)
		assert.Equal(t, 14*24*60*60.0, cfg.Session.TTL.Seconds())
	})

	t.Run("loads values from environment variables with LODGE prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("LODGE_APP_NAME", "test-app")
		os.Setenv("LODGE_APP_PORT", "9000")
		os.Setenv("LODGE_DATABASE_HOST", "testdb.local")
		os.Setenv("LODGE_DATABASE_PORT", "5433")
		os.Setenv("LODGE_SESSION_TTL", "72h")
		os.Setenv("LODGE_STORAGE_BACKEND", "s3")
		os.Setenv("LODGE_STORAGE_BUCKET", "test-bucket")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 72.0, cfg.Session.TTL.Hours())
		assert.Equal(t, "s3", cfg.Storage.Backend)
		assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
	})

	t.Run("rejects unknown storage backend", func(t *testing.T) {
		clearEnv()
		os.Setenv("LODGE_STORAGE_BACKEND", "ftp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.backend")
	})

	t.Run("rejects short session tokens", func(t *testing.T) {
		clearEnv()
		os.Setenv("LODGE_SESSION_TOKEN_BYTES", "8")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token_bytes")
	})

	t.Run("production requires hardened settings", func(t *testing.T) {
		clearEnv()
		os.Setenv("LODGE_APP_ENV", "production")
		os.Setenv("LODGE_DATABASE_PASSWORD", "secret")
		os.Setenv("LODGE_DATABASE_SSLMODE", "require")

		// filesystem storage is rejected in production
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.backend")

		os.Setenv("LODGE_STORAGE_BACKEND", "s3")
		os.Setenv("LODGE_REDIS_ENABLED", "true")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "lodgehr",
		Password: "p@ss/word",
		DBName:   "lodgehr",
		SSLMode:  "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}
