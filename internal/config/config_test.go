package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points CONFIG_FILE away from any real file and clears the keys
// the tests care about.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "STORE_DRIVER", "DB_DSN", "JWT_SECRET", "JWT_ISS",
		"JWT_AUD", "JWT_EXPIRY", "ADMIN_USERNAME", "ADMIN_PASSWORD", "HOD_EMAIL",
		"EMAIL_USER", "EMAIL_PASS", "CORS_ALLOWED_ORIGINS", "NOTIFY_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func validConfig() *Config {
	return &Config{
		Port:           5000,
		StoreDriver:    "memory",
		StoreTimeout:   5 * time.Second,
		JWTSecret:      "valid-secret-that-is-long-enough-for-testing",
		JWTIssuer:      "test-issuer",
		JWTAudience:    "test-audience",
		JWTExpiry:      time.Hour,
		AdminUsername:  "admin",
		AdminPassword:  "admin123",
		NotifyTimeout:  15 * time.Second,
		NotifyMaxTries: 3,
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg := Load()

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, "serverroom", cfg.JWTIssuer)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 15*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 3, cfg.NotifyMaxTries)
	assert.Equal(t, "http://localhost:3000", cfg.FormURL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, time.Minute, cfg.ItemsCacheTTL)
	assert.False(t, cfg.MailEnabled())
}

func TestLoadWithEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_SECRET", "test-secret-key")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("HOD_EMAIL", "hod@example.edu")
	t.Setenv("EMAIL_USER", "lab@example.edu")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg := Load()

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "test-secret-key", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.MailEnabled())
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7000\nhod_email: hod@file.test\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg := Load()

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "hod@file.test", cfg.HODEmail)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"secret too short", func(c *Config) { c.JWTSecret = "short" }, true},
		{"empty issuer", func(c *Config) { c.JWTIssuer = "" }, true},
		{"empty audience", func(c *Config) { c.JWTAudience = "" }, true},
		{"zero expiry", func(c *Config) { c.JWTExpiry = 0 }, true},
		{"expiry too short", func(c *Config) { c.JWTExpiry = 30 * time.Second }, true},
		{"expiry too long", func(c *Config) { c.JWTExpiry = 31 * 24 * time.Hour }, true},
		{"missing admin username", func(c *Config) { c.AdminUsername = "" }, true},
		{"missing admin password", func(c *Config) { c.AdminPassword = "" }, true},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = "postgres" }, true},
		{"postgres with dsn", func(c *Config) {
			c.StoreDriver = "postgres"
			c.DatabaseURL = "postgres://localhost/db"
		}, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, true},
		{"port out of range", func(c *Config) { c.Port = 70000 }, true},
		{"zero notify timeout", func(c *Config) { c.NotifyTimeout = 0 }, true},
		{"zero store timeout", func(c *Config) { c.StoreTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "test-secret-key-that-is-long-enough-for-testing")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "admin123")

	cfg, err := LoadAndValidate()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Setenv("JWT_SECRET", "short")
	_, err = LoadAndValidate()
	assert.Error(t, err)
}

func TestProductionSecretValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	cfg.JWTSecret = DefaultJWTSecret
	assert.Error(t, cfg.Validate(), "production must reject the default secret")

	cfg.JWTSecret = "proper-production-secret-that-is-long-enough"
	assert.NoError(t, cfg.Validate())
}
