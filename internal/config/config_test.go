package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"en", "de"}, cfg.Languages)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, 30*time.Minute, cfg.ViewTTL)
	assert.Equal(t, 10000, cfg.MaxViews)
	assert.InDelta(t, 60.0, cfg.FadeOffset, 0.0001)
	assert.True(t, cfg.Analytics.Enabled)
	assert.Equal(t, 365*24*time.Hour, cfg.Analytics.Retention)
	assert.False(t, cfg.ContactEnabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_VIEWS", "250")
	t.Setenv("LANGUAGES", " DE , en ")
	t.Setenv("DEFAULT_LANGUAGE", "de")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("SMTP_USER", "me@example.com")
	t.Setenv("SMTP_PASS", "app-password")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 250, cfg.MaxViews)
	assert.Equal(t, []string{"de", "en"}, cfg.Languages)
	assert.Equal(t, "de", cfg.DefaultLanguage)
	assert.Equal(t, "secret", cfg.Admin.Password)
	assert.True(t, cfg.ContactEnabled())
	assert.Equal(t, "me@example.com", cfg.ContactRecipient())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("VIEW_TTL=5m\nTO_EMAIL=inbox@example.com\n"), 0600))
	t.Cleanup(func() {
		os.Unsetenv("VIEW_TTL")
		os.Unsetenv("TO_EMAIL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.ViewTTL)
	assert.Equal(t, "inbox@example.com", cfg.ContactRecipient())

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("VIEW_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			GinMode:         "release",
			Languages:       []string{"en", "de"},
			DefaultLanguage: "en",
			ViewTTL:         time.Minute,
			MaxViews:        100,
			FadeOffset:      60,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "one language", mutate: func(c *Config) { c.Languages = []string{"en"} }, wantError: true},
		{name: "three languages", mutate: func(c *Config) { c.Languages = []string{"en", "de", "fr"} }, wantError: true},
		{name: "duplicate languages", mutate: func(c *Config) { c.Languages = []string{"en", "EN"} }, wantError: true},
		{name: "default outside pair", mutate: func(c *Config) { c.DefaultLanguage = "fr" }, wantError: true},
		{name: "unknown gin mode", mutate: func(c *Config) { c.GinMode = "verbose" }, wantError: true},
		{name: "zero ttl", mutate: func(c *Config) { c.ViewTTL = 0 }, wantError: true},
		{name: "zero max views", mutate: func(c *Config) { c.MaxViews = 0 }, wantError: true},
		{name: "negative offset", mutate: func(c *Config) { c.FadeOffset = -1 }, wantError: true},
		{name: "missing content file", mutate: func(c *Config) { c.ContentFile = "/nonexistent/i18n.json" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
