package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"PORT", "DATABASE_URL", "JWT_SECRET", "TOKEN_TTL", "BCRYPT_COST",
	"CATALOG_URL", "CATALOG_API_KEY", "CATALOG_API_HOST", "CATALOG_BEARER_TOKEN",
	"CATALOG_LIMIT", "CATALOG_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable Load reads; empty values fall back to defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range allVars {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := Load("")
	require.NoError(t, err)

	want := &Config{
		Port:        8080,
		DatabaseURL: "data/primal.db",
		JWTSecret:   "0123456789abcdef",
		TokenTTL:    24 * time.Hour,
		BcryptCost:  12,
		Catalog: Catalog{
			URL:     "https://exercisedb.p.rapidapi.com/exercises",
			APIHost: "exercisedb.p.rapidapi.com",
			Limit:   2000,
			Timeout: 30 * time.Second,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "a-much-longer-signing-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://primal@localhost/primal")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("CATALOG_LIMIT", "50")
	t.Setenv("CATALOG_API_KEY", "k3y")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres://primal@localhost/primal", cfg.DatabaseURL)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 50, cfg.Catalog.Limit)
	assert.Equal(t, "k3y", cfg.Catalog.APIKey)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("PORT")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-the-dotenv-file\nPORT=7070\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("PORT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-the-dotenv-file", cfg.JWTSecret)
	assert.Equal(t, 7070, cfg.Port)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:        8080,
			DatabaseURL: "data/primal.db",
			JWTSecret:   "0123456789abcdef",
			TokenTTL:    time.Hour,
			BcryptCost:  12,
			Catalog:     Catalog{URL: "https://example.com/x", Limit: 10, Timeout: time.Second},
			LogLevel:    "info",
			LogFormat:   "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 16"},
		{"port", func(c *Config) { c.Port = 70000 }, "PORT"},
		{"cost too low", func(c *Config) { c.BcryptCost = 3 }, "BCRYPT_COST"},
		{"cost too high", func(c *Config) { c.BcryptCost = 32 }, "BCRYPT_COST"},
		{"ttl", func(c *Config) { c.TokenTTL = 0 }, "TOKEN_TTL"},
		{"catalog url", func(c *Config) { c.Catalog.URL = "exercises" }, "CATALOG_URL"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Config{}

	err := cfg.Validate()

	require.Error(t, err)
	for _, want := range []string{"PORT", "DATABASE_URL", "JWT_SECRET", "BCRYPT_COST", "LOG_FORMAT"} {
		assert.Contains(t, err.Error(), want)
	}
}
