// Package config loads process configuration from the environment.
//
// Values come from real environment variables, optionally seeded from a
// .env file in the working directory. Variables already set in the
// environment always win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// MinSecretLength mirrors auth.MinSecretLength so a bad secret is reported
// before anything else starts.
const MinSecretLength = 16

// Config is every knob the server reads at startup.
type Config struct {
	Port        int    `env:"PORT,default=8080"`
	DatabaseURL string `env:"DATABASE_URL,default=data/primal.db"`

	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,default=24h"`
	BcryptCost int           `env:"BCRYPT_COST,default=12"`

	Catalog Catalog

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Catalog configures the upstream exercise feed.
type Catalog struct {
	URL         string        `env:"CATALOG_URL,default=https://exercisedb.p.rapidapi.com/exercises"`
	APIKey      string        `env:"CATALOG_API_KEY"`
	APIHost     string        `env:"CATALOG_API_HOST,default=exercisedb.p.rapidapi.com"`
	BearerToken string        `env:"CATALOG_BEARER_TOKEN"`
	Limit       int           `env:"CATALOG_LIMIT,default=2000"`
	Timeout     time.Duration `env:"CATALOG_TIMEOUT,default=30s"`
}

// Load reads the optional env file at envFile (skipped when empty or
// absent), decodes the environment and validates the result.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: decoding environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(c.JWTSecret) < MinSecretLength:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL %s must be positive", c.TokenTTL))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d must be between 4 and 31", c.BcryptCost))
	}
	if u, err := url.Parse(c.Catalog.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("CATALOG_URL %q is not an absolute URL", c.Catalog.URL))
	}
	if c.Catalog.Limit <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_LIMIT %d must be positive", c.Catalog.Limit))
	}
	if c.Catalog.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_TIMEOUT %s must be positive", c.Catalog.Timeout))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be text or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q must be debug, info, warn or error", c.LogLevel)
	}
	return lvl, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
