// Package config loads the application configuration from defaults,
// SUPERLISTS_* environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

const envPrefix = "SUPERLISTS_"

var (
	ErrInvalidServerConfig  = errors.New("invalid server configuration")
	ErrInvalidStorageConfig = errors.New("invalid storage configuration")
	ErrInvalidAuthConfig    = errors.New("invalid auth configuration")
)

// Config is passed explicitly to every component that needs settings.
type Config struct {
	Server  Server  `envPrefix:"SERVER_"`
	DB      DB      `envPrefix:"DB_"`
	Auth    Auth    `envPrefix:"AUTH_"`
	Email   Email   `envPrefix:"EMAIL_"`
	Logging Logging `envPrefix:"LOG_"`
}

type Server struct {
	// Port the HTTP server listens on. Env: SUPERLISTS_SERVER_PORT
	Port string `env:"PORT"`

	// BaseURL is used to build absolute login links. Env: SUPERLISTS_SERVER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT"`

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that sets those headers.
	// Env: SUPERLISTS_SERVER_TRUST_PROXY
	TrustProxy bool `env:"TRUST_PROXY"`
}

type DB struct {
	// Path of the SQLite database file, or ":memory:". Env: SUPERLISTS_DB_PATH
	Path string `env:"PATH"`
}

type Auth struct {
	SessionTTL time.Duration `env:"SESSION_TTL"`

	// LoginEmailLimit caps login email requests per client IP per LoginEmailWindow.
	LoginEmailLimit  int           `env:"LOGIN_EMAIL_LIMIT"`
	LoginEmailWindow time.Duration `env:"LOGIN_EMAIL_WINDOW"`
}

type Email struct {
	PostmarkToken string `env:"POSTMARK_TOKEN"`
	From          string `env:"FROM"`
	APIURL        string `env:"API_URL"`
}

type Logging struct {
	Level  string `env:"LEVEL"`
	Format string `env:"FORMAT"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Server: Server{
			Port:         "8000",
			BaseURL:      "http://localhost:8000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		DB: DB{Path: "superlists.db"},
		Auth: Auth{
			SessionTTL:       14 * 24 * time.Hour,
			LoginEmailLimit:  10,
			LoginEmailWindow: time.Minute,
		},
		Email: Email{
			From:   "noreply@superlists.local",
			APIURL: "https://api.postmarkapp.com",
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, the environment and args.
func Load(args []string) (*Config, error) {
	envCfg := &Config{}
	if err := env.ParseWithOptions(envCfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	flagCfg, err := parseFlags(args)
	if err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg := Defaults()
	for _, src := range []*Config{envCfg, flagCfg} {
		if err := mergo.Merge(cfg, src, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("%w: port is required", ErrInvalidServerConfig)
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base url %q must be absolute", ErrInvalidServerConfig, c.Server.BaseURL)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("%w: db path is required", ErrInvalidStorageConfig)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("%w: session ttl must be positive", ErrInvalidAuthConfig)
	}
	if c.Auth.LoginEmailLimit <= 0 || c.Auth.LoginEmailWindow <= 0 {
		return fmt.Errorf("%w: login email rate limit must be positive", ErrInvalidAuthConfig)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
