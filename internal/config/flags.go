package config

import (
	"flag"
)

// parseFlags reads command-line overrides. Unset flags leave zero values so
// they do not override lower-precedence sources when merged.
func parseFlags(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("superlists", flag.ContinueOnError)

	fs.StringVar(&cfg.Server.Port, "port", "", "HTTP listen port")
	fs.StringVar(&cfg.Server.BaseURL, "base-url", "", "public base URL used in login links")
	fs.BoolVar(&cfg.Server.TrustProxy, "trust-proxy", false, "use forwarded headers for the client address")
	fs.StringVar(&cfg.DB.Path, "db", "", "SQLite database path")
	fs.DurationVar(&cfg.Auth.SessionTTL, "session-ttl", 0, "session lifetime")
	fs.StringVar(&cfg.Logging.Level, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&cfg.Logging.Format, "log-format", "", "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
