// Package config loads clubdesk settings from the environment and an
// optional .env file. Command-line flags override what is loaded here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// State backends.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds every setting a clubdesk process needs.
type Config struct {
	ServerURL    string        `env:"CLUBDESK_SERVER_URL" envDefault:"http://localhost:8000"`
	StatePath    string        `env:"CLUBDESK_STATE_PATH"`
	StateBackend string        `env:"CLUBDESK_STATE_BACKEND" envDefault:"bolt"`
	LogLevel     string        `env:"CLUBDESK_LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"CLUBDESK_LOG_FORMAT" envDefault:"text"`
	HTTPTimeout  time.Duration `env:"CLUBDESK_HTTP_TIMEOUT" envDefault:"10s"`
	OTelEndpoint string        `env:"CLUBDESK_OTEL_ENDPOINT"`
	ConsoleAddr  string        `env:"CLUBDESK_CONSOLE_ADDR" envDefault:"127.0.0.1:8080"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the given dotenv files, if they exist, into the process
// environment and then parses Config from it. Variables already set in the
// environment win over the files. With no paths, ".env" is tried.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, p := range dotenv {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that have a closed set of values.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q: must be an absolute http or https url", c.ServerURL)
	}
	switch c.StateBackend {
	case BackendBolt, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("state backend %q: must be one of %s, %s, %s", c.StateBackend, BackendBolt, BackendSQLite, BackendMemory)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// ResolvedStatePath returns StatePath, or a per-user default for the backend
// when it is empty. The memory backend has no path.
func (c Config) ResolvedStatePath() (string, error) {
	if c.StateBackend == BackendMemory {
		return "", nil
	}
	if c.StatePath != "" {
		return c.StatePath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	name := "state.db"
	if c.StateBackend == BackendSQLite {
		name = "state.sqlite"
	}
	return filepath.Join(dir, "clubdesk", name), nil
}
