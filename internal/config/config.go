// Package config assembles the runtime configuration from defaults, an
// optional .env file and PHISHGUARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/predictor"
	"github.com/raysh454/phishguard/internal/scan"
	"github.com/raysh454/phishguard/internal/server"
	"github.com/raysh454/phishguard/internal/webclient"
)

// Environment variables understood by Load.
const (
	EnvPredictorURL          = "PHISHGUARD_PREDICTOR_URL"
	EnvScanTimeout           = "PHISHGUARD_SCAN_TIMEOUT"
	EnvListenAddr            = "PHISHGUARD_LISTEN_ADDR"
	EnvDiagnosticsPath       = "PHISHGUARD_DIAGNOSTICS_PATH"
	EnvDiagnosticsRetention  = "PHISHGUARD_DIAGNOSTICS_RETENTION"
	EnvSessionTTL            = "PHISHGUARD_SESSION_TTL"
	EnvWebClient             = "PHISHGUARD_WEBCLIENT"
	EnvLogLevel              = "PHISHGUARD_LOG_LEVEL"
	DefaultEnvFile           = ".env"
	diagnosticsDisabledValue = "off"
)

type DiagnosticsConfig struct {
	// Path is the SQLite file of the failure journal. Empty disables it.
	Path string

	// Retention is how long entries are kept. Zero keeps them forever.
	Retention time.Duration
}

// Enabled reports whether the failure journal should be opened.
func (d DiagnosticsConfig) Enabled() bool { return d.Path != "" }

type Config struct {
	Predictor   predictor.Config
	WebClient   webclient.Config
	Scan        scan.Config
	Server      server.Config
	Diagnostics DiagnosticsConfig
	LogLevel    logging.Level
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Predictor: predictor.DefaultConfig(),
		WebClient: webclient.DefaultConfig(),
		Scan:      scan.DefaultConfig(),
		Server:    server.DefaultConfig(),
		Diagnostics: DiagnosticsConfig{
			Path:      "~/.config/phishguard/diagnostics.db",
			Retention: 7 * 24 * time.Hour,
		},
		LogLevel: logging.LevelInfo,
	}
}

// Load reads envFile (or ./.env when envFile is empty and the file exists)
// and then the process environment, which takes precedence over the file.
func Load(envFile string) (*Config, error) {
	fileVars, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

func readEnvFile(envFile string) (map[string]string, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	vars, err := godotenv.Read(envFile)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
	}
	return vars, nil
}

// FromLookup builds a Config from defaults overridden by lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	duration := func(key string, dst *time.Duration) error {
		v, ok := get(key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("%s: negative duration %s", key, v)
		}
		*dst = d
		return nil
	}

	if v, ok := get(EnvPredictorURL); ok {
		cfg.Predictor.BaseURL = strings.TrimRight(v, "/")
	}
	if err := duration(EnvScanTimeout, &cfg.Scan.Timeout); err != nil {
		return nil, err
	}
	if err := duration(EnvSessionTTL, &cfg.Scan.SessionTTL); err != nil {
		return nil, err
	}
	if err := duration(EnvDiagnosticsRetention, &cfg.Diagnostics.Retention); err != nil {
		return nil, err
	}
	if v, ok := get(EnvListenAddr); ok {
		cfg.Server.ListenAddr = v
	}
	if v, ok := get(EnvDiagnosticsPath); ok {
		if strings.EqualFold(v, diagnosticsDisabledValue) {
			v = ""
		}
		cfg.Diagnostics.Path = v
	}
	if v, ok := get(EnvWebClient); ok {
		cfg.WebClient.Client = webclient.Client(strings.ToLower(v))
	}
	if v, ok := get(EnvLogLevel); ok {
		lvl, err := logging.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = lvl
	}

	path, err := ExpandPath(cfg.Diagnostics.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding diagnostics path: %w", err)
	}
	cfg.Diagnostics.Path = path

	cfg.Sync()
	return cfg, nil
}

// Sync propagates shared settings into the sub-configs that embed them.
// Call it after changing fields by hand, e.g. from CLI flags. The transport
// timeout never cuts a scan short: it is raised to the scan timeout, and
// lifted entirely when scans have no timeout.
func (c *Config) Sync() {
	c.Server.Scan = c.Scan
	switch {
	case c.Scan.Timeout == 0:
		c.WebClient.Timeout = webclient.NoTimeout
	case c.WebClient.Timeout >= 0 && c.WebClient.Timeout < c.Scan.Timeout:
		c.WebClient.Timeout = c.Scan.Timeout
	}
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
