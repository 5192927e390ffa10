package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings rack needs to reach the catalog API and keep
// its local state.
type Config struct {
	APIBase        string
	DataDir        string
	RetryCount     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	SessionCheck   time.Duration
	LogLevel       string
}

const (
	defaultConfigPath     = "~/.config/rack/config.toml"
	defaultDataDir        = "~/.local/share/rack"
	defaultAPIBase        = "https://dae-mobile-assignment.hkit.cc/api"
	defaultRetryCount     = 3
	defaultRetryDelay     = time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultLogLevel       = "info"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		APIBase:        defaultAPIBase,
		DataDir:        mustExpand(defaultDataDir),
		RetryCount:     defaultRetryCount,
		RetryDelay:     defaultRetryDelay,
		RequestTimeout: defaultRequestTimeout,
		LogLevel:       defaultLogLevel,
	}
}

// Load locates and parses the rack config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase        string `toml:"api_base"`
		DataDir        string `toml:"data_dir"`
		RetryCount     int    `toml:"retry_count"`
		RetryDelay     string `toml:"retry_delay"`
		RequestTimeout string `toml:"request_timeout"`
		SessionCheck   string `toml:"session_check"`
		LogLevel       string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if base := strings.TrimSpace(raw.APIBase); base != "" {
		cfg.APIBase = strings.TrimRight(base, "/")
	}
	if dir := strings.TrimSpace(raw.DataDir); dir != "" {
		cfg.DataDir = mustExpand(dir)
	}
	if raw.RetryCount > 0 {
		cfg.RetryCount = raw.RetryCount
	}
	if cfg.RetryDelay, err = parseDuration("retry_delay", raw.RetryDelay, defaultRetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SessionCheck, err = parseDuration("session_check", raw.SessionCheck, 0); err != nil {
		return Config{}, err
	}
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	return cfg, nil
}

// LogPath returns the path to the client log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir + "/rack.log")
	}
	return filepath.Join(c.DataDir, "rack.log")
}

// DatabasePath returns the path to the local credential database.
func (c Config) DatabasePath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir + "/rack.db")
	}
	return filepath.Join(c.DataDir, "rack.db")
}

// parseDuration treats empty and non-positive values as "use the fallback".
func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s %q: %w", field, value, err)
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
