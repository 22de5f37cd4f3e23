package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration is returned when the environment does not provide
// enough information to locate the configuration.
var ErrConfiguration = errors.New("configuration unavailable")

const (
	appDir          = "polybar/schedule_module"
	configFileName  = "config.yaml"
	defaultCalendar = "schedule.ics"
	defaultTimezone = "Local"
	defaultRefresh  = "@every 1m"
	defaultLogLevel = "error"
)

// Config is the top-level application configuration.
type Config struct {
	// Calendar is the path of the ICS file, or an http(s) subscription URL.
	// A relative path is resolved against the directory holding the config
	// file.
	Calendar string `yaml:"calendar"`

	// CacheDir holds downloaded subscriptions. Empty means
	// $XDG_CACHE_HOME/coursebar.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Timezone is the IANA zone used as "local" time (e.g. "Europe/Berlin").
	// "Local" uses the system zone.
	Timezone string `yaml:"timezone"`

	// Refresh is the cron spec used in watch mode (e.g. "@every 1m",
	// "*/5 * * * *").
	Refresh string `yaml:"refresh"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level"`

	// dir is the directory the config was loaded from.
	dir string
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Calendar: defaultCalendar,
		Timezone: defaultTimezone,
		Refresh:  defaultRefresh,
		LogLevel: defaultLogLevel,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/polybar/schedule_module/config.yaml,
// falling back to $HOME/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "", fmt.Errorf("%w: neither XDG_CONFIG_HOME nor HOME is set", ErrConfiguration)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appDir, configFileName), nil
}

// Normalize fills in missing values with defaults so that partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Calendar == "" {
		c.Calendar = defaultCalendar
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Refresh == "" {
		c.Refresh = defaultRefresh
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// CalendarPath returns Calendar resolved against the config directory.
// URLs are returned unchanged.
func (c *Config) CalendarPath() string {
	if isURL(c.Calendar) || filepath.IsAbs(c.Calendar) || c.dir == "" {
		return c.Calendar
	}
	return filepath.Join(c.dir, c.Calendar)
}

// CacheDirPath returns CacheDir, or the per-user cache directory.
func (c *Config) CacheDirPath() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return filepath.Join(base, "coursebar"), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == defaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrConfiguration, c.Timezone, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: config path is empty", ErrConfiguration)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			cfg.dir = filepath.Dir(path)
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfiguration, path, err)
	}
	cfg.Normalize()
	cfg.dir = filepath.Dir(path)

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".coursebar-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
