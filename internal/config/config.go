package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file-based secrets. A .env file
// in the working directory is honored as well.
const (
	envCalDAVUsername = "WEATHERCAL_CALDAV_USERNAME"
	envCalDAVPassword = "WEATHERCAL_CALDAV_PASSWORD"
	envOWMAPIKey      = "OPENWEATHER_API_KEY"
)

// CalDAVConfig holds the remote calendar store settings.
type CalDAVConfig struct {
	// URL is the calendar home collection,
	// e.g. "https://caldav.example.com/username".
	URL      string `yaml:"url" json:"url" validate:"required,url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	// Calendar is the display name to sync into; created when absent.
	Calendar string `yaml:"calendar" json:"calendar"`
}

// OpenWeatherConfig holds the forecast source settings.
type OpenWeatherConfig struct {
	APIKey string  `yaml:"api_key" json:"api_key"`
	Lat    float64 `yaml:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lon    float64 `yaml:"lon" json:"lon" validate:"gte=-180,lte=180"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the ops API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the ops API.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron-style schedule string (e.g. "0 */3 * * *")
	// for periodic sync runs.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// KeepPastDays is the retention window for historical weather
	// entries. nil means the default (7); an explicit 0 keeps nothing.
	KeepPastDays *int `yaml:"keep_past_days" json:"keep_past_days"`

	CalDAV      CalDAVConfig      `yaml:"caldav" json:"caldav"`
	OpenWeather OpenWeatherConfig `yaml:"openweather" json:"openweather"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// ops endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	keep := 7
	return &Config{
		Listen:       "127.0.0.1:8080",
		RefreshCron:  "0 */3 * * *",
		KeepPastDays: &keep,
		CalDAV: CalDAVConfig{
			URL:      "https://caldav.example.com/username",
			Calendar: "Weather",
		},
		OpenWeather: OpenWeatherConfig{},
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so
// that partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 */3 * * *"
	}
	if c.KeepPastDays == nil {
		keep := 7
		c.KeepPastDays = &keep
	} else if *c.KeepPastDays < 0 {
		zero := 0
		c.KeepPastDays = &zero
	}
	if c.CalDAV.Calendar == "" {
		c.CalDAV.Calendar = "Weather"
	}
}

// ApplyEnv overrides secrets from the environment. A .env file is
// loaded first when present; a missing file is not an error.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv(envCalDAVUsername); v != "" {
		c.CalDAV.Username = v
	}
	if v := os.Getenv(envCalDAVPassword); v != "" {
		c.CalDAV.Password = v
	}
	if v := os.Getenv(envOWMAPIKey); v != "" {
		c.OpenWeather.APIKey = v
	}
}

// Validate checks field constraints via struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed,
//     write a default config with 0600 perms, return the default.
//   - If the file exists: read YAML, normalize defaults, apply env
//     overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			cfg.ApplyEnv()
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
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600 (credentials live here).
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

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".weathercal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
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

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
