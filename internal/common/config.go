package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Security    SecurityConfig    `toml:"security"`
	Browser     BrowserConfig     `toml:"browser"`
	Providers   ProvidersConfig   `toml:"providers"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// SecurityConfig holds the secret used to derive the credential encryption key.
// The process refuses to start without it.
type SecurityConfig struct {
	EncryptionKey string `toml:"encryption_key" validate:"required"`
}

// BrowserConfig contains automation session configuration
type BrowserConfig struct {
	Headless          bool          `toml:"headless"`
	NoSandbox         bool          `toml:"no_sandbox"`
	DisableGPU        bool          `toml:"disable_gpu"`
	UserAgent         string        `toml:"user_agent"`
	AllowedDomains    []string      `toml:"allowed_domains"`     // Navigation allow-list (domain suffixes)
	DefaultTimeout    time.Duration `toml:"default_timeout"`     // Per-action timeout
	NavigateTimeout   time.Duration `toml:"navigate_timeout"`    // Navigation timeout
	SettleDelay       time.Duration `toml:"settle_delay"`        // Post-click/navigate settle time
	TypeDelay         time.Duration `toml:"type_delay"`          // Inter-keystroke delay
	NavigationsPerMin int           `toml:"navigations_per_min"` // Navigation rate limit
}

// ProviderConfig holds OAuth client credentials for one external provider
type ProviderConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

type ProvidersConfig struct {
	Google    ProviderConfig `toml:"google"`
	Microsoft ProviderConfig `toml:"microsoft"`
	Dropbox   ProviderConfig `toml:"dropbox"`
}

// MaintenanceConfig controls the proactive token refresh sweep
type MaintenanceConfig struct {
	Enabled       bool          `toml:"enabled"`
	Schedule      string        `toml:"schedule"`       // Cron schedule format
	RefreshWindow time.Duration `toml:"refresh_window"` // Refresh tokens expiring within this window
}

// NewDefaultConfig returns a config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/kantoor",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Browser: BrowserConfig{
			Headless:          true,
			NoSandbox:         false,
			DisableGPU:        true,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AllowedDomains:    DefaultAllowedDomains(),
			DefaultTimeout:    10 * time.Second,
			NavigateTimeout:   30 * time.Second,
			SettleDelay:       500 * time.Millisecond,
			TypeDelay:         30 * time.Millisecond,
			NavigationsPerMin: 30,
		},
		Maintenance: MaintenanceConfig{
			Enabled:       true,
			Schedule:      "*/15 * * * *",
			RefreshWindow: 10 * time.Minute,
		},
	}
}

// DefaultAllowedDomains returns the built-in navigation allow-list: the
// administrative, government and payment sites the automation agent may visit.
func DefaultAllowedDomains() []string {
	return []string{
		"kvk.nl",
		"belastingdienst.nl",
		"rvo.nl",
		"mollie.com",
		"ing.nl",
		"rabobank.nl",
	}
}

// LoadFromFiles loads configuration from multiple TOML files with merging.
// Later files override earlier files. Environment variables override all files.
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml takes precedence
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies KANTOOR_* environment variables on top of file config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("KANTOOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("KANTOOR_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("KANTOOR_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("KANTOOR_ENCRYPTION_KEY"); v != "" {
		config.Security.EncryptionKey = v
	}
	if v := os.Getenv("KANTOOR_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration for fatal problems. A missing encryption
// key is a configuration error, not a runtime error.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			if c.Security.EncryptionKey == "" {
				return fmt.Errorf("security.encryption_key is required (set it in config or KANTOOR_ENCRYPTION_KEY)")
			}
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if len(c.Browser.AllowedDomains) == 0 {
		return fmt.Errorf("browser.allowed_domains must not be empty")
	}

	return nil
}
