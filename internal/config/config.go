// Package config loads estate-browser settings from disk and the environment.
//
// Precedence, lowest first: built-in defaults, ~/.config/reb/config.yaml,
// REB_* environment variables. Command-line flags are applied by the caller.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "REB"

// Config holds front-end settings.
type Config struct {
	APIURL       string        `yaml:"api_url,omitempty" json:"api_url" envconfig:"API_URL"`
	Port         int           `yaml:"port,omitempty" json:"port" envconfig:"PORT"`
	Dev          bool          `yaml:"dev,omitempty" json:"dev" envconfig:"DEV"`
	Timeout      time.Duration `yaml:"timeout,omitempty" json:"timeout" envconfig:"TIMEOUT"`
	Nights       int           `yaml:"nights,omitempty" json:"nights" envconfig:"NIGHTS"`
	AllowOverlap bool          `yaml:"allow_overlap,omitempty" json:"allow_overlap" envconfig:"ALLOW_OVERLAP"`
}

// MarshalJSON writes Timeout as a duration string such as "30s", matching
// the YAML file.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return json.Marshal(struct {
		plain
		Timeout string `json:"timeout"`
	}{plain: plain(c), Timeout: c.Timeout.String()})
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:  "http://localhost:3000",
		Port:    8080,
		Timeout: 30 * time.Second,
		Nights:  3,
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "reb", "config.yaml"), nil
}

// Load returns defaults overlaid with the config file and environment.
func Load() (Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return cfg, err
	}
	if err := readFile(path, &cfg); err != nil {
		return cfg, err
	}

	// Only variables that are set overwrite the file values.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}

	return cfg, nil
}

// LoadFile reads only the config file, without defaults or environment.
// Returns a zero-value config if the file doesn't exist.
func LoadFile() (Config, error) {
	var cfg Config
	path, err := Path()
	if err != nil {
		return cfg, err
	}
	err = readFile(path, &cfg)
	return cfg, err
}

// readFile decodes the YAML file at path into cfg. A missing file is not an error.
func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Set assigns a single key by its YAML name.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_url":
		c.APIURL = value
	case "port":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("port must be 1-65535, got %q", value)
		}
		c.Port = n
	case "dev":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("dev must be true or false, got %q", value)
		}
		c.Dev = b
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("timeout must be a positive duration like 30s, got %q", value)
		}
		c.Timeout = d
	case "nights":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("nights must be a positive number, got %q", value)
		}
		c.Nights = n
	case "allow_overlap":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("allow_overlap must be true or false, got %q", value)
		}
		c.AllowOverlap = b
	default:
		return fmt.Errorf("unknown config key %q (api_url, port, dev, timeout, nights, allow_overlap)", key)
	}
	return nil
}
