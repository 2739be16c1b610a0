package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the volley configuration file. Every field is optional; flags
// override whatever is set here.
type Config struct {
	Output          string            `yaml:"output,omitempty"`
	Timeout         string            `yaml:"timeout,omitempty"` // Go duration string, e.g. "30s"
	Rate            float64           `yaml:"rate,omitempty"`    // requests per second
	FollowRedirects *bool             `yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `yaml:"maxRedirects,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"` // default headers for all requests
	HistoryDB       string            `yaml:"historyDb,omitempty"`
	Quiet           *bool             `yaml:"quiet,omitempty"`
	NoColor         *bool             `yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetQuiet returns the quiet setting, defaulting to false
func (c *Config) GetQuiet() bool {
	return getBool(c.Quiet, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetTimeout parses the timeout duration string. An empty string means no
// timeout at all: requests wait as long as the server takes.
func (c *Config) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// ConfigFilenames contains the possible config file names. Only dotfiles are
// searched: a plain volley.yaml is a request file, not configuration.
var ConfigFilenames = []string{
	".volley.yaml",
	".volley.yml",
}

// LoadConfig loads configuration from the specified path or searches for
// config files in the current directory.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Output != "" {
		result.Output = other.Output
	}
	if other.Timeout != "" {
		result.Timeout = other.Timeout
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.HistoryDB != "" {
		result.HistoryDB = other.HistoryDB
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.Quiet != nil {
		result.Quiet = other.Quiet
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
