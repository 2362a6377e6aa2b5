// Package config holds the process-scoped client configuration. A Config is
// an explicit value handed to registry and store constructors; there is no
// mutable global state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hanpama/gqlfront/gqlerrors"
)

// EnvURL overrides the endpoint URL when set.
const EnvURL = "GQLFRONT_URL"

// Config describes the GraphQL endpoint.
type Config struct {
	// URL is the GraphQL endpoint. Required before any network call.
	URL string `yaml:"url"`

	// Headers are instance-level defaults, deep-extended with per-call
	// headers (per-call wins on key collision).
	Headers map[string]string `yaml:"headers"`
}

// Load reads and parses a YAML configuration file, applying environment
// overrides on top.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromEnv builds a Config from environment variables alone.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvURL); v != "" {
		c.URL = v
	}
}

// Validate checks that the configuration is usable for network calls.
func (c *Config) Validate() error {
	if c == nil || c.URL == "" {
		return gqlerrors.ErrNotConfigured
	}
	return nil
}
