// Package config provides centralized configuration for the gitgraph service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application-wide configuration.
type Config struct {
	// RepoPath is the repository to visualise.
	RepoPath string `yaml:"repo_path"`
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// Remote is the default remote for push, pull and `branch -r -d`. Pairing of
	// local and remote-tracking branches always uses refs/remotes/origin/.
	Remote string `yaml:"remote"`
	// LogLimit caps the number of commits fetched per refresh.
	LogLimit int `yaml:"log_limit"`
	// PollInterval forces a refresh even without file events. Zero disables polling.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Debounce coalesces bursts of file events into one refresh.
	Debounce time.Duration `yaml:"debounce"`
	// AllowedOrigins lists CORS origins for the API and websocket.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// Timezone decides calendar days for day separators (IANA name, "" for local).
	Timezone string `yaml:"timezone"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		RepoPath:       ".",
		Addr:           ":8080",
		Remote:         "origin",
		LogLimit:       100,
		PollInterval:   0,
		Debounce:       300 * time.Millisecond,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (when
// path is non-empty), then GITGRAPH_* environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("GITGRAPH_REPO_PATH"); ok && v != "" {
		c.RepoPath = v
	}
	if v, ok := lookup("GITGRAPH_ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("GITGRAPH_REMOTE"); ok && v != "" {
		c.Remote = v
	}
	if v, ok := lookup("GITGRAPH_LOG_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GITGRAPH_LOG_LIMIT: %w", err)
		}
		c.LogLimit = n
	}
	if v, ok := lookup("GITGRAPH_POLL_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GITGRAPH_POLL_INTERVAL: %w", err)
		}
		c.PollInterval = d
	}
	if v, ok := lookup("GITGRAPH_DEBOUNCE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GITGRAPH_DEBOUNCE: %w", err)
		}
		c.Debounce = d
	}
	if v, ok := lookup("GITGRAPH_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}
	if v, ok := lookup("GITGRAPH_TIMEZONE"); ok {
		c.Timezone = v
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.RepoPath == "" {
		errs = append(errs, errors.New("repo_path must not be empty"))
	}
	if c.LogLimit <= 0 {
		errs = append(errs, fmt.Errorf("log_limit must be positive, got %d", c.LogLimit))
	}
	if c.PollInterval < 0 {
		errs = append(errs, errors.New("poll_interval must not be negative"))
	}
	if c.Debounce < 0 {
		errs = append(errs, errors.New("debounce must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves Timezone; empty means the process's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
