// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config holds all escope configuration.
type Config struct {
	Client      Client       `yaml:"client"`
	Connections []Connection `yaml:"connections"`
	Default     string       `yaml:"default"` // Connection to use when none is named.
}

// Client holds request behavior settings.
type Client struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Connection is one saved Elasticsearch connection profile.
type Connection struct {
	ID       string `yaml:"id"` // Assigned on first save; stable across renames.
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	SSL      bool   `yaml:"ssl"`
	Insecure bool   `yaml:"insecure"`  // Skip TLS certificate verification.
	AuthType string `yaml:"auth_type"` // "none", "basic", or "apiKey"
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	APIKey   string `yaml:"api_key"`
}

// BaseURL returns the connection's endpoint URL.
func (c Connection) BaseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// DefaultConfig returns a Config with a single local connection.
func DefaultConfig() Config {
	return Config{
		Client: Client{Timeout: 30 * time.Second},
		Connections: []Connection{
			{
				Name:     "local",
				Host:     "localhost",
				Port:     9200,
				AuthType: "none",
			},
		},
		Default: "local",
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped. A layer
// that declares connections replaces the whole list; scalar fields
// merge individually.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Save writes the config to path as YAML. Profiles carry credentials,
// so the file is written user-readable only.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// EnsureIDs assigns a UUID to every connection missing one.
func (c *Config) EnsureIDs() {
	for i := range c.Connections {
		if c.Connections[i].ID == "" {
			c.Connections[i].ID = uuid.NewString()
		}
	}
}

// Connection looks up a profile by name. An empty name selects the
// configured default.
func (c *Config) Connection(name string) (Connection, error) {
	if name == "" {
		name = c.Default
	}
	for _, conn := range c.Connections {
		if conn.Name == name {
			return conn, nil
		}
	}
	return Connection{}, fmt.Errorf("config: no connection named %q", name)
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("config: client.timeout must be positive, got %v", c.Client.Timeout)
	}
	if len(c.Connections) == 0 {
		return errors.New("config: at least one connection is required")
	}
	seen := make(map[string]bool, len(c.Connections))
	for _, conn := range c.Connections {
		if conn.Name == "" {
			return errors.New("config: connection name cannot be empty")
		}
		if seen[conn.Name] {
			return fmt.Errorf("config: duplicate connection name %q", conn.Name)
		}
		seen[conn.Name] = true
		if conn.Host == "" {
			return fmt.Errorf("config: connection %q: host cannot be empty", conn.Name)
		}
		if conn.Port < 1 || conn.Port > 65535 {
			return fmt.Errorf("config: connection %q: port must be 1-65535, got %d", conn.Name, conn.Port)
		}
		switch conn.AuthType {
		case "", "none", "basic", "apiKey":
			// valid
		default:
			return fmt.Errorf("config: connection %q: auth_type must be \"none\", \"basic\", or \"apiKey\", got %q", conn.Name, conn.AuthType)
		}
		if conn.AuthType == "basic" && conn.Username == "" {
			return fmt.Errorf("config: connection %q: basic auth requires a username", conn.Name)
		}
		if conn.AuthType == "apiKey" && conn.APIKey == "" {
			return fmt.Errorf("config: connection %q: apiKey auth requires an api_key", conn.Name)
		}
	}
	if c.Default != "" && !seen[c.Default] {
		return fmt.Errorf("config: default connection %q does not exist", c.Default)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: ESCOPE_CONNECTION, ESCOPE_TIMEOUT.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ESCOPE_CONNECTION"); v != "" {
		c.Default = v
	}
	if v := os.Getenv("ESCOPE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid ESCOPE_TIMEOUT %q: %w", v, err)
		}
		c.Client.Timeout = d
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Client      *rawClient    `yaml:"client"`
	Connections *[]Connection `yaml:"connections"`
	Default     *string       `yaml:"default"`
}

type rawClient struct {
	Timeout *time.Duration `yaml:"timeout"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Client != nil {
		if layer.Client.Timeout != nil {
			c.Client.Timeout = *layer.Client.Timeout
		}
	}
	if layer.Connections != nil {
		c.Connections = append([]Connection(nil), (*layer.Connections)...)
	}
	if layer.Default != nil {
		c.Default = *layer.Default
	}
}
