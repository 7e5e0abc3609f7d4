// ABOUTME: Configuration loading and parsing for trapperkeeper
// ABOUTME: Supports YAML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete trapperkeeper configuration.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Admin    AdminConfig    `yaml:"admin"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// URL is the database location, either a plain path or sqlite://<path>.
	URL string `yaml:"url"`

	// PoolSize bounds the number of open connections.
	PoolSize int `yaml:"pool_size"`
}

// APIConfig holds the listen address for the HTTP server.
type APIConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

// AdminConfig holds the single administrator credential pair. Password may
// be either a plaintext value or a bcrypt hash.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns a Config with default values applied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:      "sqlite://./tk.sqlite",
			PoolSize: 8,
		},
		API: APIConfig{
			Addr: "127.0.0.1",
			Port: 8080,
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Missing fields fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// WriteDefault writes a starter config file to the given path. The admin
// credentials are placeholders the operator must change.
func WriteDefault(path string) error {
	cfg := Default()
	cfg.Admin = AdminConfig{
		Username: "admin",
		Password: "changeme",
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that required fields are present and sensible.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Database.PoolSize < 1 {
		return fmt.Errorf("database.pool_size must be at least 1, got %d", c.Database.PoolSize)
	}
	if c.API.Addr == "" {
		return fmt.Errorf("api.addr is required")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}
	if c.Admin.Username == "" {
		return fmt.Errorf("admin.username is required")
	}
	if c.Admin.Password == "" {
		return fmt.Errorf("admin.password is required")
	}
	return nil
}
