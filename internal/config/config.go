// Package config loads the connection configuration for the CLI and other
// tools from mapframe.yaml, environment variables, and command-line flags.
package config

import (
	"fmt"

	"github.com/mapframe-labs/mapframe/internal/pgapi"
)

// Config holds the connection settings and CLI-wide options.
type Config struct {
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`

	Verbose bool `koanf:"verbose"`

	// RetryTimes bounds rate-limit retries during downloads.
	RetryTimes int `koanf:"retry_times"`
}

// Default configuration values.
const (
	DefaultHost       = "localhost"
	DefaultPort       = 5432
	DefaultRetryTimes = 3
)

// Validate checks that the configuration can produce a usable connection.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required: set it in mapframe.yaml, MAPFRAME_DATABASE, or --database")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// PG converts the configuration into the transport's connection settings.
func (c *Config) PG() pgapi.Config {
	return pgapi.Config{
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Username: c.Username,
		Password: c.Password,
		Schema:   c.Schema,
		Options:  c.Options,
	}
}
