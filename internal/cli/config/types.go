// Package config loads sqltype CLI configuration from defaults, a
// sqltype.yaml file, SQLTYPE_ environment variables and command flags.
package config

import (
	"time"

	"github.com/leapstack-labs/sqltype/internal/schemaload"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
)

// Config holds all CLI configuration options.
type Config struct {
	Dialect         string       `koanf:"dialect"` // empty follows the schema source
	Output          string       `koanf:"output"`
	Verbose         bool         `koanf:"verbose"`
	Workers         int          `koanf:"workers"`
	CacheSize       int          `koanf:"cache_size"`
	StrictRecursive bool         `koanf:"strict_recursive"`
	Schema          SchemaConfig `koanf:"schema"`
	Server          ServerConfig `koanf:"server"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// SchemaConfig selects where table definitions come from.
type SchemaConfig struct {
	Source string   `koanf:"source"`
	Paths  []string `koanf:"paths"`
	DSN    string   `koanf:"dsn"`
	Name   string   `koanf:"schema_name"`
}

// ServerConfig holds options for the serve command.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	Watch             bool          `koanf:"watch"`
}

// Default configuration values.
const (
	DefaultOutput            = "auto" // text on a TTY, markdown otherwise
	DefaultSource            = schemaload.SourceDDL
	DefaultSchemaPath        = "schema.sql"
	DefaultAddr              = "127.0.0.1:8080"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultCacheSize         = service.DefaultCacheSize
)

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	return &Config{
		Output:    DefaultOutput,
		CacheSize: DefaultCacheSize,
		Schema: SchemaConfig{
			Source: DefaultSource,
			Paths:  []string{DefaultSchemaPath},
		},
		Server: ServerConfig{
			Addr:              DefaultAddr,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
		},
	}
}

// SchemaLoadConfig converts the schema section for schemaload.Load. An
// empty dialect lets the schema source pick one.
func (c *Config) SchemaLoadConfig() schemaload.Config {
	d, _ := dialect.Get(c.Dialect)
	return schemaload.Config{
		Dialect:         d,
		Source:          c.Schema.Source,
		Paths:           c.Schema.Paths,
		DSN:             c.Schema.DSN,
		Schema:          c.Schema.Name,
		StrictRecursive: c.StrictRecursive,
	}
}
