package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/internal/schemaload"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
)

// Validate checks the dialect, output format, schema source and limits.
func (c *Config) Validate() error {
	var errs []error
	if c.Dialect != "" {
		if _, ok := dialect.Get(c.Dialect); !ok {
			errs = append(errs, fmt.Errorf("unknown dialect %q (available: %s)", c.Dialect, strings.Join(dialect.List(), ", ")))
		}
	}
	if _, err := output.ParseMode(c.Output); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(schemaload.Sources, c.Schema.Source) {
		errs = append(errs, fmt.Errorf("unknown schema source %q (available: %s)", c.Schema.Source, strings.Join(schemaload.Sources, ", ")))
	}
	switch c.Schema.Source {
	case schemaload.SourcePostgres:
		if c.Schema.DSN == "" && len(c.Schema.Paths) == 0 {
			errs = append(errs, errors.New("schema source postgres needs a dsn"))
		}
	case schemaload.SourceSQLite, schemaload.SourceMigrations:
		if len(c.Schema.Paths) != 1 {
			errs = append(errs, fmt.Errorf("schema source %s needs exactly one path", c.Schema.Source))
		}
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Server.ReadHeaderTimeout < 0 {
		errs = append(errs, errors.New("server.read_header_timeout must not be negative"))
	}
	return errors.Join(errs...)
}
