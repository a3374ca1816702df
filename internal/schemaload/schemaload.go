// Package schemaload builds a catalog from DDL files, a SQLite database,
// a goose migrations directory, or a live Postgres or DuckDB connection.
package schemaload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/leapstack-labs/sqltype/pkg/typecheck"
)

// Source kinds.
const (
	SourceDDL        = "ddl"
	SourceSQLite     = "sqlite"
	SourceMigrations = "migrations"
	SourcePostgres   = "postgres"
	SourceDuckDB     = "duckdb"
)

// Sources lists the supported source kinds.
var Sources = []string{SourceDDL, SourceSQLite, SourceMigrations, SourcePostgres, SourceDuckDB}

// Config selects where table definitions come from.
type Config struct {
	// Source is one of the Source* kinds. Empty means ddl.
	Source string
	// Paths are DDL files or directories for ddl, the database file for
	// sqlite, and the migrations directory for migrations.
	Paths []string
	// DSN is the connection string for postgres and duckdb. A single path
	// is used when DSN is empty.
	DSN string
	// Schema restricts introspection to one schema. Empty means the
	// dialect's default schema.
	Schema string
	// Dialect parses DDL and normalizes names. Nil means SQLite, or the
	// source's own dialect for postgres and duckdb.
	Dialect *dialect.Dialect
	// StrictRecursive applies to CREATE TABLE ... AS SELECT queries.
	StrictRecursive bool
	Logger          *slog.Logger
}

// Load builds a catalog from cfg.
func Load(ctx context.Context, cfg Config) (*catalog.Catalog, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	source := cfg.Source
	if source == "" {
		source = SourceDDL
	}

	d := cfg.Dialect
	if d == nil {
		switch source {
		case SourcePostgres:
			d = dialect.Postgres
		case SourceDuckDB:
			d = dialect.DuckDB
		default:
			d = dialect.SQLite
		}
	}

	b := catalog.NewBuilder(
		catalog.WithDialect(d),
		catalog.WithLogger(logger),
		catalog.WithDeriver(typecheck.Deriver(typecheck.Options{
			StrictRecursive: cfg.StrictRecursive,
			Logger:          logger,
		})),
	)

	logger.Debug("loading schema", "source", source, "dialect", d.Name)

	var err error
	switch source {
	case SourceDDL:
		err = FromFiles(b, cfg.Paths...)
	case SourceSQLite:
		path, perr := singlePath(source, cfg.Paths)
		if perr != nil {
			return nil, perr
		}
		err = FromSQLite(ctx, b, path)
	case SourceMigrations:
		dir, perr := singlePath(source, cfg.Paths)
		if perr != nil {
			return nil, perr
		}
		err = FromMigrations(ctx, b, dir)
	case SourcePostgres:
		err = FromPostgres(ctx, b, dsnOr(cfg), schemaOr(cfg.Schema, dialect.Postgres))
	case SourceDuckDB:
		err = FromDuckDB(ctx, b, dsnOr(cfg), schemaOr(cfg.Schema, dialect.DuckDB))
	default:
		return nil, fmt.Errorf("unknown schema source %q (available: %v)", source, Sources)
	}
	if err != nil {
		return nil, err
	}

	cat := b.Build()
	logger.Info("schema loaded", "source", source, "tables", cat.Len())
	return cat, nil
}

func singlePath(source string, paths []string) (string, error) {
	if len(paths) != 1 {
		return "", fmt.Errorf("schema source %s needs exactly one path, got %d", source, len(paths))
	}
	return paths[0], nil
}

func schemaOr(name string, d *dialect.Dialect) string {
	if name != "" {
		return name
	}
	return d.DefaultSchema
}

func dsnOr(cfg Config) string {
	if cfg.DSN == "" && len(cfg.Paths) == 1 {
		return cfg.Paths[0]
	}
	return cfg.DSN
}
