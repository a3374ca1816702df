package schemaload

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// gooseTable is goose's bookkeeping table, never part of the user schema.
const gooseTable = "goose_db_version"

// FromSQLite replays the CREATE TABLE statements stored in an existing
// SQLite database, in creation order. The file is opened read-only.
func FromSQLite(ctx context.Context, b *catalog.Builder, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return replayMaster(ctx, db, b)
}

// FromMigrations applies every goose migration in dir to an in-memory
// SQLite database and replays the resulting schema.
func FromMigrations(ctx context.Context, b *catalog.Builder, dir string) error {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open scratch database: %w", err)
	}
	defer func() { _ = db.Close() }()
	// each connection gets its own in-memory database
	db.SetMaxOpenConns(1)

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return replayMaster(ctx, db, b)
}

func replayMaster(ctx context.Context, db *sql.DB, b *catalog.Builder) error {
	rows, err := db.QueryContext(ctx, `
		SELECT name, sql
		FROM sqlite_master
		WHERE type = 'table' AND sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		ORDER BY rowid
	`)
	if err != nil {
		return fmt.Errorf("failed to query sqlite_master: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name, ddl string
		if err := rows.Scan(&name, &ddl); err != nil {
			return fmt.Errorf("failed to scan sqlite_master: %w", err)
		}
		if name == gooseTable {
			continue
		}
		if err := b.RegisterTable(ddl); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating sqlite_master: %w", err)
	}
	return nil
}
