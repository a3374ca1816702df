package schemaload

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/core"

	_ "github.com/jackc/pgx/v5/stdlib"  // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// FromPostgres reads the tables of one schema from a live Postgres database.
func FromPostgres(ctx context.Context, b *catalog.Builder, dsn, schema string) error {
	return introspect(ctx, b, "pgx", dsn, schema)
}

// FromDuckDB reads the tables of one schema from a DuckDB database. An
// empty dsn opens an empty in-memory database.
func FromDuckDB(ctx context.Context, b *catalog.Builder, dsn, schema string) error {
	return introspect(ctx, b, "duckdb", dsn, schema)
}

func introspect(ctx context.Context, b *catalog.Builder, driver, dsn, schema string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return fromInformationSchema(ctx, db, b, schema)
}

const columnsQuery = `
	SELECT
		table_name,
		column_name,
		data_type,
		is_nullable,
		column_default IS NOT NULL
	FROM information_schema.columns
	WHERE table_schema = $1
	ORDER BY table_name, ordinal_position
`

// fromInformationSchema registers every table of schema. Tables are added
// in name order; a column is nullable when is_nullable is YES.
func fromInformationSchema(ctx context.Context, db *sql.DB, b *catalog.Builder, schema string) error {
	rows, err := db.QueryContext(ctx, columnsQuery, schema)
	if err != nil {
		return fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		tables []*core.Table
		cur    *core.Table
	)
	for rows.Next() {
		var (
			table, name, dataType, nullable string
			hasDefault                      bool
		)
		if err := rows.Scan(&table, &name, &dataType, &nullable, &hasDefault); err != nil {
			return fmt.Errorf("failed to scan column metadata: %w", err)
		}
		if cur == nil || cur.Name != table {
			cur = &core.Table{Name: table}
			tables = append(tables, cur)
		}
		cur.Columns = append(cur.Columns, core.Column{
			Name: name,
			Type: core.Type{
				Base:     catalog.MapType(dataType),
				Nullable: strings.EqualFold(nullable, "YES"),
			},
			HasDefault:   hasDefault,
			DeclaredType: dataType,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(tables) == 0 {
		return fmt.Errorf("no tables found in schema %q", schema)
	}
	for _, t := range tables {
		if err := b.AddTable(*t); err != nil {
			return err
		}
	}
	return nil
}
