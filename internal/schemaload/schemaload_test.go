package schemaload

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/sqltype/internal/testutil"
	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func columnTypes(t *testing.T, cat *catalog.Catalog, table string) map[string]core.Type {
	t.Helper()
	tbl, err := cat.LookupTable(table)
	require.NoError(t, err)
	out := make(map[string]core.Type, len(tbl.Columns))
	for _, c := range tbl.Columns {
		out[c.Name] = c.Type
	}
	return out
}

func TestFromFiles(t *testing.T) {
	dir := t.TempDir()
	// lexical order: users must exist before orders references it
	writeFile(t, filepath.Join(dir, "01_users.sql"), `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`)
	writeFile(t, filepath.Join(dir, "02_orders.sql"), `
		CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id));
		CREATE INDEX orders_user ON orders(user_id);`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not sql")
	writeFile(t, filepath.Join(dir, "nested", "03_tags.sql"), `CREATE TABLE tags (name TEXT);`)

	logger, logs := testutil.NewRecordingLogger(t)
	cat, err := Load(context.Background(), Config{Paths: []string{dir}, Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders", "tags"}, cat.TableNames())
	assert.Equal(t, core.NotNull(core.Integer), columnTypes(t, cat, "orders")["user_id"])

	tables, ok := logs.Attr("schema loaded", "tables")
	require.True(t, ok)
	assert.Equal(t, int64(3), tables.Int64())
}

func TestFromFilesSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	writeFile(t, path, `CREATE TABLE t (a REAL); CREATE TABLE u AS SELECT a FROM t;`)

	cat, err := Load(context.Background(), Config{Source: SourceDDL, Paths: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, core.Nullable(core.Real), columnTypes(t, cat, "u")["a"])
}

func TestFromFilesErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.sql"), `CREATE TABLE orders (user_id INTEGER REFERENCES users(id));`)

	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"no paths", nil, "no schema files given"},
		{"missing path", []string{filepath.Join(dir, "missing.sql")}, "failed to stat schema path"},
		{"unknown referenced table", []string{dir}, "bad.sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), Config{Paths: tt.paths})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL UNIQUE);
		CREATE TABLE posts (id INTEGER PRIMARY KEY, author INTEGER NOT NULL REFERENCES users(id), body TEXT);
		CREATE INDEX posts_author ON posts(author);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cat, err := Load(context.Background(), Config{Source: SourceSQLite, Paths: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "posts"}, cat.TableNames())
	posts := columnTypes(t, cat, "posts")
	assert.Equal(t, core.Nullable(core.Integer), posts["id"])
	assert.Equal(t, core.Nullable(core.Text), posts["body"])
}

func TestFromSQLiteMissingFile(t *testing.T) {
	_, err := Load(context.Background(), Config{Source: SourceSQLite, Paths: []string{filepath.Join(t.TempDir(), "nope.db")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open sqlite database")
}

func TestFromMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "00001_users.sql"), `-- +goose Up
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);

-- +goose Down
DROP TABLE users;
`)
	writeFile(t, filepath.Join(dir, "00002_users_email.sql"), `-- +goose Up
ALTER TABLE users ADD COLUMN email TEXT NOT NULL DEFAULT '';

-- +goose Down
ALTER TABLE users DROP COLUMN email;
`)

	cat, err := Load(context.Background(), Config{Source: SourceMigrations, Paths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, cat.TableNames(), "goose bookkeeping is skipped")

	users, err := cat.LookupTable("users")
	require.NoError(t, err)
	require.Len(t, users.Columns, 3)
	email := users.Columns[2]
	assert.Equal(t, "email", email.Name)
	assert.Equal(t, core.NotNull(core.Text), email.Type)
	assert.False(t, email.Mandatory())
}

func TestFromMigrationsFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "00001_broken.sql"), "-- +goose Up\nCREATE TABLE (;\n")

	_, err := Load(context.Background(), Config{Source: SourceMigrations, Paths: []string{dir}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations")
}

func TestFromInformationSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "is_nullable", "has_default"}).
		AddRow("accounts", "id", "integer", "NO", true).
		AddRow("accounts", "email", "character varying", "NO", false).
		AddRow("accounts", "score", "double precision", "YES", false).
		AddRow("events", "at", "timestamp with time zone", "NO", true).
		AddRow("events", "tags", "ARRAY", "YES", false)
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("public").
		WillReturnRows(rows)

	b := catalog.NewBuilder(catalog.WithDialect(dialect.Postgres))
	require.NoError(t, fromInformationSchema(context.Background(), db, b, "public"))
	require.NoError(t, mock.ExpectationsWereMet())

	cat := b.Build()
	assert.Equal(t, []string{"accounts", "events"}, cat.TableNames())

	accounts, err := cat.LookupTable("accounts")
	require.NoError(t, err)
	assert.Equal(t, []core.Column{
		{Name: "id", Type: core.NotNull(core.Integer), HasDefault: true, DeclaredType: "integer"},
		{Name: "email", Type: core.NotNull(core.Text), DeclaredType: "character varying"},
		{Name: "score", Type: core.Nullable(core.Real), DeclaredType: "double precision"},
	}, accounts.Columns)
	assert.True(t, accounts.Columns[1].Mandatory())
	assert.False(t, accounts.Columns[0].Mandatory())

	events := columnTypes(t, cat, "events")
	assert.Equal(t, core.NotNull(core.Text), events["at"])
	assert.Equal(t, core.Nullable(core.Unknown), events["tags"])
}

func TestFromInformationSchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
		want  string
	}{
		{
			name: "query fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema").WillReturnError(assert.AnError)
			},
			want: "failed to query column metadata",
		},
		{
			name: "empty schema",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema").
					WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "is_nullable", "has_default"}))
			},
			want: `no tables found in schema "app"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setup(mock)

			err = fromInformationSchema(context.Background(), db, catalog.NewBuilder(), "app")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromDuckDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.duckdb")
	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE events (id INTEGER NOT NULL, kind VARCHAR, amount DOUBLE DEFAULT 0)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cat, err := Load(context.Background(), Config{Source: SourceDuckDB, DSN: path})
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cat.Dialect().Name)

	events, err := cat.LookupTable("events")
	require.NoError(t, err)
	require.Len(t, events.Columns, 3)
	assert.Equal(t, core.NotNull(core.Integer), events.Columns[0].Type)
	assert.Equal(t, core.Nullable(core.Text), events.Columns[1].Type)
	assert.True(t, events.Columns[2].HasDefault)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"unknown source", Config{Source: "mysql"}, `unknown schema source "mysql"`},
		{"sqlite needs one path", Config{Source: SourceSQLite}, "needs exactly one path, got 0"},
		{"migrations needs one path", Config{Source: SourceMigrations, Paths: []string{"a", "b"}}, "needs exactly one path, got 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
