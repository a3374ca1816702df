package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leapstack-labs/sqltype/internal/testutil"
	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/parser"
	"github.com/leapstack-labs/sqltype/pkg/typecheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schema = `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER);
CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id), total REAL);
`

func newService(t *testing.T, opts Options) *Service {
	t.Helper()
	b := catalog.NewBuilder(catalog.WithDeriver(typecheck.Deriver(typecheck.Options{})))
	require.NoError(t, b.RegisterScript(schema))
	if opts.Logger == nil {
		opts.Logger = testutil.NewTestLogger(t)
	}
	svc, err := New(b.Build(), opts)
	require.NoError(t, err)
	return svc
}

func TestAnalyze(t *testing.T) {
	svc := newService(t, Options{})

	res, err := svc.Analyze(context.Background(), "SELECT id, name FROM users WHERE age > ?", "")
	require.NoError(t, err)
	assert.Equal(t, typecheck.KindSelect, res.Kind)
	require.Len(t, res.Columns, 2)
	assert.Equal(t, core.Nullable(core.Integer), res.Columns[0].Type)
	assert.Equal(t, []core.BaseType{core.Integer}, res.ParamTypes())
}

func TestAnalyzeDialects(t *testing.T) {
	svc := newService(t, Options{})

	res, err := svc.Analyze(context.Background(), "SELECT id::TEXT FROM users WHERE id = $1", "postgres")
	require.NoError(t, err)
	assert.Equal(t, core.Text, res.Columns[0].Base)
	assert.Equal(t, "$1", res.Params[0].Label)

	_, err = svc.Analyze(context.Background(), "SELECT 1", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "oracle"`)
}

func TestAnalyzeCachesResults(t *testing.T) {
	svc := newService(t, Options{CacheSize: 8})
	ctx := context.Background()

	first, err := svc.Analyze(ctx, "SELECT name FROM users", "")
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, "SELECT name FROM users", "")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, svc.CacheLen())

	// failures are cached too
	_, err = svc.Analyze(ctx, "SELECT nope FROM users", "")
	require.ErrorIs(t, err, core.ErrUnknownColumn)
	_, err = svc.Analyze(ctx, "SELECT nope FROM users", "")
	require.ErrorIs(t, err, core.ErrUnknownColumn)
	assert.Equal(t, 2, svc.CacheLen())

	// dialect is part of the key
	_, err = svc.Analyze(ctx, "SELECT name FROM users", "duckdb")
	require.NoError(t, err)
	assert.Equal(t, 3, svc.CacheLen())
}

func TestCacheEviction(t *testing.T) {
	svc := newService(t, Options{CacheSize: 2})
	ctx := context.Background()
	for i := range 5 {
		_, err := svc.Analyze(ctx, fmt.Sprintf("SELECT %d", i), "")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, svc.CacheLen())
}

func TestCacheDisabled(t *testing.T) {
	svc := newService(t, Options{CacheSize: -1})
	_, err := svc.Analyze(context.Background(), "SELECT 1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, svc.CacheLen())
}

func TestAnalyzeBatchIsolatesFailures(t *testing.T) {
	svc := newService(t, Options{Workers: 2})

	sources := []Source{
		{Name: "ok", SQL: "SELECT id FROM users"},
		{Name: "unknown table", SQL: "SELECT * FROM nope"},
		{Name: "parse", SQL: "SELECT FROM"},
		{Name: "join", SQL: "SELECT u.name, o.total FROM users u LEFT JOIN orders o ON o.user_id = u.id"},
		{Name: "bad dialect", SQL: "SELECT 1", Dialect: "nope"},
	}
	out, err := svc.AnalyzeBatch(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, out, len(sources))

	for i, o := range out {
		assert.Equal(t, sources[i], o.Source, "outcomes keep input order")
	}
	require.NoError(t, out[0].Err)
	assert.ErrorIs(t, out[1].Err, core.ErrUnknownTable)

	var perr *parser.ParseError
	assert.True(t, errors.As(out[2].Err, &perr))

	require.NoError(t, out[3].Err)
	assert.True(t, out[3].Result.Columns[1].Nullable)
	assert.Error(t, out[4].Err)
	assert.Nil(t, out[4].Result)
}

func TestAnalyzeBatchCancelled(t *testing.T) {
	svc := newService(t, Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := svc.AnalyzeBatch(ctx, []Source{{SQL: "SELECT 1"}, {SQL: "SELECT 2"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	svc := newService(t, Options{})
	out, err := svc.AnalyzeBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSplit(t *testing.T) {
	svc := newService(t, Options{})

	got, err := svc.Split("q.sql", "SELECT 1;\n-- note; not a split\nSELECT 'a;b';\n", "")
	require.NoError(t, err)
	assert.Equal(t, []Source{
		{Name: "q.sql:1", SQL: "SELECT 1"},
		{Name: "q.sql:2", SQL: "SELECT 'a;b'"},
	}, got)

	_, err = svc.Split("q.sql", "SELECT 1", "nope")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	svc := newService(t, Options{})
	assert.Equal(t, "SELECT CAST(id AS TEXT) FROM users", svc.Normalize("SELECT id::TEXT FROM users"))
}

func TestCatalog(t *testing.T) {
	svc := newService(t, Options{})
	assert.Equal(t, []string{"users", "orders"}, svc.Catalog().TableNames())
	assert.Equal(t, "sqlite", svc.Catalog().Dialect().Name)
}

func TestDescribe(t *testing.T) {
	svc := newService(t, Options{})
	ctx := context.Background()

	_, err := svc.Analyze(ctx, "SELECT id\nFROM users u JOIN orders o ON o.user_id = u.id", "")
	info := Describe(err)
	assert.Equal(t, core.KindAmbiguousColumn, info.Kind)
	assert.Equal(t, []string{"id"}, info.Names)
	assert.Equal(t, 1, info.Line)
	assert.Equal(t, 8, info.Column)
	assert.True(t, IsStatementError(err))

	_, err = svc.Analyze(ctx, "SELECT 'open", "")
	info = Describe(err)
	assert.Equal(t, KindParseError, info.Kind)
	assert.NotZero(t, info.Line)

	_, err = svc.Analyze(ctx, "SELECT 1", "nope")
	info = Describe(err)
	assert.Equal(t, KindInternal, info.Kind)
	assert.False(t, IsStatementError(err))
}
