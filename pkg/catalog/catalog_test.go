package catalog_test

import (
	"testing"

	"github.com/leapstack-labs/sqltype/internal/testutil"
	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, ddl string, opts ...catalog.Option) *catalog.Catalog {
	t.Helper()
	opts = append([]catalog.Option{catalog.WithLogger(testutil.NewTestLogger(t))}, opts...)
	b := catalog.NewBuilder(opts...)
	require.NoError(t, b.RegisterScript(ddl))
	return b.Build()
}

func TestDeclaredTypesAndNullability(t *testing.T) {
	cat := build(t, `CREATE TABLE everything (
		a INTEGER NOT NULL,
		b INT,
		c BIGINT NOT NULL,
		d TEXT,
		e VARCHAR(64) NOT NULL,
		f CLOB,
		g REAL NOT NULL,
		h DOUBLE PRECISION,
		i FLOAT,
		j NUMERIC(10, 2),
		k DECIMAL,
		l BOOLEAN NOT NULL,
		m BOOL,
		n DATE,
		o TIMESTAMP NOT NULL,
		p UUID,
		q JSON,
		r BLOB,
		s,
		t MYSTERY
	)`)

	tbl, err := cat.LookupTable("everything")
	require.NoError(t, err)

	want := map[string]core.Type{
		"a": core.NotNull(core.Integer),
		"b": core.Nullable(core.Integer),
		"c": core.NotNull(core.Integer),
		"d": core.Nullable(core.Text),
		"e": core.NotNull(core.Text),
		"f": core.Nullable(core.Text),
		"g": core.NotNull(core.Real),
		"h": core.Nullable(core.Real),
		"i": core.Nullable(core.Real),
		"j": core.Nullable(core.Real),
		"k": core.Nullable(core.Real),
		"l": core.NotNull(core.Bool),
		"m": core.Nullable(core.Bool),
		"n": core.Nullable(core.Text),
		"o": core.NotNull(core.Text),
		"p": core.Nullable(core.Text),
		"q": core.Nullable(core.Text),
		"r": core.Nullable(core.Unknown),
		"s": core.Nullable(core.Unknown),
		"t": core.Nullable(core.Unknown),
	}
	require.Len(t, tbl.Columns, len(want))
	for _, col := range tbl.Columns {
		t.Run(col.Name, func(t *testing.T) {
			assert.Equal(t, want[col.Name], col.Type)
			assert.False(t, col.HasDefault)
		})
	}
}

func TestColumnOrderIsDeclarationOrder(t *testing.T) {
	cat := build(t, "CREATE TABLE t (z INT, a INT, m INT)")
	tbl, err := cat.LookupTable("t")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, tbl.ColumnNames())
}

func TestDefaults(t *testing.T) {
	cat := build(t, `CREATE TABLE t (
		id INTEGER PRIMARY KEY,
		seq INT PRIMARY KEY AUTOINCREMENT,
		created TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		flag INT NOT NULL DEFAULT 0,
		total REAL GENERATED ALWAYS AS (flag * 2),
		name TEXT NOT NULL
	)`)
	tbl, err := cat.LookupTable("t")
	require.NoError(t, err)

	tests := []struct {
		column     string
		hasDefault bool
		nullable   bool
		mandatory  bool
	}{
		{"id", true, true, false},
		{"seq", true, true, false},
		{"created", true, false, false},
		{"flag", true, false, false},
		{"total", true, true, false},
		{"name", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			col, ok := tbl.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.hasDefault, col.HasDefault)
			assert.Equal(t, tt.nullable, col.Type.Nullable)
			assert.Equal(t, tt.mandatory, col.Mandatory())
		})
	}
}

func TestRowidAliasOnlyForIntegerPrimaryKey(t *testing.T) {
	cat := build(t, `
		CREATE TABLE a (id INTEGER, name TEXT, PRIMARY KEY (id));
		CREATE TABLE b (id INT PRIMARY KEY);
		CREATE TABLE c (id INTEGER PRIMARY KEY) WITHOUT ROWID;
	`)

	a, _ := cat.LookupTable("a")
	id, _ := a.Column("id")
	assert.True(t, id.HasDefault)
	assert.True(t, id.Type.Nullable)

	b, _ := cat.LookupTable("b")
	id, _ = b.Column("id")
	assert.False(t, id.HasDefault)
	assert.True(t, id.Type.Nullable)

	c, _ := cat.LookupTable("c")
	id, _ = c.Column("id")
	assert.False(t, id.HasDefault)
}

func TestNullabilityFollowsNotNullOnly(t *testing.T) {
	tests := []struct {
		name     string
		ddl      string
		d        *dialect.Dialect
		nullable bool
	}{
		{"rowid alias", "CREATE TABLE pk (id INTEGER PRIMARY KEY, v TEXT)", dialect.SQLite, true},
		{"rowid alias not null", "CREATE TABLE pk (id INTEGER PRIMARY KEY NOT NULL, v TEXT)", dialect.SQLite, false},
		{"table level key", "CREATE TABLE pk (id INTEGER, v TEXT, PRIMARY KEY (id))", dialect.SQLite, true},
		{"postgres key", "CREATE TABLE pk (id INT PRIMARY KEY, v TEXT)", dialect.Postgres, true},
		{"postgres serial", "CREATE TABLE pk (id SERIAL PRIMARY KEY, v TEXT)", dialect.Postgres, true},
		{"postgres serial not null", "CREATE TABLE pk (id SERIAL NOT NULL, v TEXT)", dialect.Postgres, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := build(t, tt.ddl, catalog.WithDialect(tt.d))
			tbl, err := cat.LookupTable("pk")
			require.NoError(t, err)
			id, ok := tbl.Column("id")
			require.True(t, ok)
			assert.Equal(t, tt.nullable, id.Type.Nullable)
		})
	}
}

func TestPostgresPrimaryKeyAndSerial(t *testing.T) {
	cat := build(t, `
		CREATE TABLE accounts (
			id BIGSERIAL PRIMARY KEY,
			code TEXT PRIMARY KEY,
			ident INT GENERATED ALWAYS AS IDENTITY,
			tags TEXT[]
		)`, catalog.WithDialect(dialect.Postgres))

	tbl, err := cat.LookupTable("ACCOUNTS")
	require.NoError(t, err)

	id, _ := tbl.Column("id")
	assert.Equal(t, core.Nullable(core.Integer), id.Type)
	assert.True(t, id.HasDefault)
	assert.False(t, id.Mandatory())

	code, _ := tbl.Column("code")
	assert.True(t, code.Type.Nullable)

	ident, _ := tbl.Column("ident")
	assert.True(t, ident.HasDefault)

	tags, _ := tbl.Column("tags")
	assert.Equal(t, core.Unknown, tags.Type.Base)
}

func TestBoolCheckDetection(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
		bool bool
	}{
		{"in list", "CREATE TABLE t (c INT CHECK (c IN (0, 1)))", true},
		{"in list reversed", "CREATE TABLE t (c INT CHECK (c IN (1, 0)))", true},
		{"or of equalities", "CREATE TABLE t (c INT CHECK (c = 0 OR c = 1))", true},
		{"operands swapped", "CREATE TABLE t (c INT CHECK (1 = c OR 0 = c))", true},
		{"parenthesized", "CREATE TABLE t (c INT CHECK ((c = 1) OR (c = 0)))", true},
		{"table level", "CREATE TABLE t (c INT NOT NULL, CHECK (c IN (0,1)))", true},
		{"other values", "CREATE TABLE t (c INT CHECK (c IN (0, 2)))", false},
		{"three values", "CREATE TABLE t (c INT CHECK (c IN (0, 1, 2)))", false},
		{"not in", "CREATE TABLE t (c INT CHECK (c NOT IN (0, 1)))", false},
		{"different columns", "CREATE TABLE t (c INT, d INT, CHECK (c = 0 OR d = 1))", false},
		{"and instead of or", "CREATE TABLE t (c INT CHECK (c = 0 AND c = 1))", false},
		{"range", "CREATE TABLE t (c INT CHECK (c >= 0))", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := build(t, tt.ddl)
			tbl, err := cat.LookupTable("t")
			require.NoError(t, err)
			col, _ := tbl.Column("c")
			if tt.bool {
				assert.Equal(t, core.Bool, col.Type.Base)
			} else {
				assert.Equal(t, core.Integer, col.Type.Base)
			}
		})
	}
}

func TestCheckTextIsKept(t *testing.T) {
	cat := build(t, "CREATE TABLE t (c INT NOT NULL CHECK (c IN (0, 1)))")
	tbl, _ := cat.LookupTable("t")
	col, _ := tbl.Column("c")
	assert.Equal(t, "c IN (0, 1)", col.Check)
	assert.Equal(t, core.NotNull(core.Bool), col.Type)
}

func TestForeignKeysMustReferenceExistingTables(t *testing.T) {
	t.Run("forward reference", func(t *testing.T) {
		b := catalog.NewBuilder()
		err := b.RegisterScript(`
			CREATE TABLE orders (id INT, user_id INT REFERENCES users (id));
			CREATE TABLE users (id INT);
		`)
		require.Error(t, err)
		assert.True(t, core.IsKind(err, core.KindUnknownTable))
		assert.Contains(t, err.Error(), "users")
		assert.Equal(t, 0, b.Build().Len())
	})

	t.Run("table constraint", func(t *testing.T) {
		b := catalog.NewBuilder()
		err := b.RegisterTable("CREATE TABLE orders (user_id INT, FOREIGN KEY (user_id) REFERENCES users (id))")
		assert.ErrorIs(t, err, core.ErrUnknownTable)
	})

	t.Run("declared first", func(t *testing.T) {
		cat := build(t, `
			CREATE TABLE users (id INTEGER PRIMARY KEY);
			CREATE TABLE orders (id INT, user_id INT REFERENCES users (id));
		`)
		assert.Equal(t, []string{"users", "orders"}, cat.TableNames())
	})

	t.Run("self reference", func(t *testing.T) {
		cat := build(t, "CREATE TABLE nodes (id INT, parent INT REFERENCES nodes (id))")
		assert.Equal(t, 1, cat.Len())
	})
}

func TestDuplicateTables(t *testing.T) {
	b := catalog.NewBuilder()
	require.NoError(t, b.RegisterTable("CREATE TABLE t (a INT)"))

	err := b.RegisterTable("CREATE TABLE T (b INT)")
	assert.True(t, core.IsKind(err, core.KindDuplicateTable))

	require.NoError(t, b.RegisterTable("CREATE TABLE IF NOT EXISTS t (b INT)"))
	tbl, err := b.Build().LookupTable("t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tbl.ColumnNames())

	err = b.AddTable(core.Table{Name: "t"})
	assert.ErrorIs(t, err, core.ErrDuplicateTable)
}

func TestLookupUnknownTable(t *testing.T) {
	_, err := catalog.Empty().LookupTable("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownTable)
	assert.Equal(t, core.KindUnknownTable, core.KindOf(err))
}

func TestScriptSkipsOtherStatements(t *testing.T) {
	cat := build(t, `
		PRAGMA foreign_keys = ON;
		CREATE TABLE a (x INT);
		CREATE INDEX a_x ON a (x);
		INSERT INTO a VALUES (1);
		CREATE TABLE b (y TEXT);
	`)
	assert.Equal(t, []string{"a", "b"}, cat.TableNames())
}

func TestRegisterTableRejectsOtherStatements(t *testing.T) {
	err := catalog.NewBuilder().RegisterTable("SELECT 1")
	assert.True(t, core.IsKind(err, core.KindUnsupportedStatement))
}

func TestParseErrorsAreForwarded(t *testing.T) {
	err := catalog.NewBuilder().RegisterScript("CREATE TABLE t (a INT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error at line 1")
}

func TestSnapshotsAreImmutable(t *testing.T) {
	b := catalog.NewBuilder()
	require.NoError(t, b.RegisterTable("CREATE TABLE a (x INT)"))
	first := b.Build()

	require.NoError(t, b.RegisterTable("CREATE TABLE b (y INT)"))
	second := b.Build()

	assert.Equal(t, 1, first.Len())
	assert.False(t, first.HasTable("b"))
	assert.Equal(t, 2, second.Len())

	tables := second.Tables()
	tables[0] = nil
	assert.NotNil(t, second.Tables()[0])
}

func TestAddTable(t *testing.T) {
	b := catalog.NewBuilder()
	cols := []core.Column{{Name: "id", Type: core.NotNull(core.Integer)}}
	require.NoError(t, b.AddTable(core.Table{Name: "ext", Columns: cols}))
	cols[0].Name = "changed"

	tbl, err := b.Build().LookupTable("EXT")
	require.NoError(t, err)
	assert.Equal(t, "id", tbl.Columns[0].Name)
}

func TestCreateTableAsSelect(t *testing.T) {
	t.Run("without deriver", func(t *testing.T) {
		b := catalog.NewBuilder()
		require.NoError(t, b.RegisterTable("CREATE TABLE a (x INT)"))
		err := b.RegisterTable("CREATE TABLE c AS SELECT x FROM a")
		assert.True(t, core.IsKind(err, core.KindUnsupportedStatement))
	})

	t.Run("with deriver", func(t *testing.T) {
		var seen int
		derive := func(cat *catalog.Catalog, _ *core.SelectStmt) ([]core.Column, error) {
			seen = cat.Len()
			return []core.Column{{Name: "x", Type: core.Nullable(core.Integer)}}, nil
		}
		cat := build(t, "CREATE TABLE a (x INT); CREATE TABLE c AS SELECT x FROM a", catalog.WithDeriver(derive))
		assert.Equal(t, 1, seen)
		tbl, err := cat.LookupTable("c")
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, tbl.ColumnNames())
	})
}

func TestMapType(t *testing.T) {
	tests := []struct {
		decl string
		want core.BaseType
	}{
		{"INTEGER", core.Integer},
		{"unsigned big int", core.Integer},
		{"NVARCHAR(100)", core.Text},
		{"character varying", core.Text},
		{"double", core.Real},
		{"numeric(10,2)", core.Real},
		{"boolean", core.Bool},
		{"timestamp with time zone", core.Text},
		{"interval", core.Text},
		{"point", core.Unknown},
		{"int[]", core.Unknown},
		{"", core.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.MapType(tt.decl))
		})
	}
}
