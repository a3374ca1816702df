package parser_test

import (
	"testing"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/leapstack-labs/sqltype/pkg/parser"
	"github.com/leapstack-labs/sqltype/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSelect(t *testing.T, sql string) *core.SelectStmt {
	t.Helper()
	stmt, err := parser.Parse(sql, dialect.SQLite)
	require.NoError(t, err)
	sel, ok := stmt.(*core.SelectStmt)
	require.True(t, ok, "expected *core.SelectStmt, got %T", stmt)
	return sel
}

// ---------- SELECT Tests ----------

func TestParseSelectList(t *testing.T) {
	sel := parseSelect(t, "SELECT *, u.*, id, name AS n, age + 1 years, 'x' FROM users u")
	cols := sel.Body.Left.Columns
	require.Len(t, cols, 6)

	assert.True(t, cols[0].Star)
	assert.Equal(t, "u", cols[1].TableStar)

	ref, ok := cols[2].Expr.(*core.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "id", ref.Column)
	assert.Empty(t, cols[2].Alias)

	assert.Equal(t, "n", cols[3].Alias)
	assert.Equal(t, "years", cols[4].Alias)
	assert.Equal(t, "age + 1", cols[4].Text)
	assert.Equal(t, "'x'", cols[5].Text)

	tbl, ok := sel.Body.Left.From.Source.(*core.TableName)
	require.True(t, ok)
	assert.Equal(t, "users", tbl.Name)
	assert.Equal(t, "u", tbl.Alias)
	assert.Equal(t, "u", tbl.EffectiveName())
}

func TestParseClauses(t *testing.T) {
	sel := parseSelect(t, `SELECT DISTINCT dept, count(*) FROM emp
		WHERE salary > 10 GROUP BY dept HAVING count(*) > 1
		ORDER BY 2 DESC NULLS LAST LIMIT 10 OFFSET 5`)

	core0 := sel.Body.Left
	assert.True(t, core0.Distinct)
	assert.NotNil(t, core0.Where)
	assert.Len(t, core0.GroupBy, 1)
	assert.NotNil(t, core0.Having)

	require.Len(t, sel.Body.OrderBy, 1)
	assert.True(t, sel.Body.OrderBy[0].Desc)
	require.NotNil(t, sel.Body.OrderBy[0].NullsFirst)
	assert.False(t, *sel.Body.OrderBy[0].NullsFirst)

	limit, ok := sel.Body.Limit.(*core.Literal)
	require.True(t, ok)
	assert.Equal(t, "10", limit.Value)
	offset, ok := sel.Body.Offset.(*core.Literal)
	require.True(t, ok)
	assert.Equal(t, "5", offset.Value)
}

func TestParseLimitCommaForm(t *testing.T) {
	sel := parseSelect(t, "SELECT a FROM t LIMIT 5, 10")
	assert.Equal(t, "10", sel.Body.Limit.(*core.Literal).Value)
	assert.Equal(t, "5", sel.Body.Offset.(*core.Literal).Value)
}

func TestParseSetOperations(t *testing.T) {
	sel := parseSelect(t, "SELECT a FROM t UNION ALL SELECT b FROM u EXCEPT SELECT c FROM v ORDER BY 1")
	arms := sel.Body.Arms()
	require.Len(t, arms, 3)

	assert.Equal(t, core.SetOpUnion, sel.Body.Op)
	assert.True(t, sel.Body.All)
	require.NotNil(t, sel.Body.Right)
	assert.Equal(t, core.SetOpExcept, sel.Body.Right.Op)
	assert.False(t, sel.Body.Right.All)
	assert.Len(t, sel.Body.OrderBy, 1, "ORDER BY applies to the whole compound")
}

func TestParseValues(t *testing.T) {
	sel := parseSelect(t, "VALUES (1, 'a'), (2, NULL)")
	require.Len(t, sel.Body.Left.Values, 2)
	assert.Len(t, sel.Body.Left.Values[1], 2)
}

func TestParseWith(t *testing.T) {
	sel := parseSelect(t, `WITH RECURSIVE cnt(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM cnt WHERE x < 10),
		other AS NOT MATERIALIZED (SELECT 2)
		SELECT x FROM cnt`)
	require.NotNil(t, sel.With)
	assert.True(t, sel.With.Recursive)
	require.Len(t, sel.With.CTEs, 2)
	assert.Equal(t, "cnt", sel.With.CTEs[0].Name)
	assert.Equal(t, []string{"x"}, sel.With.CTEs[0].Columns)
	assert.Len(t, sel.With.CTEs[0].Select.Body.Arms(), 2)
	assert.Equal(t, "other", sel.With.CTEs[1].Name)
}

// ---------- FROM Tests ----------

func TestParseJoins(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		wantType core.JoinType
		natural  bool
		using    []string
		hasOn    bool
	}{
		{name: "plain join", sql: "SELECT * FROM a JOIN b ON a.id = b.id", wantType: core.JoinInner, hasOn: true},
		{name: "inner join", sql: "SELECT * FROM a INNER JOIN b ON a.id = b.id", wantType: core.JoinInner, hasOn: true},
		{name: "left outer join", sql: "SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id", wantType: core.JoinLeft, hasOn: true},
		{name: "right join", sql: "SELECT * FROM a RIGHT JOIN b USING (id)", wantType: core.JoinRight, using: []string{"id"}},
		{name: "full join", sql: "SELECT * FROM a FULL JOIN b ON true", wantType: core.JoinFull, hasOn: true},
		{name: "cross join", sql: "SELECT * FROM a CROSS JOIN b", wantType: core.JoinCross},
		{name: "comma join", sql: "SELECT * FROM a, b", wantType: core.JoinComma},
		{name: "natural join", sql: "SELECT * FROM a NATURAL JOIN b", wantType: core.JoinInner, natural: true},
		{name: "natural left join", sql: "SELECT * FROM a NATURAL LEFT JOIN b", wantType: core.JoinLeft, natural: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := parseSelect(t, tt.sql)
			from := sel.Body.Left.From
			require.NotNil(t, from)
			require.Len(t, from.Joins, 1)

			join := from.Joins[0]
			assert.Equal(t, tt.wantType, join.Type)
			assert.Equal(t, tt.natural, join.Natural)
			assert.Equal(t, tt.using, join.Using)
			assert.Equal(t, tt.hasOn, join.Condition != nil)
		})
	}
}

func TestNaturalJoinRejectsOnClause(t *testing.T) {
	_, err := parser.Parse("SELECT * FROM t1 NATURAL JOIN t2 ON t1.id = t2.id", dialect.SQLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NATURAL JOIN cannot have ON")
}

func TestParseDerivedAndParenTables(t *testing.T) {
	sel := parseSelect(t, "SELECT * FROM (SELECT id FROM users) AS sub, (a JOIN b ON a.x = b.x)")
	derived, ok := sel.Body.Left.From.Source.(*core.DerivedTable)
	require.True(t, ok)
	assert.Equal(t, "sub", derived.Alias)

	require.Len(t, sel.Body.Left.From.Joins, 1)
	paren, ok := sel.Body.Left.From.Joins[0].Right.(*core.ParenTable)
	require.True(t, ok)
	assert.Len(t, paren.From.Joins, 1)
}

func TestParseSchemaQualifiedTable(t *testing.T) {
	sel := parseSelect(t, "SELECT main.users.id FROM main.users INDEXED BY idx_users")
	tbl := sel.Body.Left.From.Source.(*core.TableName)
	assert.Equal(t, "main", tbl.Schema)
	assert.Equal(t, "users", tbl.Name)
	assert.Empty(t, tbl.Alias)

	ref := sel.Body.Left.Columns[0].Expr.(*core.ColumnRef)
	assert.Equal(t, "users", ref.Table)
	assert.Equal(t, "id", ref.Column)
}

// ---------- Expression Tests ----------

func TestParseExprPrecedence(t *testing.T) {
	expr, err := parser.ParseExpr("a OR b AND NOT c = 1 + 2 * 3", dialect.SQLite)
	require.NoError(t, err)

	or, ok := expr.(*core.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.OR, or.Op)

	and, ok := or.Right.(*core.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.AND, and.Op)

	not, ok := and.Right.(*core.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.NOT, not.Op)

	eq, ok := not.Expr.(*core.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.EQ, eq.Op)

	plus, ok := eq.Right.(*core.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.PLUS, plus.Op)
	mul, ok := plus.Right.(*core.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.STAR, mul.Op)
}

func TestParseSpecialForms(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(t *testing.T, e core.Expr)
	}{
		{"is null", "x IS NULL", func(t *testing.T, e core.Expr) {
			n := e.(*core.IsNullExpr)
			assert.False(t, n.Not)
		}},
		{"is not null", "x IS NOT NULL", func(t *testing.T, e core.Expr) {
			assert.True(t, e.(*core.IsNullExpr).Not)
		}},
		{"notnull postfix", "x NOTNULL", func(t *testing.T, e core.Expr) {
			assert.True(t, e.(*core.IsNullExpr).Not)
		}},
		{"not null postfix", "x NOT NULL", func(t *testing.T, e core.Expr) {
			assert.True(t, e.(*core.IsNullExpr).Not)
		}},
		{"is distinct from", "x IS DISTINCT FROM y", func(t *testing.T, e core.Expr) {
			assert.True(t, e.(*core.IsExpr).Not)
		}},
		{"is not distinct from", "x IS NOT DISTINCT FROM y", func(t *testing.T, e core.Expr) {
			assert.False(t, e.(*core.IsExpr).Not)
		}},
		{"not in list", "x NOT IN (1, 2, 3)", func(t *testing.T, e core.Expr) {
			in := e.(*core.InExpr)
			assert.True(t, in.Not)
			assert.Len(t, in.Values, 3)
		}},
		{"in subquery", "x IN (SELECT id FROM t)", func(t *testing.T, e core.Expr) {
			assert.NotNil(t, e.(*core.InExpr).Query)
		}},
		{"between", "x BETWEEN 1 AND 10 AND y", func(t *testing.T, e core.Expr) {
			and := e.(*core.BinaryExpr)
			assert.Equal(t, token.AND, and.Op)
			b := and.Left.(*core.BetweenExpr)
			assert.False(t, b.Not)
		}},
		{"not like escape", "x NOT LIKE 'a%' ESCAPE '\\'", func(t *testing.T, e core.Expr) {
			l := e.(*core.LikeExpr)
			assert.True(t, l.Not)
			assert.Equal(t, token.LIKE, l.Op)
			assert.NotNil(t, l.Escape)
		}},
		{"glob", "x GLOB 'a*'", func(t *testing.T, e core.Expr) {
			assert.Equal(t, token.GLOB, e.(*core.LikeExpr).Op)
		}},
		{"searched case", "CASE WHEN a THEN 1 ELSE 2 END", func(t *testing.T, e core.Expr) {
			c := e.(*core.CaseExpr)
			assert.Nil(t, c.Operand)
			assert.Len(t, c.Whens, 1)
			assert.NotNil(t, c.Else)
		}},
		{"simple case", "CASE a WHEN 1 THEN 'x' WHEN 2 THEN 'y' END", func(t *testing.T, e core.Expr) {
			c := e.(*core.CaseExpr)
			assert.NotNil(t, c.Operand)
			assert.Len(t, c.Whens, 2)
			assert.Nil(t, c.Else)
		}},
		{"cast", "CAST(x AS VARCHAR(20))", func(t *testing.T, e core.Expr) {
			assert.Equal(t, "VARCHAR(20)", e.(*core.CastExpr).TypeName)
		}},
		{"double colon cast", "x::double precision", func(t *testing.T, e core.Expr) {
			assert.Equal(t, "double precision", e.(*core.CastExpr).TypeName)
		}},
		{"not exists", "NOT EXISTS (SELECT 1)", func(t *testing.T, e core.Expr) {
			assert.True(t, e.(*core.ExistsExpr).Not)
		}},
		{"scalar subquery", "(SELECT max(id) FROM t)", func(t *testing.T, e core.Expr) {
			assert.NotNil(t, e.(*core.SubqueryExpr).Select)
		}},
		{"row value", "(1, 2)", func(t *testing.T, e core.Expr) {
			assert.Len(t, e.(*core.RowExpr).Values, 2)
		}},
		{"collate", "name COLLATE NOCASE", func(t *testing.T, e core.Expr) {
			assert.Equal(t, "NOCASE", e.(*core.CollateExpr).Collation)
		}},
		{"concat", "a || b", func(t *testing.T, e core.Expr) {
			assert.Equal(t, token.DPIPE, e.(*core.BinaryExpr).Op)
		}},
		{"unary minus", "-x", func(t *testing.T, e core.Expr) {
			assert.Equal(t, token.MINUS, e.(*core.UnaryExpr).Op)
		}},
		{"niladic function", "CURRENT_TIMESTAMP", func(t *testing.T, e core.Expr) {
			assert.Equal(t, "CURRENT_TIMESTAMP", e.(*core.FuncCall).Name)
		}},
		{"keyword function", "replace(a, 'x', 'y')", func(t *testing.T, e core.Expr) {
			fn := e.(*core.FuncCall)
			assert.Equal(t, "REPLACE", fn.Name)
			assert.Len(t, fn.Args, 3)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.sql, dialect.Postgres)
			require.NoError(t, err)
			tt.check(t, expr)
		})
	}
}

func TestParseFunctionCalls(t *testing.T) {
	expr, err := parser.ParseExpr("count(DISTINCT x) FILTER (WHERE x > 0) OVER (PARTITION BY g ORDER BY y ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)", dialect.SQLite)
	require.NoError(t, err)

	fn := expr.(*core.FuncCall)
	assert.Equal(t, "COUNT", fn.Name)
	assert.True(t, fn.Distinct)
	assert.NotNil(t, fn.Filter)
	require.NotNil(t, fn.Window)
	assert.Len(t, fn.Window.PartitionBy, 1)
	assert.Len(t, fn.Window.OrderBy, 1)
	assert.Equal(t, "ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW", fn.Window.Frame)

	star, err := parser.ParseExpr("count(*)", dialect.SQLite)
	require.NoError(t, err)
	assert.True(t, star.(*core.FuncCall).Star)

	named, err := parser.ParseExpr("row_number() OVER w", dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, "w", named.(*core.FuncCall).Window.Name)
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		sql  string
		want core.LiteralType
	}{
		{"42", core.LiteralInteger},
		{"0x1E", core.LiteralInteger},
		{"3.14", core.LiteralReal},
		{".5", core.LiteralReal},
		{"1e10", core.LiteralReal},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.sql, dialect.SQLite)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.(*core.Literal).Type)
		})
	}
}

// ---------- Placeholder Tests ----------

func collectPlaceholders(e core.Expr, out *[]*core.Placeholder) {
	switch n := e.(type) {
	case *core.Placeholder:
		*out = append(*out, n)
	case *core.BinaryExpr:
		collectPlaceholders(n.Left, out)
		collectPlaceholders(n.Right, out)
	}
}

func TestPlaceholderNumbering(t *testing.T) {
	tests := []struct {
		name       string
		d          *dialect.Dialect
		sql        string
		wantStyle  []core.PlaceholderStyle
		wantLabel  []string
		wantNumber []int
	}{
		{
			name:       "question marks",
			d:          dialect.SQLite,
			sql:        "? + ?",
			wantStyle:  []core.PlaceholderStyle{core.PlaceholderQuestion, core.PlaceholderQuestion},
			wantLabel:  []string{"?", "?"},
			wantNumber: []int{0, 0},
		},
		{
			name:       "numbered question marks",
			d:          dialect.SQLite,
			sql:        "?2 + ?1",
			wantStyle:  []core.PlaceholderStyle{core.PlaceholderQuestion, core.PlaceholderQuestion},
			wantLabel:  []string{"?2", "?1"},
			wantNumber: []int{2, 1},
		},
		{
			name:       "dollar markers keep their label",
			d:          dialect.Postgres,
			sql:        "$2 + $1",
			wantStyle:  []core.PlaceholderStyle{core.PlaceholderDollar, core.PlaceholderDollar},
			wantLabel:  []string{"$2", "$1"},
			wantNumber: []int{2, 1},
		},
		{
			name:       "named markers",
			d:          dialect.SQLite,
			sql:        ":a + @b",
			wantStyle:  []core.PlaceholderStyle{core.PlaceholderNamed, core.PlaceholderNamed},
			wantLabel:  []string{":a", "@b"},
			wantNumber: []int{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.sql, tt.d)
			require.NoError(t, err)

			var got []*core.Placeholder
			collectPlaceholders(expr, &got)
			require.Len(t, got, len(tt.wantLabel))
			for i, ph := range got {
				assert.Equal(t, i+1, ph.Index, "textual occurrence order")
				assert.Equal(t, tt.wantStyle[i], ph.Style)
				assert.Equal(t, tt.wantLabel[i], ph.Label)
				assert.Equal(t, tt.wantNumber[i], ph.Number)
			}
		})
	}
}

func TestPlaceholderNumberingRestartsPerStatement(t *testing.T) {
	stmts, err := parser.ParseScript("SELECT ? + ?; SELECT ?", dialect.SQLite)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	second := stmts[1].(*core.SelectStmt)
	ph := second.Body.Left.Columns[0].Expr.(*core.Placeholder)
	assert.Equal(t, 1, ph.Index)
}

// ---------- DML Tests ----------

func TestParseInsert(t *testing.T) {
	stmt, err := parser.Parse(`INSERT OR IGNORE INTO users (id, name) VALUES (?, ?), (3, 'c')
		ON CONFLICT (id) DO UPDATE SET name = excluded.name WHERE id > 0
		RETURNING id`, dialect.SQLite)
	require.NoError(t, err)

	ins := stmt.(*core.InsertStmt)
	assert.Equal(t, core.ConflictIgnore, ins.Conflict)
	assert.Equal(t, "users", ins.Table.Name)
	assert.Equal(t, []string{"id", "name"}, ins.Columns)
	require.Len(t, ins.Values, 2)
	require.NotNil(t, ins.Upsert)
	assert.Equal(t, []string{"id"}, ins.Upsert.Target)
	require.Len(t, ins.Upsert.Set, 1)
	assert.Equal(t, "name", ins.Upsert.Set[0].Column)
	assert.NotNil(t, ins.Upsert.Where)
	assert.Len(t, ins.Returning, 1)
}

func TestParseInsertForms(t *testing.T) {
	stmt, err := parser.Parse("REPLACE INTO t DEFAULT VALUES", dialect.SQLite)
	require.NoError(t, err)
	ins := stmt.(*core.InsertStmt)
	assert.Equal(t, core.ConflictReplace, ins.Conflict)
	assert.True(t, ins.DefaultValues)

	stmt, err = parser.Parse("WITH s AS (SELECT 1 AS a) INSERT INTO t (a) SELECT a FROM s ON CONFLICT DO NOTHING", dialect.SQLite)
	require.NoError(t, err)
	ins = stmt.(*core.InsertStmt)
	assert.NotNil(t, ins.With)
	assert.NotNil(t, ins.Select)
	require.NotNil(t, ins.Upsert)
	assert.True(t, ins.Upsert.DoNothing)
}

func TestParseUpdateAndDelete(t *testing.T) {
	stmt, err := parser.Parse("UPDATE users AS u SET name = ?, (a, b) = (1, 2) FROM other o WHERE u.id = o.id", dialect.SQLite)
	require.NoError(t, err)
	upd := stmt.(*core.UpdateStmt)
	assert.Equal(t, "u", upd.Table.Alias)
	require.Len(t, upd.Set, 3)
	assert.Equal(t, "b", upd.Set[2].Column)
	assert.NotNil(t, upd.From)
	assert.NotNil(t, upd.Where)

	stmt, err = parser.Parse("DELETE FROM users WHERE id = $1 RETURNING *", dialect.Postgres)
	require.NoError(t, err)
	del := stmt.(*core.DeleteStmt)
	assert.Equal(t, "users", del.Table.Name)
	require.Len(t, del.Returning, 1)
	assert.True(t, del.Returning[0].Star)
}

// ---------- Script & Raw Statement Tests ----------

func TestParseScriptRawStatements(t *testing.T) {
	script := `
		PRAGMA foreign_keys = ON;
		CREATE TABLE t (id INTEGER PRIMARY KEY);
		CREATE UNIQUE INDEX idx ON t (id);
		CREATE TRIGGER trg AFTER INSERT ON t BEGIN
			UPDATE t SET id = CASE WHEN id > 0 THEN id ELSE 0 END;
			SELECT 1;
		END;
		DROP TABLE IF EXISTS old;
	`
	stmts, err := parser.ParseScript(script, dialect.SQLite)
	require.NoError(t, err)
	require.Len(t, stmts, 5)

	assert.Equal(t, "PRAGMA", stmts[0].(*core.RawStmt).Keyword)
	assert.IsType(t, &core.CreateTableStmt{}, stmts[1])
	assert.Equal(t, "CREATE INDEX", stmts[2].(*core.RawStmt).Keyword)
	assert.Equal(t, "CREATE TRIGGER", stmts[3].(*core.RawStmt).Keyword)
	assert.Equal(t, "DROP TABLE", stmts[4].(*core.RawStmt).Keyword)
}

func TestSplitStatements(t *testing.T) {
	parts := parser.SplitStatements("SELECT ';'; -- c;\nSELECT 2;;", dialect.SQLite)
	assert.Equal(t, []string{"SELECT ';'", "SELECT 2"}, parts)
}

// ---------- Error Tests ----------

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		wantLine   int
		wantColumn int
		contains   string
	}{
		{name: "empty", sql: "  ;", wantLine: 1, wantColumn: 4, contains: "empty statement"},
		{name: "missing expression", sql: "SELECT FROM t", wantLine: 1, wantColumn: 8, contains: "expected expression"},
		{name: "trailing input", sql: "SELECT 1 2", wantLine: 1, wantColumn: 10, contains: "after end of statement"},
		{name: "second line", sql: "SELECT a\nFROM t WHERE", wantLine: 2, wantColumn: 13, contains: "end of input"},
		{name: "unterminated string", sql: "SELECT 'abc", wantLine: 1, wantColumn: 8, contains: "unterminated string"},
		{name: "unexpected char", sql: "SELECT a # b", wantLine: 1, wantColumn: 10, contains: "unexpected character"},
		{name: "dollar markers outside postgres", sql: "SELECT $1", wantLine: 1, wantColumn: 8, contains: "unexpected character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.sql, dialect.ANSI)
			require.Error(t, err)

			var perr *parser.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantLine, perr.Pos.Line)
			assert.Equal(t, tt.wantColumn, perr.Pos.Column)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSpans(t *testing.T) {
	sql := "SELECT a,\n  b + 1 FROM t"
	sel := parseSelect(t, sql)
	bin := sel.Body.Left.Columns[1].Expr.(*core.BinaryExpr)
	assert.Equal(t, 2, bin.Pos().Line)
	assert.Equal(t, 3, bin.Pos().Column)
	assert.Equal(t, "b + 1", bin.Span.Text(sql))
}
