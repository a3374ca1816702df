package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteCasts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no casts", "SELECT a FROM t", "SELECT a FROM t"},
		{"identifier", "SELECT id::text FROM t", "SELECT CAST(id AS text) FROM t"},
		{"qualified", "SELECT t.id::int FROM t", "SELECT CAST(t.id AS int) FROM t"},
		{"spaces around operator", "SELECT x :: int", "SELECT CAST(x AS int)"},
		{"parenthesized", "SELECT (a + b)::numeric(10,2)", "SELECT CAST((a + b) AS numeric(10,2))"},
		{"function call", "SELECT count(*)::int FROM t", "SELECT CAST(count(*) AS int) FROM t"},
		{"chained", "SELECT x::int::text", "SELECT CAST(CAST(x AS int) AS text)"},
		{"string literal", "SELECT 'it''s'::text", "SELECT CAST('it''s' AS text)"},
		{"quoted identifier", `SELECT "Col"::int FROM t`, `SELECT CAST("Col" AS int) FROM t`},
		{"array type", "SELECT tags::text[] FROM t", "SELECT CAST(tags AS text[]) FROM t"},
		{"subscript", "SELECT arr[1]::int FROM t", "SELECT CAST(arr[1] AS int) FROM t"},
		{"dollar param", "WHERE id = $1::int", "WHERE id = CAST($1 AS int)"},
		{"named param", "WHERE id = :id::int", "WHERE id = CAST(:id AS int)"},
		{"keyword before group", "SELECT(x)::int", "SELECT CAST((x) AS int)"},
		{"inside string untouched", "SELECT 'a::b'", "SELECT 'a::b'"},
		{"string then cast", "SELECT '::', x::int", "SELECT '::', CAST(x AS int)"},
		{"line comment", "SELECT x -- y::int\n, z::int", "SELECT x -- y::int\n, CAST(z AS int)"},
		{"block comment", "SELECT /* y::int */ z::int", "SELECT /* y::int */ CAST(z AS int)"},
		{"no type", "SELECT x::", "SELECT x::"},
		{"no operand", "SELECT ::int", "SELECT ::int"},
		{"in predicate", "WHERE a::int IN (1, 2)", "WHERE CAST(a AS int) IN (1, 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteCasts(tt.in))
		})
	}
}

func TestRewriteCastsIdempotent(t *testing.T) {
	inputs := []string{
		"SELECT id::text, (a*2)::real FROM t WHERE b::int > ?",
		"SELECT 'x::y' -- ::z",
		"SELECT 1",
	}
	for _, in := range inputs {
		once := RewriteCasts(in)
		assert.Equal(t, once, RewriteCasts(once), in)
	}
}
