package dialect

import "github.com/leapstack-labs/sqltype/pkg/core"

// SQLite accepts every SQLite marker form: ?, ?NNN, :name, @name and $name.
var SQLite = &Dialect{
	Name:           "sqlite",
	DefaultSchema:  "main",
	Placeholder:    core.PlaceholderQuestion,
	Accepted:       []core.PlaceholderStyle{core.PlaceholderQuestion, core.PlaceholderNamed},
	BacktickIdents: true,
	BracketIdents:  true,
	Normalization:  NormCaseInsensitive,
}

// Postgres uses $N markers and supports :: casts.
var Postgres = &Dialect{
	Name:          "postgres",
	DefaultSchema: "public",
	Placeholder:   core.PlaceholderDollar,
	Accepted:      []core.PlaceholderStyle{core.PlaceholderDollar},
	CastOperator:  true,
	Normalization: NormLowercase,
}

// DuckDB accepts both ? and $N markers and :: casts.
var DuckDB = &Dialect{
	Name:          "duckdb",
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
	Accepted:      []core.PlaceholderStyle{core.PlaceholderQuestion, core.PlaceholderDollar},
	CastOperator:  true,
	Normalization: NormCaseInsensitive,
}

// ANSI is the strict fallback: ? markers only.
var ANSI = &Dialect{
	Name:          "ansi",
	DefaultSchema: "",
	Placeholder:   core.PlaceholderQuestion,
	Accepted:      []core.PlaceholderStyle{core.PlaceholderQuestion},
	Normalization: NormUppercase,
}

func init() {
	Register(SQLite)
	Register(Postgres)
	Register(DuckDB)
	Register(ANSI)
}
