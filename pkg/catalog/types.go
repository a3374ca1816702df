package catalog

import (
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
)

// typeRule maps a substring of an upper-cased declared type to a base type.
// Rules are tried in order; the first match wins.
type typeRule struct {
	contains string
	base     core.BaseType
}

var typeRules = []typeRule{
	{"BOOL", core.Bool},
	{"INTERVAL", core.Text},
	{"POINT", core.Unknown},
	{"INT", core.Integer},
	{"SERIAL", core.Integer},
	{"CHAR", core.Text},
	{"CLOB", core.Text},
	{"TEXT", core.Text},
	{"STRING", core.Text},
	{"REAL", core.Real},
	{"FLOA", core.Real},
	{"DOUB", core.Real},
	{"NUMERIC", core.Real},
	{"DECIMAL", core.Real},
	{"MONEY", core.Real},
	{"DATE", core.Text},
	{"TIME", core.Text},
	{"UUID", core.Text},
	{"JSON", core.Text},
}

// MapType maps a declared SQL type name to a BaseType using SQLite affinity
// rules extended with common Postgres and DuckDB names. A missing or
// unrecognized name maps to Unknown, as do array types.
func MapType(decl string) core.BaseType {
	decl = strings.ToUpper(strings.TrimSpace(decl))
	if decl == "" || strings.HasSuffix(decl, "]") {
		return core.Unknown
	}
	// VARCHAR(255), NUMERIC(10, 2)
	if i := strings.IndexByte(decl, '('); i >= 0 {
		decl = decl[:i]
	}
	for _, r := range typeRules {
		if strings.Contains(decl, r.contains) {
			return r.base
		}
	}
	return core.Unknown
}

// isSerial reports whether decl is a Postgres auto-incrementing integer type.
func isSerial(decl string) bool {
	switch strings.ToUpper(strings.TrimSpace(decl)) {
	case "SERIAL", "SMALLSERIAL", "BIGSERIAL", "SERIAL2", "SERIAL4", "SERIAL8":
		return true
	}
	return false
}

// isRowidAlias reports whether a primary key column of this declared type
// aliases the SQLite rowid. Only the exact name INTEGER does.
func isRowidAlias(decl string) bool {
	return strings.EqualFold(strings.TrimSpace(decl), "INTEGER")
}
