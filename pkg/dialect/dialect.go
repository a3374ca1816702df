// Package dialect provides SQL dialect configuration.
//
// A dialect controls the lexical surface the parser accepts (placeholder
// markers, the :: cast operator, identifier folding) and the default schema
// used by introspecting schema loaders. Builtin dialects register themselves
// in init; use Get to look one up by name.
package dialect

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
)

// Normalization describes how unquoted identifiers are folded.
type Normalization int

// Normalization strategies.
const (
	NormCaseInsensitive Normalization = iota // compare case-insensitively, keep as written
	NormLowercase                            // fold unquoted identifiers to lowercase
	NormUppercase                            // fold unquoted identifiers to uppercase
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name string

	// DefaultSchema is the schema used when a table reference is unqualified
	// ("main" for SQLite and DuckDB, "public" for Postgres).
	DefaultSchema string

	// Placeholder is the canonical marker style, used by FormatPlaceholder.
	Placeholder core.PlaceholderStyle
	// Accepted lists every marker style the lexer recognizes.
	Accepted []core.PlaceholderStyle

	// CastOperator enables postfix expr::type casts.
	CastOperator bool
	// BacktickIdents enables `quoted` identifiers; BracketIdents enables [quoted].
	BacktickIdents bool
	BracketIdents  bool

	Normalization Normalization
}

// NormalizeName normalizes an identifier according to dialect rules.
// Lookups in scopes and catalogs always compare normalized names.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Normalization {
	case NormUppercase:
		return strings.ToUpper(name)
	default:
		return strings.ToLower(name)
	}
}

// Accepts reports whether the lexer should recognize a marker style.
func (d *Dialect) Accepts(style core.PlaceholderStyle) bool {
	for _, s := range d.Accepted {
		if s == style {
			return true
		}
	}
	return false
}

// FormatPlaceholder renders the n-th (1-based) parameter marker.
func (d *Dialect) FormatPlaceholder(n int) string {
	if d.Placeholder == core.PlaceholderDollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d *Dialect) String() string {
	return d.Name
}
