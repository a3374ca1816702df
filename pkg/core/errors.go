package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/token"
)

// ErrorKind names a class of analysis failure.
type ErrorKind string

// Analysis error kinds.
const (
	KindUnknownTable               ErrorKind = "unknown_table"
	KindUnknownColumn              ErrorKind = "unknown_column"
	KindAmbiguousColumn            ErrorKind = "ambiguous_column"
	KindDuplicateAlias             ErrorKind = "duplicate_alias"
	KindMissingMandatoryColumns    ErrorKind = "missing_mandatory_columns"
	KindCannotInferPlaceholderType ErrorKind = "cannot_infer_placeholder_type"
	KindIncompatibleSetOperation   ErrorKind = "incompatible_set_operation"
	KindValueCountMismatch         ErrorKind = "value_count_mismatch"
	KindRecursiveTypeMismatch      ErrorKind = "recursive_type_mismatch"
	KindDuplicateTable             ErrorKind = "duplicate_table"
	KindUnsupportedStatement       ErrorKind = "unsupported_statement"
)

// AnalysisError is a named validation failure. Any of them aborts analysis
// of the statement that produced it.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	// Names carries the offending identifiers (table, column or missing columns).
	Names []string
	Pos   token.Position
}

func (e *AnalysisError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Pos.Line, e.Pos.Column)
	}
	return e.Message
}

// Is matches another *AnalysisError of the same kind, so errors.Is works
// against the Err* sentinels below.
func (e *AnalysisError) Is(target error) bool {
	var t *AnalysisError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is. They only carry a kind.
var (
	ErrUnknownTable               = &AnalysisError{Kind: KindUnknownTable}
	ErrUnknownColumn              = &AnalysisError{Kind: KindUnknownColumn}
	ErrAmbiguousColumn            = &AnalysisError{Kind: KindAmbiguousColumn}
	ErrDuplicateAlias             = &AnalysisError{Kind: KindDuplicateAlias}
	ErrMissingMandatoryColumns    = &AnalysisError{Kind: KindMissingMandatoryColumns}
	ErrCannotInferPlaceholderType = &AnalysisError{Kind: KindCannotInferPlaceholderType}
	ErrIncompatibleSetOperation   = &AnalysisError{Kind: KindIncompatibleSetOperation}
	ErrValueCountMismatch         = &AnalysisError{Kind: KindValueCountMismatch}
	ErrRecursiveTypeMismatch      = &AnalysisError{Kind: KindRecursiveTypeMismatch}
	ErrDuplicateTable             = &AnalysisError{Kind: KindDuplicateTable}
	ErrUnsupportedStatement       = &AnalysisError{Kind: KindUnsupportedStatement}
)

// KindOf returns the kind of an analysis error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err is an analysis error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// UnknownTableError reports a table or alias that is not visible.
func UnknownTableError(name string, pos token.Position) *AnalysisError {
	return &AnalysisError{
		Kind:    KindUnknownTable,
		Message: fmt.Sprintf("unknown table or alias %q", name),
		Names:   []string{name},
		Pos:     pos,
	}
}

// UnknownColumnError reports a column that no visible relation exposes.
func UnknownColumnError(qualifier, column string, pos token.Position) *AnalysisError {
	name := column
	if qualifier != "" {
		name = qualifier + "." + column
	}
	return &AnalysisError{
		Kind:    KindUnknownColumn,
		Message: fmt.Sprintf("unknown column %q", name),
		Names:   []string{name},
		Pos:     pos,
	}
}

// AmbiguousColumnError reports an unqualified column exposed by several relations.
func AmbiguousColumnError(column string, relations []string, pos token.Position) *AnalysisError {
	return &AnalysisError{
		Kind:    KindAmbiguousColumn,
		Message: fmt.Sprintf("ambiguous column reference %q (candidates: %s)", column, strings.Join(relations, ", ")),
		Names:   []string{column},
		Pos:     pos,
	}
}

// DuplicateAliasError reports two relations sharing one name in a FROM scope.
func DuplicateAliasError(alias string, pos token.Position) *AnalysisError {
	return &AnalysisError{
		Kind:    KindDuplicateAlias,
		Message: fmt.Sprintf("duplicate table alias %q", alias),
		Names:   []string{alias},
		Pos:     pos,
	}
}

// MissingMandatoryColumnsError reports NOT NULL columns without defaults left out of an INSERT.
func MissingMandatoryColumnsError(table string, columns []string, pos token.Position) *AnalysisError {
	return &AnalysisError{
		Kind:    KindMissingMandatoryColumns,
		Message: fmt.Sprintf("insert into %q is missing mandatory columns: %s", table, strings.Join(columns, ", ")),
		Names:   columns,
		Pos:     pos,
	}
}

// CannotInferPlaceholderError reports a parameter marker outside any typed context.
func CannotInferPlaceholderError(p *Placeholder) *AnalysisError {
	return &AnalysisError{
		Kind:    KindCannotInferPlaceholderType,
		Message: fmt.Sprintf("cannot infer type of parameter %d (%s)", p.Index, p.Label),
		Names:   []string{p.Label},
		Pos:     p.Pos(),
	}
}
