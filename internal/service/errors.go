package service

import (
	"errors"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/parser"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Error kinds for failures that are not analysis errors.
const (
	KindParseError core.ErrorKind = "parse_error"
	KindInternal   core.ErrorKind = "error"
)

// ErrorInfo is the reportable form of a failed analysis.
type ErrorInfo struct {
	Kind    core.ErrorKind `json:"kind" yaml:"kind"`
	Message string         `json:"message" yaml:"message"`
	Names   []string       `json:"names,omitempty" yaml:"names,omitempty"`
	Line    int            `json:"line,omitempty" yaml:"line,omitempty"`
	Column  int            `json:"column,omitempty" yaml:"column,omitempty"`
}

func (e ErrorInfo) Error() string {
	return e.Message
}

// Describe classifies err. Analysis errors keep their kind and names;
// parse and lex errors become parse_error.
func Describe(err error) ErrorInfo {
	var (
		ae *core.AnalysisError
		pe *parser.ParseError
		le *parser.LexError
	)
	switch {
	case errors.As(err, &ae):
		return withPos(ErrorInfo{Kind: ae.Kind, Message: ae.Message, Names: ae.Names}, ae.Pos)
	case errors.As(err, &pe):
		return withPos(ErrorInfo{Kind: KindParseError, Message: pe.Message}, pe.Pos)
	case errors.As(err, &le):
		return withPos(ErrorInfo{Kind: KindParseError, Message: le.Message}, le.Pos)
	default:
		return ErrorInfo{Kind: KindInternal, Message: err.Error()}
	}
}

func withPos(info ErrorInfo, pos token.Position) ErrorInfo {
	if pos.IsValid() {
		info.Line, info.Column = pos.Line, pos.Column
	}
	return info
}

// IsStatementError reports whether err is a failure of the statement
// itself (analysis or parse) rather than of the request.
func IsStatementError(err error) bool {
	return Describe(err).Kind != KindInternal
}
