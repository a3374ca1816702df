package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqltype/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func newLexError(pos token.Position, format string, args ...any) *LexError {
	return &LexError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnexpectedChar     = "unexpected character %q"
	ErrUnterminatedString = "unterminated string literal"
	ErrUnterminatedIdent  = "unterminated quoted identifier"
	ErrExpectedExpression = "expected expression, got %s"
	ErrExpectedIdentifier = "expected identifier, got %s"
	ErrExpectedStatement  = "expected statement, got %s"
	ErrTrailingInput      = "unexpected %s after end of statement"
	ErrEmptyStatement     = "empty statement"
)
