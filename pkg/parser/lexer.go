package parser

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)

	dialect *dialect.Dialect

	errors []*LexError
}

// NewLexer creates a new dialect-aware Lexer for the given input.
// A nil dialect lexes as SQLite.
func NewLexer(input string, d *dialect.Dialect) *Lexer {
	if d == nil {
		d = dialect.SQLite
	}
	l := &Lexer{
		input:   input,
		line:    1,
		col:     0,
		dialect: d,
	}
	l.readChar()
	return l
}

// Errors returns lexical errors collected so far.
func (l *Lexer) Errors() []*LexError {
	return l.errors
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the position of the current character.
func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	tok := l.scan()
	tok.End = l.pos
	return tok
}

func (l *Lexer) scan() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	tok := token.Token{Pos: pos}

	if l.pos >= len(l.input) {
		tok.Type = token.EOF
		return tok
	}

	switch l.ch {
	case '+':
		return l.single(token.PLUS, pos)
	case '-':
		return l.single(token.MINUS, pos)
	case '*':
		return l.single(token.STAR, pos)
	case '/':
		return l.single(token.SLASH, pos)
	case '%':
		return l.single(token.PERCENT, pos)
	case '~':
		return l.single(token.TILDE, pos)
	case '&':
		return l.single(token.AMP, pos)
	case '.':
		if isDigit(l.peekChar()) {
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			return tok
		}
		return l.single(token.DOT, pos)
	case ',':
		return l.single(token.COMMA, pos)
	case ';':
		return l.single(token.SEMI, pos)
	case '(':
		return l.single(token.LPAREN, pos)
	case ')':
		return l.single(token.RPAREN, pos)
	case '=':
		if l.peekChar() == '=' {
			return l.double(token.EQ, "==", pos)
		}
		return l.single(token.EQ, pos)
	case '<':
		switch l.peekChar() {
		case '=':
			return l.double(token.LE, "<=", pos)
		case '>':
			return l.double(token.NE, "<>", pos)
		case '<':
			return l.double(token.LSHIFT, "<<", pos)
		}
		return l.single(token.LT, pos)
	case '>':
		switch l.peekChar() {
		case '=':
			return l.double(token.GE, ">=", pos)
		case '>':
			return l.double(token.RSHIFT, ">>", pos)
		}
		return l.single(token.GT, pos)
	case '!':
		if l.peekChar() == '=' {
			return l.double(token.NE, "!=", pos)
		}
	case '|':
		if l.peekChar() == '|' {
			return l.double(token.DPIPE, "||", pos)
		}
		return l.single(token.PIPE, pos)
	case ':':
		if l.peekChar() == ':' {
			return l.double(token.DCOLON, "::", pos)
		}
		if l.dialect.Accepts(core.PlaceholderNamed) && isIdentStart(l.peekChar()) {
			return l.readNamedParam(pos)
		}
	case '@':
		if l.dialect.Accepts(core.PlaceholderNamed) && isIdentStart(l.peekChar()) {
			return l.readNamedParam(pos)
		}
	case '?':
		if l.dialect.Accepts(core.PlaceholderQuestion) {
			return l.readQuestionParam(pos)
		}
	case '$':
		next := l.peekChar()
		if isDigit(next) && l.dialect.Accepts(core.PlaceholderDollar) {
			return l.readDollarParam(pos)
		}
		if (isIdentStart(next) || isDigit(next)) && l.dialect.Accepts(core.PlaceholderNamed) {
			return l.readNamedParam(pos)
		}
	case '\'':
		return l.readString(pos)
	case '"':
		return l.readQuotedIdentifier(pos, '"')
	case '`':
		if l.dialect.BacktickIdents {
			return l.readQuotedIdentifier(pos, '`')
		}
	case '[':
		if l.dialect.BracketIdents {
			return l.readQuotedIdentifier(pos, ']')
		}
		return l.single(token.LBRACKET, pos)
	case ']':
		return l.single(token.RBRACKET, pos)
	default:
		switch {
		case (l.ch == 'x' || l.ch == 'X') && l.peekChar() == '\'':
			l.readChar()
			tok = l.readString(pos)
			tok.Type = token.BLOB
			return tok
		case isIdentStart(l.ch):
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(strings.ToLower(tok.Literal))
			return tok
		case isDigit(l.ch):
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			return tok
		}
	}

	return l.illegal(pos, ErrUnexpectedChar, string(l.ch))
}

func (l *Lexer) single(t token.TokenType, pos token.Position) token.Token {
	lit := string(l.ch)
	l.readChar()
	return token.Token{Type: t, Literal: lit, Pos: pos}
}

func (l *Lexer) double(t token.TokenType, lit string, pos token.Position) token.Token {
	l.readChar()
	l.readChar()
	return token.Token{Type: t, Literal: lit, Pos: pos}
}

func (l *Lexer) illegal(pos token.Position, format string, args ...any) token.Token {
	lit := string(l.ch)
	l.errors = append(l.errors, newLexError(pos, format, args...))
	l.readChar()
	return token.Token{Type: token.ILLEGAL, Literal: lit, Pos: pos}
}

// skipWhitespaceAndComments skips whitespace, -- line comments and /* */ block comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.pos < len(l.input) {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.pos < len(l.input) && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.pos < len(l.input) {
				l.readChar()
				l.readChar()
			}
			continue
		}

		break
	}
}

// readString reads a single-quoted string literal.
// A doubled single quote inside the literal is an escaped quote.
func (l *Lexer) readString(pos token.Position) token.Token {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.pos >= len(l.input) {
			l.errors = append(l.errors, newLexError(pos, ErrUnterminatedString))
			return token.Token{Type: token.ILLEGAL, Literal: result.String(), Pos: pos}
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				result.WriteByte('\'')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			break
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return token.Token{Type: token.STRING, Literal: result.String(), Pos: pos}
}

// readQuotedIdentifier reads "ident", `ident` or [ident].
// A doubled closing quote escapes itself.
func (l *Lexer) readQuotedIdentifier(pos token.Position, closing byte) token.Token {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.pos >= len(l.input) {
			l.errors = append(l.errors, newLexError(pos, ErrUnterminatedIdent))
			return token.Token{Type: token.ILLEGAL, Literal: result.String(), Pos: pos}
		}
		if l.ch == closing {
			if closing != ']' && l.peekChar() == closing {
				result.WriteByte(closing)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			break
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return token.Token{Type: token.IDENT, Literal: result.String(), Pos: pos, Quoted: true}
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, hex or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return l.input[start:l.pos]
	}

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// Exponent part (e.g., 1e10, 1E-5)
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	return l.input[start:l.pos]
}

// readQuestionParam reads ? or ?NNN.
func (l *Lexer) readQuestionParam(pos token.Position) token.Token {
	start := l.pos
	l.readChar() // skip ?
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.param(pos, l.input[start:l.pos])
}

// readDollarParam reads $N.
func (l *Lexer) readDollarParam(pos token.Position) token.Token {
	start := l.pos
	l.readChar() // skip $
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.param(pos, l.input[start:l.pos])
}

// readNamedParam reads :name, @name or $name.
func (l *Lexer) readNamedParam(pos token.Position) token.Token {
	start := l.pos
	l.readChar() // skip sigil
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.param(pos, l.input[start:l.pos])
}

func (l *Lexer) param(pos token.Position, lit string) token.Token {
	return token.Token{Type: token.PARAM, Literal: lit, Pos: pos}
}

// placeholderFromLiteral decodes a PARAM token literal.
func placeholderFromLiteral(lit string, d *dialect.Dialect) (core.PlaceholderStyle, int) {
	if lit == "" {
		return core.PlaceholderQuestion, 0
	}
	switch lit[0] {
	case '?':
		n, _ := strconv.Atoi(lit[1:])
		return core.PlaceholderQuestion, n
	case '$':
		if n, err := strconv.Atoi(lit[1:]); err == nil && d.Accepts(core.PlaceholderDollar) {
			return core.PlaceholderDollar, n
		}
	}
	return core.PlaceholderNamed, 0
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// Tokenize returns all tokens from the input, ending with EOF.
func Tokenize(input string, d *dialect.Dialect) []token.Token {
	l := NewLexer(input, d)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}
