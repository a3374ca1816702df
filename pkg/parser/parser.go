// Package parser turns SQL text into the core AST.
//
// # Usage
//
//	stmt, err := parser.Parse("SELECT a, b FROM t WHERE id = ?", dialect.SQLite)
//	if err != nil {
//	    // *ParseError with line and column
//	}
//
// # Grammar Overview
//
// The parser is a hand-written recursive descent parser with Pratt-style
// expression parsing:
//
//	statement     → [WITH cte_list] (select_stmt | insert | update | delete)
//	              | create_table | raw_statement
//	select_stmt   → select_core {(UNION [ALL]|INTERSECT|EXCEPT) select_core}
//	                [ORDER BY order_list] [LIMIT expr [(OFFSET|,) expr]]
//	select_core   → SELECT [DISTINCT|ALL] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [WINDOW window_defs]
//	              | VALUES row {, row}
//
// See each file for detailed grammar rules for that section.
//
// Placeholders are numbered in the order they are consumed, which is their
// left-to-right textual order within the statement.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer   *Lexer
	src     string
	token   token.Token // current token
	peek    token.Token // lookahead token
	peek2   token.Token // second lookahead token
	prevEnd int         // end offset of the last consumed token
	errors  []error
	halted  bool
	dialect *dialect.Dialect

	// params counts placeholders in the current statement.
	params int
}

// NewParser creates a new parser for the given SQL input.
// A nil dialect parses as SQLite.
func NewParser(sql string, d *dialect.Dialect) *Parser {
	if d == nil {
		d = dialect.SQLite
	}
	p := &Parser{
		lexer:   NewLexer(sql, d),
		src:     sql,
		dialect: d,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses exactly one statement. A trailing semicolon is allowed.
func Parse(sql string, d *dialect.Dialect) (core.Statement, error) {
	p := NewParser(sql, d)
	for p.match(token.SEMI) {
	}
	if p.check(token.EOF) {
		p.addError(ErrEmptyStatement)
		return nil, p.errors[0]
	}
	stmt := p.parseStatement()
	for p.match(token.SEMI) {
	}
	if !p.check(token.EOF) {
		p.addError(fmt.Sprintf(ErrTrailingInput, describe(p.token)))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ParseScript parses a semicolon-separated list of statements.
// Placeholder numbering restarts for every statement.
func ParseScript(sql string, d *dialect.Dialect) ([]core.Statement, error) {
	p := NewParser(sql, d)
	var stmts []core.Statement
	for {
		for p.match(token.SEMI) {
		}
		if p.check(token.EOF) {
			break
		}
		p.params = 0
		stmt := p.parseStatement()
		if len(p.errors) > 0 {
			return nil, p.errors[0]
		}
		stmts = append(stmts, stmt)
		if !p.check(token.SEMI) && !p.check(token.EOF) {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), token.SEMI))
			return nil, p.errors[0]
		}
	}
	return stmts, nil
}

// ParseExpr parses a standalone expression.
func ParseExpr(sql string, d *dialect.Dialect) (core.Expr, error) {
	p := NewParser(sql, d)
	expr := p.parseExpression()
	if !p.check(token.EOF) {
		p.addError(fmt.Sprintf(ErrTrailingInput, describe(p.token)))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return expr, nil
}

// SplitStatements splits a script into statement texts, respecting quotes,
// comments and trigger bodies. Empty statements are dropped.
func SplitStatements(sql string, d *dialect.Dialect) []string {
	l := NewLexer(sql, d)
	var out []string
	start := -1
	depth := 0
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		if start < 0 {
			start = tok.Pos.Offset
		}
		switch {
		case tok.Type == token.IDENT && strings.EqualFold(tok.Literal, "BEGIN") && depth == 0 && isTriggerPrefix(sql[start:tok.Pos.Offset]):
			depth++
		case tok.Type == token.CASE && depth > 0:
			depth++
		case tok.Type == token.END && depth > 0:
			depth--
		case tok.Type == token.SEMI && depth == 0:
			if text := strings.TrimSpace(sql[start:tok.Pos.Offset]); text != "" {
				out = append(out, text)
			}
			start = -1
		}
	}
	if start >= 0 {
		if text := strings.TrimSpace(sql[start:]); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func isTriggerPrefix(s string) bool {
	fields := strings.Fields(strings.ToUpper(s))
	for _, f := range fields {
		if f == "TRIGGER" {
			return true
		}
	}
	return false
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *dialect.Dialect {
	return p.dialect
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	if p.halted {
		return
	}
	p.prevEnd = p.token.End
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchWord consumes the current token if it is an identifier spelled word.
// Used for context keywords (CONFLICT, ROWID, STRICT, ...) that are not reserved.
func (p *Parser) matchWord(word string) bool {
	if p.isWord(word) {
		p.nextToken()
		return true
	}
	return false
}

// isWord reports whether the current token is an unquoted identifier spelled word.
func (p *Parser) isWord(word string) bool {
	return p.token.Type == token.IDENT && !p.token.Quoted && strings.EqualFold(p.token.Literal, word)
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// expectWord is expect for context keywords.
func (p *Parser) expectWord(word string) bool {
	if p.matchWord(word) {
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), word))
	return false
}

// addError records a parse error at the current token and halts the parser.
// Only the first error is meaningful; halting turns the rest of the input
// into EOF so every loop terminates.
func (p *Parser) addError(msg string) {
	if p.halted {
		return
	}
	pos := p.token.Pos
	if p.token.Type == token.ILLEGAL {
		if errs := p.lexer.Errors(); len(errs) > 0 {
			for _, le := range errs {
				if le.Pos == pos {
					msg = le.Message
					break
				}
			}
		}
	}
	p.errors = append(p.errors, &ParseError{Pos: pos, Message: msg})
	p.halted = true
	eof := token.Token{Type: token.EOF, Pos: pos, End: p.token.End}
	p.token, p.peek, p.peek2 = eof, eof, eof
}

// failed reports whether a parse error has been recorded.
func (p *Parser) failed() bool {
	return p.halted
}

// spanFrom builds a span from start to the end of the last consumed token.
func (p *Parser) spanFrom(start token.Position) token.Span {
	end := start
	end.Offset = p.prevEnd
	if end.Offset < start.Offset {
		end.Offset = start.Offset
	}
	return token.Span{Start: start, End: end}
}

// textFrom returns the source text from start to the last consumed token.
func (p *Parser) textFrom(start token.Position) string {
	return strings.TrimSpace(p.spanFrom(start).Text(p.src))
}

// ---------- Identifier Helpers ----------

// isIdentLike reports whether tok can be used as a name.
func isIdentLike(tok token.Token) bool {
	return tok.Type == token.IDENT || (token.IsKeyword(tok.Type) && !token.IsReserved(tok.Type))
}

// parseIdent consumes a name (identifier or non-reserved keyword).
func (p *Parser) parseIdent() string {
	if isIdentLike(p.token) {
		name := p.token.Literal
		p.nextToken()
		return name
	}
	p.addError(fmt.Sprintf(ErrExpectedIdentifier, describe(p.token)))
	return ""
}

// parseIdentList parses ( name {, name} ).
func (p *Parser) parseIdentList() []string {
	if !p.expect(token.LPAREN) {
		return nil
	}
	var names []string
	for !p.failed() {
		names = append(names, p.parseIdent())
		// indexed-column suffixes inside key lists
		if p.match(token.COLLATE) {
			p.parseIdent()
		}
		if !p.match(token.ASC) {
			p.match(token.DESC)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return names
}

// parseQualifiedName parses [schema.]name.
func (p *Parser) parseQualifiedName() (schema, name string) {
	name = p.parseIdent()
	if p.check(token.DOT) && isIdentLike(p.peek) {
		p.nextToken()
		schema = name
		name = p.parseIdent()
	}
	return schema, name
}

// parseAlias parses an optional [AS] alias.
func (p *Parser) parseAlias() string {
	if p.match(token.AS) {
		if p.check(token.STRING) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		return p.parseIdent()
	}
	if p.check(token.IDENT) || p.check(token.STRING) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER, token.PARAM:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case token.STRING:
		return fmt.Sprintf("string %q", tok.Literal)
	}
	return tok.Type.String()
}
