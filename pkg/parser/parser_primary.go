package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Primary expression parsing: literals, placeholders, column refs, function calls.
//
// Grammar:
//
//	primary       → literal | placeholder | column_ref | func_call
//	              | paren_expr | case_expr | cast_expr | exists_expr
//	literal       → NUMBER | STRING | BLOB | TRUE | FALSE | NULL
//	column_ref    → [[schema "."] table "."] column
//	func_call     → identifier "(" [DISTINCT] [expr_list | "*"] [ORDER BY order_list] ")"
//	                [FILTER "(" WHERE expr ")"] [OVER (identifier | window_spec)]

// keywords that name functions when followed by "(".
var functionKeywords = map[token.TokenType]bool{
	token.REPLACE: true,
	token.LEFT:    true,
	token.RIGHT:   true,
	token.IF:      true,
	token.GLOB:    true,
	token.LIKE:    true,
}

// niladic datetime keywords that behave like zero-argument functions.
var niladicFunctions = map[string]bool{
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"CURRENT_TIMESTAMP": true,
}

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() core.Expr {
	start := p.token.Pos

	switch p.token.Type {
	case token.NUMBER:
		lit := &core.Literal{Type: numberLiteralType(p.token.Literal), Value: p.token.Literal}
		p.nextToken()
		lit.Span = p.spanFrom(start)
		return lit

	case token.STRING:
		return p.literal(start, core.LiteralString, p.token.Literal)

	case token.BLOB:
		return p.literal(start, core.LiteralBlob, p.token.Literal)

	case token.TRUE:
		return p.literal(start, core.LiteralBool, "true")

	case token.FALSE:
		return p.literal(start, core.LiteralBool, "false")

	case token.NULL:
		return p.literal(start, core.LiteralNull, "null")

	case token.PARAM:
		return p.parsePlaceholder()

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		return p.parseCastExpr()

	case token.EXISTS:
		return p.parseExistsExpr(start, false)

	case token.LPAREN:
		return p.parseParenExpr()

	case token.IDENT:
		return p.parseIdentifierExpr()
	}

	if functionKeywords[p.token.Type] && p.checkPeek(token.LPAREN) {
		name := p.token.Literal
		p.nextToken()
		return p.parseFuncCall(start, name)
	}
	if isIdentLike(p.token) {
		return p.parseIdentifierExpr()
	}

	p.addError(fmt.Sprintf(ErrExpectedExpression, describe(p.token)))
	return nil
}

func (p *Parser) literal(start token.Position, typ core.LiteralType, value string) core.Expr {
	p.nextToken()
	lit := &core.Literal{Type: typ, Value: value}
	lit.Span = p.spanFrom(start)
	return lit
}

// numberLiteralType classifies a NUMBER token as integer or real.
func numberLiteralType(lit string) core.LiteralType {
	lower := strings.ToLower(lit)
	if strings.HasPrefix(lower, "0x") {
		return core.LiteralInteger
	}
	if strings.ContainsAny(lower, ".e") {
		return core.LiteralReal
	}
	return core.LiteralInteger
}

// parsePlaceholder parses a bound-parameter marker and assigns its
// occurrence index within the statement.
func (p *Parser) parsePlaceholder() core.Expr {
	start := p.token.Pos
	lit := p.token.Literal
	style, number := placeholderFromLiteral(lit, p.dialect)
	p.nextToken()

	p.params++
	ph := &core.Placeholder{
		Index:  p.params,
		Style:  style,
		Label:  lit,
		Number: number,
	}
	ph.Span = p.spanFrom(start)
	return ph
}

// parseIdentifierExpr parses an identifier which could be a column ref or function call.
func (p *Parser) parseIdentifierExpr() core.Expr {
	start := p.token.Pos
	name := p.token.Literal
	quoted := p.token.Quoted
	p.nextToken()

	if p.check(token.LPAREN) && !quoted {
		return p.parseFuncCall(start, name)
	}

	if p.check(token.DOT) {
		return p.parseQualifiedColumnRef(start, name)
	}

	if !quoted && niladicFunctions[strings.ToUpper(name)] {
		fn := &core.FuncCall{Name: strings.ToUpper(name)}
		fn.Span = p.spanFrom(start)
		return fn
	}

	ref := &core.ColumnRef{Column: name}
	ref.Span = p.spanFrom(start)
	return ref
}

// parseQualifiedColumnRef parses table.column, schema.table.column or table.*.
func (p *Parser) parseQualifiedColumnRef(start token.Position, firstPart string) core.Expr {
	parts := []string{firstPart}

	for p.match(token.DOT) {
		if p.check(token.STAR) && len(parts) == 1 {
			p.nextToken()
			star := &core.StarExpr{Table: firstPart}
			star.Span = p.spanFrom(start)
			return star
		}
		parts = append(parts, p.parseIdent())
		if p.failed() {
			return nil
		}
	}

	ref := &core.ColumnRef{}
	switch len(parts) {
	case 2:
		ref.Table = parts[0]
		ref.Column = parts[1]
	default:
		// schema.table.column: the schema does not take part in resolution
		ref.Table = parts[len(parts)-2]
		ref.Column = parts[len(parts)-1]
	}
	ref.Span = p.spanFrom(start)
	return ref
}

// parseFuncCall parses a function call. The current token is "(".
func (p *Parser) parseFuncCall(start token.Position, name string) core.Expr {
	fn := &core.FuncCall{Name: strings.ToUpper(name)}

	p.expect(token.LPAREN)

	if p.check(token.STAR) {
		fn.Star = true
		p.nextToken()
	} else if !p.check(token.RPAREN) {
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		} else {
			p.match(token.ALL)
		}
		fn.Args = p.parseExpressionList()
		// ordered-set aggregates: group_concat(x ORDER BY y)
		if p.match(token.ORDER) {
			p.expect(token.BY)
			p.parseOrderByList()
		}
	}

	p.expect(token.RPAREN)

	if p.match(token.FILTER) {
		p.expect(token.LPAREN)
		p.expect(token.WHERE)
		fn.Filter = p.parseExpression()
		p.expect(token.RPAREN)
	}

	if p.match(token.OVER) {
		if isIdentLike(p.token) {
			fn.Window = &core.WindowSpec{Name: p.parseIdent()}
		} else {
			fn.Window = p.parseWindowSpec()
		}
	}

	fn.Span = p.spanFrom(start)
	return fn
}
