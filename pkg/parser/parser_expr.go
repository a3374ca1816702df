package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels, lowest first:
//
//	precOr         OR
//	precAnd        AND
//	precNot        NOT (prefix)
//	precComparison = <> < > <= >= IS IN LIKE GLOB ILIKE BETWEEN ISNULL NOTNULL
//	precBitwise    & | << >>
//	precAddition   + -
//	precMultiply   * / %
//	precConcat     ||
//	precCollate    COLLATE
//	precUnary      - + ~ (prefix)
//	precPostfix    ::
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precBitwise
	precAddition
	precMultiply
	precConcat
	precCollate
	precUnary
	precPostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() core.Expr {
	return p.parseExpressionWithPrecedence(precOr)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) core.Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for !p.failed() {
		prec := p.getInfixPrecedence()
		if prec == precNone || prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec)
		if left == nil {
			return nil
		}
	}
	return left
}

// parsePrefixExpr parses prefix operators and primary expressions.
func (p *Parser) parsePrefixExpr() core.Expr {
	start := p.token.Pos
	switch p.token.Type {
	case token.NOT:
		if p.checkPeek(token.EXISTS) {
			p.nextToken()
			return p.parseExistsExpr(start, true)
		}
		p.nextToken()
		operand := p.parseExpressionWithPrecedence(precNot)
		if operand == nil {
			return nil
		}
		expr := &core.UnaryExpr{Op: token.NOT, Expr: operand}
		expr.Span = p.spanFrom(start)
		return expr

	case token.MINUS, token.PLUS, token.TILDE:
		op := p.token.Type
		p.nextToken()
		operand := p.parseExpressionWithPrecedence(precUnary)
		if operand == nil {
			return nil
		}
		expr := &core.UnaryExpr{Op: op, Expr: operand}
		expr.Span = p.spanFrom(start)
		return expr
	}
	return p.parsePrimary()
}

// getInfixPrecedence returns the binding power of the current token as an
// infix or postfix operator, or precNone.
func (p *Parser) getInfixPrecedence() int {
	switch p.token.Type {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.LIKE, token.GLOB, token.ILIKE, token.BETWEEN,
		token.ISNULL, token.NOTNULL:
		return precComparison
	case token.NOT:
		switch p.peek.Type {
		case token.IN, token.LIKE, token.GLOB, token.ILIKE, token.BETWEEN, token.NULL:
			return precComparison
		}
		return precNone
	case token.AMP, token.PIPE, token.LSHIFT, token.RSHIFT:
		return precBitwise
	case token.PLUS, token.MINUS:
		return precAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiply
	case token.DPIPE:
		return precConcat
	case token.COLLATE:
		return precCollate
	case token.DCOLON:
		return precPostfix
	}
	return precNone
}

// parseInfixExpr parses the operator at the current token applied to left.
func (p *Parser) parseInfixExpr(left core.Expr, prec int) core.Expr {
	start := left.Pos()
	op := p.token.Type

	switch op {
	case token.NOT:
		p.nextToken()
		return p.parseNegatable(left, start, true)

	case token.IN, token.LIKE, token.GLOB, token.ILIKE, token.BETWEEN:
		return p.parseNegatable(left, start, false)

	case token.IS:
		return p.parseIsExpr(left, start)

	case token.ISNULL, token.NOTNULL:
		p.nextToken()
		expr := &core.IsNullExpr{Expr: left, Not: op == token.NOTNULL}
		expr.Span = p.spanFrom(start)
		return expr

	case token.COLLATE:
		p.nextToken()
		expr := &core.CollateExpr{Expr: left, Collation: p.parseIdent()}
		expr.Span = p.spanFrom(start)
		return expr

	case token.DCOLON:
		p.nextToken()
		typeName := p.parseTypeName()
		if typeName == "" {
			p.addError(fmt.Sprintf(ErrExpectedIdentifier, describe(p.token)))
			return nil
		}
		expr := &core.CastExpr{Expr: left, TypeName: typeName}
		expr.Span = p.spanFrom(start)
		return expr
	}

	// Plain left-associative binary operator.
	p.nextToken()
	right := p.parseExpressionWithPrecedence(prec + 1)
	if right == nil {
		if !p.failed() {
			p.addError(fmt.Sprintf(ErrExpectedExpression, describe(p.token)))
		}
		return nil
	}
	expr := &core.BinaryExpr{Left: left, Op: op, Right: right}
	expr.Span = p.spanFrom(start)
	return expr
}

// parseNegatable handles the operators that accept a leading NOT:
// [NOT] IN, [NOT] LIKE/GLOB/ILIKE, [NOT] BETWEEN, and the postfix NOT NULL.
func (p *Parser) parseNegatable(left core.Expr, start token.Position, not bool) core.Expr {
	switch p.token.Type {
	case token.NULL:
		// expr NOT NULL
		p.nextToken()
		expr := &core.IsNullExpr{Expr: left, Not: true}
		expr.Span = p.spanFrom(start)
		return expr

	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, start, not)

	case token.LIKE, token.GLOB, token.ILIKE:
		op := p.token.Type
		p.nextToken()
		expr := &core.LikeExpr{Expr: left, Not: not, Op: op}
		expr.Pattern = p.parseExpressionWithPrecedence(precComparison + 1)
		if p.match(token.ESCAPE) {
			expr.Escape = p.parseExpressionWithPrecedence(precComparison + 1)
		}
		expr.Span = p.spanFrom(start)
		return expr

	case token.BETWEEN:
		p.nextToken()
		expr := &core.BetweenExpr{Expr: left, Not: not}
		// Bounds bind tighter than AND so the separating AND is not consumed.
		expr.Low = p.parseExpressionWithPrecedence(precComparison + 1)
		p.expect(token.AND)
		expr.High = p.parseExpressionWithPrecedence(precComparison + 1)
		expr.Span = p.spanFrom(start)
		return expr
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "IN, LIKE, GLOB, BETWEEN or NULL"))
	return nil
}

// parseInExpr parses the list or subquery after [NOT] IN.
func (p *Parser) parseInExpr(left core.Expr, start token.Position, not bool) core.Expr {
	expr := &core.InExpr{Expr: left, Not: not}
	if !p.expect(token.LPAREN) {
		return nil
	}
	switch {
	case p.check(token.SELECT), p.check(token.WITH), p.check(token.VALUES):
		expr.Query = p.parseSelectStmt()
	case p.check(token.RPAREN):
		// empty list: x IN ()
	default:
		expr.Values = p.parseExpressionList()
	}
	p.expect(token.RPAREN)
	expr.Span = p.spanFrom(start)
	return expr
}

// parseIsExpr parses IS [NOT] NULL, IS [NOT] DISTINCT FROM expr and IS [NOT] expr.
func (p *Parser) parseIsExpr(left core.Expr, start token.Position) core.Expr {
	p.expect(token.IS)
	not := p.match(token.NOT)

	if p.match(token.NULL) {
		expr := &core.IsNullExpr{Expr: left, Not: not}
		expr.Span = p.spanFrom(start)
		return expr
	}

	if p.match(token.DISTINCT) {
		p.expect(token.FROM)
		// IS DISTINCT FROM is IS NOT, and IS NOT DISTINCT FROM is IS.
		not = !not
	}

	right := p.parseExpressionWithPrecedence(precComparison + 1)
	if right == nil {
		return nil
	}
	expr := &core.IsExpr{Left: left, Not: not, Right: right}
	expr.Span = p.spanFrom(start)
	return expr
}
