package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Special expression parsing: CASE, CAST, EXISTS, parenthesized expressions,
// subqueries, window specifications and type names.
//
// Grammar:
//
//	case_expr     → CASE [expr] (WHEN expr THEN expr)+ [ELSE expr] END
//	cast_expr     → CAST "(" expr AS type_name ")"
//	exists_expr   → [NOT] EXISTS "(" select ")"
//	paren_expr    → "(" expr ")" | "(" expr_list ")" | "(" select ")"
//	window_spec   → "(" [name] [PARTITION BY expr_list] [ORDER BY order_list] [frame] ")"
//	type_name     → identifier {identifier} ["(" signed_number ["," signed_number] ")"] {"[" "]"}

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() core.Expr {
	start := p.token.Pos
	p.expect(token.CASE)
	caseExpr := &core.CaseExpr{}

	// Simple CASE: CASE expr WHEN ...
	if !p.check(token.WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	for p.match(token.WHEN) {
		when := core.WhenClause{}
		when.Condition = p.parseExpression()
		p.expect(token.THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}
	if len(caseExpr.Whens) == 0 {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), token.WHEN))
		return nil
	}

	if p.match(token.ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(token.END)
	caseExpr.Span = p.spanFrom(start)
	return caseExpr
}

// parseCastExpr parses a CAST expression.
func (p *Parser) parseCastExpr() core.Expr {
	start := p.token.Pos
	p.expect(token.CAST)
	p.expect(token.LPAREN)

	cast := &core.CastExpr{}
	cast.Expr = p.parseExpression()

	p.expect(token.AS)
	cast.TypeName = p.parseTypeName()
	if cast.TypeName == "" {
		p.addError(fmt.Sprintf(ErrExpectedIdentifier, describe(p.token)))
		return nil
	}

	p.expect(token.RPAREN)
	cast.Span = p.spanFrom(start)
	return cast
}

// parseTypeName parses a possibly multi-word type name with optional
// parameters, e.g. VARCHAR(255), DOUBLE PRECISION, DECIMAL(10, 2), INT[].
// It returns "" when no type name is present, which column definitions allow.
func (p *Parser) parseTypeName() string {
	start := p.token.Pos
	n := 0
	for p.check(token.IDENT) && !p.token.Quoted && !p.isWord("GENERATED") {
		p.nextToken()
		n++
	}
	// TIMESTAMP WITH TIME ZONE / WITHOUT TIME ZONE
	if n > 0 && (p.check(token.WITH) || p.check(token.WITHOUT)) &&
		p.peek.Type == token.IDENT && strings.EqualFold(p.peek.Literal, "TIME") {
		p.nextToken()
		p.nextToken()
		p.expectWord("ZONE")
	}
	if n == 0 {
		return ""
	}

	if p.match(token.LPAREN) {
		for !p.failed() {
			p.match(token.PLUS)
			p.match(token.MINUS)
			if !p.check(token.NUMBER) && !p.check(token.IDENT) {
				p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), token.NUMBER))
				return ""
			}
			p.nextToken()
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	for p.check(token.LBRACKET) && p.checkPeek(token.RBRACKET) {
		p.nextToken()
		p.nextToken()
	}

	return p.textFrom(start)
}

// parseParenExpr parses a parenthesized expression, row value or subquery.
func (p *Parser) parseParenExpr() core.Expr {
	start := p.token.Pos
	p.expect(token.LPAREN)

	if p.check(token.SELECT) || p.check(token.WITH) || p.check(token.VALUES) {
		subquery := &core.SubqueryExpr{Select: p.parseSelectStmt()}
		p.expect(token.RPAREN)
		subquery.Span = p.spanFrom(start)
		return subquery
	}

	expr := p.parseExpression()
	if expr == nil {
		return nil
	}

	if p.check(token.COMMA) {
		row := &core.RowExpr{Values: []core.Expr{expr}}
		for p.match(token.COMMA) {
			row.Values = append(row.Values, p.parseExpression())
		}
		p.expect(token.RPAREN)
		row.Span = p.spanFrom(start)
		return row
	}

	p.expect(token.RPAREN)
	paren := &core.ParenExpr{Expr: expr}
	paren.Span = p.spanFrom(start)
	return paren
}

// parseExistsExpr parses an EXISTS expression. The current token is EXISTS.
func (p *Parser) parseExistsExpr(start token.Position, not bool) core.Expr {
	p.expect(token.EXISTS)
	p.expect(token.LPAREN)
	exists := &core.ExistsExpr{Not: not, Select: p.parseSelectStmt()}
	p.expect(token.RPAREN)
	exists.Span = p.spanFrom(start)
	return exists
}

// parseWindowSpec parses "(" [base] [PARTITION BY ...] [ORDER BY ...] [frame] ")".
func (p *Parser) parseWindowSpec() *core.WindowSpec {
	spec := &core.WindowSpec{}
	if !p.expect(token.LPAREN) {
		return spec
	}

	if p.check(token.IDENT) {
		spec.Name = p.parseIdent()
	}
	if p.match(token.PARTITION) {
		p.expect(token.BY)
		spec.PartitionBy = p.parseExpressionList()
	}
	if p.match(token.ORDER) {
		p.expect(token.BY)
		spec.OrderBy = p.parseOrderByList()
	}

	// Frame clause: kept as raw text, only needs to be skipped.
	if !p.check(token.RPAREN) {
		frameStart := p.token.Pos
		depth := 0
		for !p.check(token.EOF) && (depth > 0 || !p.check(token.RPAREN)) {
			switch p.token.Type {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
			}
			p.nextToken()
		}
		spec.Frame = p.textFrom(frameStart)
	}

	p.expect(token.RPAREN)
	return spec
}

// parseWindowDefs parses the WINDOW clause: name AS window_spec {, ...}.
func (p *Parser) parseWindowDefs() []core.WindowDef {
	var defs []core.WindowDef
	for !p.failed() {
		def := core.WindowDef{Name: p.parseIdent()}
		p.expect(token.AS)
		def.Spec = p.parseWindowSpec()
		defs = append(defs, def)
		if !p.match(token.COMMA) {
			break
		}
	}
	return defs
}
