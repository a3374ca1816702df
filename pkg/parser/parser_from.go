package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// FROM clause parsing: table references, derived tables, JOINs.
//
// Grammar:
//
//	from_clause   → table_ref (join)*
//	table_ref     → table_name | derived_table | "(" from_clause ")"
//	table_name    → [schema "."] identifier [[AS] identifier] [INDEXED BY identifier | NOT INDEXED]
//	derived_table → "(" select ")" [[AS] identifier]
//	join          → [NATURAL] join_type JOIN table_ref [ON expr | USING "(" ident_list ")"]
//	              | "," table_ref
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *core.FromClause {
	from := &core.FromClause{}
	from.Source = p.parseTableRef()

	for !p.failed() {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}
	return from
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() core.TableRef {
	if p.check(token.LPAREN) {
		if p.peek.Type == token.SELECT || p.peek.Type == token.WITH || p.peek.Type == token.VALUES {
			return p.parseDerivedTable()
		}
		return p.parseParenTable()
	}
	return p.parseTableName()
}

// parseTableName parses a table name with optional schema and alias.
func (p *Parser) parseTableName() *core.TableName {
	start := p.token.Pos
	table := &core.TableName{}
	table.Schema, table.Name = p.parseQualifiedName()
	if p.failed() {
		return table
	}

	if !(p.isWord("INDEXED") && p.checkPeek(token.BY)) {
		table.Alias = p.parseAlias()
	}

	// Index hints do not affect typing.
	if p.matchWord("INDEXED") {
		p.expect(token.BY)
		p.parseIdent()
	} else if p.check(token.NOT) && p.peek.Type == token.IDENT && strings.EqualFold(p.peek.Literal, "INDEXED") {
		p.nextToken()
		p.expectWord("INDEXED")
	}

	table.Span = p.spanFrom(start)
	return table
}

// parseDerivedTable parses a derived table (subquery in FROM).
func (p *Parser) parseDerivedTable() *core.DerivedTable {
	start := p.token.Pos
	p.expect(token.LPAREN)
	derived := &core.DerivedTable{}
	derived.Select = p.parseSelectStmt()
	p.expect(token.RPAREN)
	derived.Alias = p.parseAlias()
	derived.Span = p.spanFrom(start)
	return derived
}

// parseParenTable parses a parenthesized join tree.
func (p *Parser) parseParenTable() *core.ParenTable {
	start := p.token.Pos
	p.expect(token.LPAREN)
	paren := &core.ParenTable{From: p.parseFromClause()}
	p.expect(token.RPAREN)
	paren.Span = p.spanFrom(start)
	return paren
}

// parseJoin parses a JOIN clause, or returns nil when none follows.
func (p *Parser) parseJoin() *core.Join {
	start := p.token.Pos
	join := &core.Join{}

	// Comma join (implicit cross join)
	if p.match(token.COMMA) {
		join.Type = core.JoinComma
		join.Right = p.parseTableRef()
		join.Span = p.spanFrom(start)
		return join
	}

	if p.match(token.NATURAL) {
		join.Natural = true
	}

	switch {
	case p.match(token.INNER):
		join.Type = core.JoinInner
	case p.match(token.LEFT):
		join.Type = core.JoinLeft
		p.match(token.OUTER)
	case p.match(token.RIGHT):
		join.Type = core.JoinRight
		p.match(token.OUTER)
	case p.match(token.FULL):
		join.Type = core.JoinFull
		p.match(token.OUTER)
	case p.match(token.CROSS):
		join.Type = core.JoinCross
	case p.check(token.JOIN):
		join.Type = core.JoinInner
	case join.Natural:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), token.JOIN))
		return nil
	default:
		return nil
	}

	if !p.expect(token.JOIN) {
		return nil
	}

	join.Right = p.parseTableRef()
	p.parseJoinCondition(join)
	join.Span = p.spanFrom(start)
	return join
}

// parseJoinCondition handles ON/USING/NATURAL validation.
func (p *Parser) parseJoinCondition(join *core.Join) {
	switch {
	case join.Natural:
		if p.check(token.ON) || p.check(token.USING) {
			p.addError("NATURAL JOIN cannot have ON or USING clause")
		}
	case p.match(token.ON):
		join.Condition = p.parseExpression()
	case p.match(token.USING):
		join.Using = p.parseIdentList()
	}
}
