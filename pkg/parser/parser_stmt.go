package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Statement parsing: dispatch, WITH clause, CTEs, SELECT body, SELECT list, ORDER BY.
//
// Grammar:
//
//	statement     → [WITH cte_list] (select_body | insert | update | delete)
//	              | create_table | raw_statement
//	cte_list      → cte ("," cte)*
//	cte           → identifier ["(" ident_list ")"] AS [[NOT] MATERIALIZED] "(" select ")"
//	select_body   → select_core [(UNION [ALL]|INTERSECT|EXCEPT) select_body]
//	                [ORDER BY order_list] [LIMIT expr [(OFFSET|",") expr]]
//	select_core   → SELECT [DISTINCT|ALL] select_list
//	                [FROM from_clause] [WHERE expr]
//	                [GROUP BY expr_list] [HAVING expr] [WINDOW window_defs]
//	              | VALUES "(" expr_list ")" ("," "(" expr_list ")")*
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [[AS] identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]

// parseStatement parses a complete SQL statement.
func (p *Parser) parseStatement() core.Statement {
	start := p.token.Pos
	var with *core.WithClause
	if p.check(token.WITH) {
		with = p.parseWithClause()
	}

	switch {
	case p.check(token.SELECT), p.check(token.VALUES), p.check(token.LPAREN):
		stmt := &core.SelectStmt{With: with}
		stmt.Body = p.parseSelectBody()
		stmt.Span = p.spanFrom(start)
		return stmt
	case p.check(token.INSERT), p.check(token.REPLACE):
		return p.parseInsert(start, with)
	case p.check(token.UPDATE):
		return p.parseUpdate(start, with)
	case p.check(token.DELETE):
		return p.parseDelete(start, with)
	case with != nil:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "SELECT, INSERT, UPDATE or DELETE"))
		return nil
	case p.check(token.CREATE):
		if p.isCreateTable() {
			return p.parseCreateTable(start)
		}
		return p.parseRawStatement(start)
	case p.check(token.IDENT) && !p.token.Quoted:
		return p.parseRawStatement(start)
	}
	p.addError(fmt.Sprintf(ErrExpectedStatement, describe(p.token)))
	return nil
}

// parseSelectStmt parses [WITH ...] select_body. Used for subqueries.
func (p *Parser) parseSelectStmt() *core.SelectStmt {
	stmt := &core.SelectStmt{}
	start := p.token.Pos
	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
	}
	stmt.Body = p.parseSelectBody()
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *core.WithClause {
	p.expect(token.WITH)
	with := &core.WithClause{}

	if p.match(token.RECURSIVE) {
		with.Recursive = true
	}

	for !p.failed() {
		with.CTEs = append(with.CTEs, p.parseCTE())
		if !p.match(token.COMMA) {
			break
		}
	}
	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *core.CTE {
	start := p.token.Pos
	cte := &core.CTE{}
	cte.Name = p.parseIdent()

	if p.check(token.LPAREN) {
		cte.Columns = p.parseIdentList()
	}

	p.expect(token.AS)
	if p.match(token.NOT) {
		p.expectWord("MATERIALIZED")
	} else {
		p.matchWord("MATERIALIZED")
	}

	p.expect(token.LPAREN)
	cte.Select = p.parseSelectStmt()
	p.expect(token.RPAREN)
	cte.Span = p.spanFrom(start)
	return cte
}

// parseSelectBody parses a compound SELECT with its trailing ORDER BY / LIMIT.
func (p *Parser) parseSelectBody() *core.SelectBody {
	// Collect arms first, then nest them to the right.
	type arm struct {
		sel *core.SelectCore
		op  core.SetOpType
		all bool
	}
	var arms []arm
	cur := arm{sel: p.parseSelectCore()}
	for !p.failed() {
		op, ok := p.setOp()
		if !ok {
			break
		}
		cur.op = op
		if op == core.SetOpUnion && p.match(token.ALL) {
			cur.all = true
		} else {
			p.match(token.DISTINCT)
		}
		arms = append(arms, cur)
		cur = arm{sel: p.parseSelectCore()}
	}
	arms = append(arms, cur)

	var body *core.SelectBody
	for i := len(arms) - 1; i >= 0; i-- {
		body = &core.SelectBody{
			Left:  arms[i].sel,
			Op:    arms[i].op,
			All:   arms[i].all,
			Right: body,
		}
	}

	if p.match(token.ORDER) {
		p.expect(token.BY)
		body.OrderBy = p.parseOrderByList()
	}
	if p.match(token.LIMIT) {
		body.Limit = p.parseExpression()
		if p.match(token.OFFSET) {
			body.Offset = p.parseExpression()
		} else if p.match(token.COMMA) {
			// LIMIT offset, count
			body.Offset = body.Limit
			body.Limit = p.parseExpression()
		}
	} else if p.match(token.OFFSET) {
		body.Offset = p.parseExpression()
	}
	return body
}

func (p *Parser) setOp() (core.SetOpType, bool) {
	switch {
	case p.match(token.UNION):
		return core.SetOpUnion, true
	case p.match(token.INTERSECT):
		return core.SetOpIntersect, true
	case p.match(token.EXCEPT):
		return core.SetOpExcept, true
	}
	return core.SetOpNone, false
}

// parseSelectCore parses a single SELECT or VALUES arm.
// A parenthesized arm is accepted when it holds a plain SELECT.
func (p *Parser) parseSelectCore() *core.SelectCore {
	start := p.token.Pos
	if p.check(token.LPAREN) {
		p.nextToken()
		inner := p.parseSelectCore()
		p.expect(token.RPAREN)
		return inner
	}

	if p.match(token.VALUES) {
		sc := &core.SelectCore{Values: p.parseValueRows()}
		sc.Span = p.spanFrom(start)
		return sc
	}

	sc := &core.SelectCore{}
	if !p.expect(token.SELECT) {
		return sc
	}

	if p.match(token.DISTINCT) {
		sc.Distinct = true
	} else {
		p.match(token.ALL)
	}

	sc.Columns = p.parseSelectList()

	if p.match(token.FROM) {
		sc.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		sc.Where = p.parseExpression()
	}
	if p.match(token.GROUP) {
		p.expect(token.BY)
		sc.GroupBy = p.parseExpressionList()
	}
	if p.match(token.HAVING) {
		sc.Having = p.parseExpression()
	}
	if p.match(token.WINDOW) {
		sc.Windows = p.parseWindowDefs()
	}
	sc.Span = p.spanFrom(start)
	return sc
}

// parseValueRows parses "(" expr_list ")" {"," "(" expr_list ")"}.
func (p *Parser) parseValueRows() [][]core.Expr {
	var rows [][]core.Expr
	for !p.failed() {
		p.expect(token.LPAREN)
		rows = append(rows, p.parseExpressionList())
		p.expect(token.RPAREN)
		if !p.match(token.COMMA) {
			break
		}
	}
	return rows
}

// parseSelectList parses the SELECT list.
func (p *Parser) parseSelectList() []core.SelectItem {
	var items []core.SelectItem
	for !p.failed() {
		items = append(items, p.parseSelectItem())
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// parseSelectItem parses a single SELECT list item.
func (p *Parser) parseSelectItem() core.SelectItem {
	// *
	if p.match(token.STAR) {
		return core.SelectItem{Star: true}
	}

	// table.*
	if isIdentLike(p.token) && p.checkPeek(token.DOT) && p.peek2.Type == token.STAR {
		table := p.token.Literal
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return core.SelectItem{TableStar: table}
	}

	start := p.token.Pos
	item := core.SelectItem{Expr: p.parseExpression()}
	item.Text = p.textFrom(start)
	item.Alias = p.parseAlias()
	return item
}

// parseOrderByList parses ORDER BY items.
func (p *Parser) parseOrderByList() []core.OrderByItem {
	var items []core.OrderByItem
	for !p.failed() {
		item := core.OrderByItem{Expr: p.parseExpression()}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		if p.match(token.NULLS) {
			var first bool
			switch {
			case p.match(token.FIRST):
				first = true
			case p.match(token.LAST):
				first = false
			default:
				p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "FIRST or LAST"))
			}
			item.NullsFirst = &first
		}
		items = append(items, item)
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// parseExpressionList parses expr {"," expr}.
func (p *Parser) parseExpressionList() []core.Expr {
	var exprs []core.Expr
	for !p.failed() {
		exprs = append(exprs, p.parseExpression())
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}

// parseReturning parses an optional RETURNING select_list.
func (p *Parser) parseReturning() []core.SelectItem {
	if !p.match(token.RETURNING) {
		return nil
	}
	return p.parseSelectList()
}

// parseRawStatement consumes a statement the parser does not model, up to the
// next top-level semicolon. Trigger bodies (BEGIN ... END) are skipped whole.
func (p *Parser) parseRawStatement(start token.Position) core.Statement {
	var words []string
	for i := 0; i < 2 && (p.check(token.IDENT) || token.IsKeyword(p.token.Type)); i++ {
		w := strings.ToUpper(p.token.Literal)
		words = append(words, w)
		p.nextToken()
		if i == 0 && w != "CREATE" && w != "DROP" && w != "ALTER" {
			break
		}
		// CREATE UNIQUE INDEX, CREATE TEMP VIEW, ...
		for i == 0 && (p.check(token.UNIQUE) || p.check(token.TEMP) || p.check(token.TEMPORARY)) {
			p.nextToken()
		}
	}

	depth := 0
	trigger := len(words) == 2 && words[1] == "TRIGGER"
	for !p.check(token.EOF) {
		switch {
		case p.check(token.SEMI) && depth == 0:
			return p.rawStmt(start, words)
		case trigger && p.isWord("BEGIN"), depth > 0 && p.check(token.CASE):
			depth++
		case p.check(token.END) && depth > 0:
			depth--
		case p.check(token.ILLEGAL):
			p.addError(fmt.Sprintf(ErrUnexpectedChar, p.token.Literal))
			return nil
		}
		p.nextToken()
	}
	return p.rawStmt(start, words)
}

func (p *Parser) rawStmt(start token.Position, words []string) *core.RawStmt {
	stmt := &core.RawStmt{Keyword: strings.Join(words, " "), Text: p.textFrom(start)}
	stmt.Span = p.spanFrom(start)
	return stmt
}
