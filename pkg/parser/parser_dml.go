package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Data modification parsing: INSERT, UPDATE, DELETE.
//
// Grammar:
//
//	insert        → (INSERT [OR conflict] | REPLACE) INTO table_name [AS identifier]
//	                ["(" ident_list ")"] (VALUES rows | select | DEFAULT VALUES)
//	                [upsert] [RETURNING select_list]
//	upsert        → ON CONFLICT ["(" ident_list ")" [WHERE expr]]
//	                DO (NOTHING | UPDATE SET assignments [WHERE expr])
//	update        → UPDATE [OR conflict] table_name [[AS] identifier] SET assignments
//	                [FROM from_clause] [WHERE expr] [RETURNING select_list]
//	delete        → DELETE FROM table_name [[AS] identifier] [WHERE expr] [RETURNING select_list]
//	assignments   → assignment ("," assignment)*
//	assignment    → identifier "=" expr | "(" ident_list ")" "=" row_expr
//	conflict      → ROLLBACK | ABORT | FAIL | IGNORE | REPLACE

// parseInsert parses INSERT and REPLACE statements.
func (p *Parser) parseInsert(start token.Position, with *core.WithClause) core.Statement {
	stmt := &core.InsertStmt{With: with}

	if p.match(token.REPLACE) {
		stmt.Conflict = core.ConflictReplace
	} else {
		p.expect(token.INSERT)
		if p.match(token.OR) {
			stmt.Conflict = p.parseConflictAction()
		}
	}
	p.expect(token.INTO)

	stmt.Table = p.parseTargetTable(true)

	if p.check(token.LPAREN) {
		stmt.Columns = p.parseIdentList()
	}

	switch {
	case p.match(token.DEFAULT):
		p.expect(token.VALUES)
		stmt.DefaultValues = true
	case p.match(token.VALUES):
		stmt.Values = p.parseValueRows()
	case p.check(token.SELECT), p.check(token.WITH):
		stmt.Select = p.parseSelectStmt()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "VALUES, SELECT or DEFAULT VALUES"))
		return nil
	}

	for p.check(token.ON) && p.peek.Type == token.IDENT && strings.EqualFold(p.peek.Literal, "CONFLICT") {
		upsert := p.parseUpsert()
		// Only the first clause carries typing information; later ones share its shape.
		if stmt.Upsert == nil {
			stmt.Upsert = upsert
		}
	}

	stmt.Returning = p.parseReturning()
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseConflictAction parses the action after OR in INSERT OR ... / UPDATE OR ....
func (p *Parser) parseConflictAction() core.ConflictAction {
	switch {
	case p.match(token.REPLACE):
		return core.ConflictReplace
	case p.match(token.IGNORE):
		return core.ConflictIgnore
	case p.matchWord("ABORT"):
		return core.ConflictAbort
	case p.matchWord("FAIL"):
		return core.ConflictFail
	case p.matchWord("ROLLBACK"):
		return core.ConflictRollback
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "ROLLBACK, ABORT, FAIL, IGNORE or REPLACE"))
	return core.ConflictNone
}

// parseTargetTable parses the table of a data-modifying statement.
// INSERT only accepts an alias after AS.
func (p *Parser) parseTargetTable(aliasNeedsAs bool) *core.TableName {
	start := p.token.Pos
	table := &core.TableName{}
	table.Schema, table.Name = p.parseQualifiedName()
	if aliasNeedsAs {
		if p.match(token.AS) {
			table.Alias = p.parseIdent()
		}
	} else {
		table.Alias = p.parseAlias()
	}
	table.Span = p.spanFrom(start)
	return table
}

// parseUpsert parses ON CONFLICT ... DO ....
func (p *Parser) parseUpsert() *core.Upsert {
	p.expect(token.ON)
	p.expectWord("CONFLICT")
	upsert := &core.Upsert{}

	if p.check(token.LPAREN) {
		upsert.Target = p.parseIdentList()
		if p.match(token.WHERE) {
			upsert.TargetWhere = p.parseExpression()
		}
	}

	p.expectWord("DO")
	if p.matchWord("NOTHING") {
		upsert.DoNothing = true
		return upsert
	}
	p.expect(token.UPDATE)
	p.expect(token.SET)
	upsert.Set = p.parseAssignments()
	if p.match(token.WHERE) {
		upsert.Where = p.parseExpression()
	}
	return upsert
}

// parseAssignments parses the SET list of UPDATE and upserts.
func (p *Parser) parseAssignments() []core.Assignment {
	var out []core.Assignment
	for !p.failed() {
		if p.check(token.LPAREN) {
			cols := p.parseIdentList()
			p.expect(token.EQ)
			value := p.parseExpression()
			row, ok := core.Unwrap(value).(*core.RowExpr)
			switch {
			case ok && len(row.Values) == len(cols):
				for i, c := range cols {
					out = append(out, core.Assignment{Column: c, Value: row.Values[i]})
				}
			case len(cols) == 1 && !ok:
				out = append(out, core.Assignment{Column: cols[0], Value: value})
			default:
				if !p.failed() {
					p.addError(fmt.Sprintf("%d columns assigned %s", len(cols), describeRow(value)))
				}
				return out
			}
		} else {
			// t.col = ... is accepted by some engines; the qualifier is ignored.
			col := p.parseIdent()
			if p.match(token.DOT) {
				col = p.parseIdent()
			}
			p.expect(token.EQ)
			out = append(out, core.Assignment{Column: col, Value: p.parseExpression()})
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return out
}

func describeRow(e core.Expr) string {
	if row, ok := core.Unwrap(e).(*core.RowExpr); ok {
		return fmt.Sprintf("%d values", len(row.Values))
	}
	return "a non-row value"
}

// parseUpdate parses UPDATE statements.
func (p *Parser) parseUpdate(start token.Position, with *core.WithClause) core.Statement {
	p.expect(token.UPDATE)
	stmt := &core.UpdateStmt{With: with}
	if p.match(token.OR) {
		stmt.Conflict = p.parseConflictAction()
	}

	stmt.Table = p.parseTargetTable(false)

	p.expect(token.SET)
	stmt.Set = p.parseAssignments()

	if p.match(token.FROM) {
		stmt.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}
	stmt.Returning = p.parseReturning()
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseDelete parses DELETE statements.
func (p *Parser) parseDelete(start token.Position, with *core.WithClause) core.Statement {
	p.expect(token.DELETE)
	p.expect(token.FROM)
	stmt := &core.DeleteStmt{With: with}
	stmt.Table = p.parseTargetTable(false)

	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}
	stmt.Returning = p.parseReturning()
	stmt.Span = p.spanFrom(start)
	return stmt
}
