package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Schema definition parsing: CREATE TABLE.
//
// Grammar:
//
//	create_table  → CREATE [TEMP|TEMPORARY] TABLE [IF NOT EXISTS] [schema "."] identifier
//	                ( "(" column_def ("," column_def)* ("," table_constraint)* ")" [table_options]
//	                | AS select )
//	column_def    → identifier [type_name] (column_constraint)*
//	column_constraint
//	              → [CONSTRAINT identifier]
//	                ( PRIMARY KEY [ASC|DESC] [conflict_clause] [AUTOINCREMENT]
//	                | NOT NULL [conflict_clause] | NULL
//	                | UNIQUE [conflict_clause]
//	                | CHECK "(" expr ")"
//	                | DEFAULT (literal | signed_number | identifier | "(" expr ")")
//	                | COLLATE identifier
//	                | REFERENCES identifier ["(" ident_list ")"] {fk_action}
//	                | [GENERATED ALWAYS] AS "(" expr ")" [STORED|VIRTUAL]
//	                | GENERATED (ALWAYS | BY DEFAULT) AS IDENTITY ["(" ... ")"] )
//	table_constraint
//	              → [CONSTRAINT identifier]
//	                ( PRIMARY KEY "(" ident_list ")" [conflict_clause]
//	                | UNIQUE "(" ident_list ")" [conflict_clause]
//	                | CHECK "(" expr ")"
//	                | FOREIGN KEY "(" ident_list ")" REFERENCES ... )
//	table_options → (WITHOUT ROWID | STRICT) ("," (WITHOUT ROWID | STRICT))*

// isCreateTable reports whether the current CREATE starts a CREATE TABLE.
func (p *Parser) isCreateTable() bool {
	if !p.check(token.CREATE) {
		return false
	}
	switch p.peek.Type {
	case token.TABLE:
		return true
	case token.TEMP, token.TEMPORARY:
		return p.peek2.Type == token.TABLE
	}
	return false
}

// parseCreateTable parses CREATE TABLE.
func (p *Parser) parseCreateTable(start token.Position) core.Statement {
	p.expect(token.CREATE)
	stmt := &core.CreateTableStmt{}
	if p.match(token.TEMP) || p.match(token.TEMPORARY) {
		stmt.Temporary = true
	}
	p.expect(token.TABLE)

	if p.match(token.IF) {
		p.expect(token.NOT)
		p.expect(token.EXISTS)
		stmt.IfNotExists = true
	}

	stmt.Schema, stmt.Name = p.parseQualifiedName()

	if p.match(token.AS) {
		stmt.AsSelect = p.parseSelectStmt()
		stmt.Span = p.spanFrom(start)
		return stmt
	}

	p.expect(token.LPAREN)
	for !p.failed() {
		if p.isTableConstraintStart() {
			stmt.Constraints = append(stmt.Constraints, p.parseTableConstraint())
		} else {
			if len(stmt.Constraints) > 0 {
				p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "table constraint"))
				return nil
			}
			stmt.Columns = append(stmt.Columns, p.parseColumnDef())
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)

	p.parseTableOptions(stmt)

	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) isTableConstraintStart() bool {
	switch p.token.Type {
	case token.CONSTRAINT, token.PRIMARY, token.UNIQUE, token.CHECK, token.FOREIGN:
		return true
	}
	return false
}

// parseTableOptions parses WITHOUT ROWID and STRICT after the column list.
func (p *Parser) parseTableOptions(stmt *core.CreateTableStmt) {
	for !p.failed() {
		switch {
		case p.match(token.WITHOUT):
			p.expectWord("ROWID")
			stmt.WithoutRowID = true
		case p.matchWord("STRICT"):
			stmt.Strict = true
		default:
			return
		}
		if !p.match(token.COMMA) {
			return
		}
	}
}

// parseColumnDef parses one column definition.
func (p *Parser) parseColumnDef() core.ColumnDef {
	start := p.token.Pos
	col := core.ColumnDef{}
	col.Name = p.parseIdent()
	col.TypeName = p.parseTypeName()

	for !p.failed() && !p.check(token.COMMA) && !p.check(token.RPAREN) {
		if !p.parseColumnConstraint(&col) {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "column constraint"))
			break
		}
	}

	col.Span = p.spanFrom(start)
	return col
}

// parseColumnConstraint parses one column constraint into col.
// It returns false if the current token does not start a constraint.
func (p *Parser) parseColumnConstraint(col *core.ColumnDef) bool {
	switch {
	case p.match(token.CONSTRAINT):
		p.parseIdent()

	case p.match(token.PRIMARY):
		p.expect(token.KEY)
		col.PrimaryKey = true
		if !p.match(token.ASC) {
			p.match(token.DESC)
		}
		p.parseConflictClause()
		if p.match(token.AUTOINCREMENT) {
			col.Autoincrement = true
		}

	case p.match(token.NOT):
		p.expect(token.NULL)
		col.NotNull = true
		p.parseConflictClause()

	case p.match(token.NULL):
		p.parseConflictClause()

	case p.match(token.UNIQUE):
		col.Unique = true
		p.parseConflictClause()

	case p.check(token.CHECK):
		col.Checks = append(col.Checks, p.parseCheck())

	case p.match(token.DEFAULT):
		col.HasDefault = true
		col.Default = p.parseDefaultValue()

	case p.match(token.COLLATE):
		col.Collate = p.parseIdent()

	case p.match(token.REFERENCES):
		col.References = p.parseForeignKeyRef()

	case p.isWord("GENERATED"):
		p.parseGeneratedColumn(col)

	case p.match(token.AS):
		col.Generated = p.parseGeneratedExpr()

	default:
		return false
	}
	return true
}

// parseConflictClause skips an optional ON CONFLICT action on a constraint.
func (p *Parser) parseConflictClause() {
	if p.check(token.ON) && p.peek.Type == token.IDENT && strings.EqualFold(p.peek.Literal, "CONFLICT") {
		p.nextToken()
		p.nextToken()
		p.parseConflictAction()
	}
}

// parseCheck parses CHECK "(" expr ")" keeping the expression text.
func (p *Parser) parseCheck() core.CheckConstraint {
	p.expect(token.CHECK)
	p.expect(token.LPAREN)
	start := p.token.Pos
	check := core.CheckConstraint{Expr: p.parseExpression()}
	check.Text = p.textFrom(start)
	p.expect(token.RPAREN)
	return check
}

// parseDefaultValue parses the value of a DEFAULT clause. Only prefix
// expressions are allowed so the next constraint is not swallowed.
func (p *Parser) parseDefaultValue() core.Expr {
	return p.parsePrefixExprNoNot()
}

func (p *Parser) parsePrefixExprNoNot() core.Expr {
	if p.check(token.NOT) {
		p.addError(fmt.Sprintf(ErrExpectedExpression, describe(p.token)))
		return nil
	}
	start := p.token.Pos
	if p.check(token.MINUS) || p.check(token.PLUS) {
		op := p.token.Type
		p.nextToken()
		operand := p.parsePrimary()
		if operand == nil {
			return nil
		}
		expr := &core.UnaryExpr{Op: op, Expr: operand}
		expr.Span = p.spanFrom(start)
		return expr
	}
	expr := p.parsePrimary()
	// Postgres-style casts in defaults: DEFAULT 'x'::text
	for expr != nil && p.check(token.DCOLON) {
		expr = p.parseInfixExpr(expr, precPostfix)
	}
	return expr
}

// parseForeignKeyRef parses the part after REFERENCES, skipping actions.
func (p *Parser) parseForeignKeyRef() *core.ForeignKeyRef {
	ref := &core.ForeignKeyRef{}
	_, ref.Table = p.parseQualifiedName()
	if p.check(token.LPAREN) {
		ref.Columns = p.parseIdentList()
	}

	for !p.failed() {
		switch {
		case p.check(token.ON) && (p.peek.Type == token.DELETE || p.peek.Type == token.UPDATE):
			p.nextToken()
			p.nextToken()
			p.parseForeignKeyAction()
		case p.matchWord("MATCH"):
			p.parseIdent()
		case p.check(token.NOT) && p.peek.Type == token.IDENT && strings.EqualFold(p.peek.Literal, "DEFERRABLE"):
			p.nextToken()
			p.nextToken()
			p.parseDeferrable()
		case p.matchWord("DEFERRABLE"):
			p.parseDeferrable()
		default:
			return ref
		}
	}
	return ref
}

func (p *Parser) parseForeignKeyAction() {
	switch {
	case p.match(token.SET):
		if !p.match(token.NULL) {
			p.expect(token.DEFAULT)
		}
	case p.matchWord("CASCADE"), p.matchWord("RESTRICT"):
	case p.matchWord("NO"):
		p.expectWord("ACTION")
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "foreign key action"))
	}
}

func (p *Parser) parseDeferrable() {
	if p.matchWord("INITIALLY") {
		if !p.matchWord("DEFERRED") {
			p.expectWord("IMMEDIATE")
		}
	}
}

// parseGeneratedColumn parses GENERATED ALWAYS AS (expr) and identity columns.
func (p *Parser) parseGeneratedColumn(col *core.ColumnDef) {
	p.expectWord("GENERATED")
	byDefault := false
	if !p.matchWord("ALWAYS") {
		p.expect(token.BY)
		p.expect(token.DEFAULT)
		byDefault = true
	}
	p.expect(token.AS)
	if p.matchWord("IDENTITY") {
		col.HasDefault = true
		if p.check(token.LPAREN) {
			p.skipParens()
		}
		return
	}
	if byDefault {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "IDENTITY"))
		return
	}
	col.Generated = p.parseGeneratedExpr()
}

func (p *Parser) parseGeneratedExpr() core.Expr {
	p.expect(token.LPAREN)
	expr := p.parseExpression()
	p.expect(token.RPAREN)
	if !p.matchWord("STORED") {
		p.matchWord("VIRTUAL")
	}
	return expr
}

// skipParens consumes a balanced parenthesized token run.
func (p *Parser) skipParens() {
	depth := 0
	for !p.check(token.EOF) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		p.nextToken()
		if depth == 0 {
			return
		}
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), token.RPAREN))
}

// parseTableConstraint parses a table-level constraint.
func (p *Parser) parseTableConstraint() core.TableConstraint {
	tc := core.TableConstraint{}
	if p.match(token.CONSTRAINT) {
		tc.Name = p.parseIdent()
	}

	switch {
	case p.match(token.PRIMARY):
		p.expect(token.KEY)
		tc.Type = core.ConstraintPrimaryKey
		tc.Columns = p.parseIdentList()
		p.parseConflictClause()
	case p.match(token.UNIQUE):
		tc.Type = core.ConstraintUnique
		tc.Columns = p.parseIdentList()
		p.parseConflictClause()
	case p.check(token.CHECK):
		tc.Type = core.ConstraintCheck
		check := p.parseCheck()
		tc.Check = &check
	case p.match(token.FOREIGN):
		p.expect(token.KEY)
		tc.Type = core.ConstraintForeignKey
		tc.Columns = p.parseIdentList()
		p.expect(token.REFERENCES)
		tc.References = p.parseForeignKeyRef()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "PRIMARY KEY, UNIQUE, CHECK or FOREIGN KEY"))
	}
	return tc
}
