package typecheck

import (
	"fmt"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// target resolves the table an INSERT, UPDATE or DELETE writes to.
func (c *checker) target(ref *core.TableName) (*core.Table, *relation, error) {
	table, err := c.cat.LookupTable(ref.Name)
	if err != nil {
		return nil, nil, core.UnknownTableError(ref.Name, ref.Pos())
	}
	name := ref.EffectiveName()
	rel := &relation{kind: relTable, name: name, key: c.norm(name), columns: table.Columns}
	return table, rel, nil
}

// statementFrame opens the frame for a DML statement's WITH clause.
func (c *checker) statementFrame(w *core.WithClause) (*Scope, error) {
	root := newScope(nil, c.norm)
	if w == nil {
		return root, nil
	}
	return c.with(w, root)
}

// insert validates an INSERT and types its values against the target
// columns. Coverage is the explicit column list, or every column when the
// list is omitted; a NOT NULL column without a default outside the
// coverage fails the statement.
func (c *checker) insert(stmt *core.InsertStmt) (*Result, error) {
	frame, err := c.statementFrame(stmt.With)
	if err != nil {
		return nil, err
	}
	table, rel, err := c.target(stmt.Table)
	if err != nil {
		return nil, err
	}

	targets := table.Columns
	if len(stmt.Columns) > 0 {
		targets = make([]core.Column, len(stmt.Columns))
		for i, name := range stmt.Columns {
			col, ok := rel.column(c.norm, name)
			if !ok {
				return nil, core.UnknownColumnError(table.Name, name, stmt.Pos())
			}
			targets[i] = col
		}
	}
	if stmt.DefaultValues {
		targets = nil
	}

	if err := c.coverage(table, targets, stmt); err != nil {
		return nil, err
	}

	values := frame.child()
	for r, row := range stmt.Values {
		if len(row) != len(targets) {
			return nil, &core.AnalysisError{
				Kind:    core.KindValueCountMismatch,
				Message: fmt.Sprintf("%d values for %d columns in row %d of insert into %q", len(row), len(targets), r+1, table.Name),
				Names:   []string{table.Name},
				Pos:     stmt.Pos(),
			}
		}
		for i, e := range row {
			if err := c.assign(e, targets[i], values); err != nil {
				return nil, err
			}
		}
	}

	if stmt.Select != nil {
		cols, err := c.selectStmt(stmt.Select, frame)
		if err != nil {
			return nil, err
		}
		if len(cols) != len(targets) {
			return nil, &core.AnalysisError{
				Kind:    core.KindValueCountMismatch,
				Message: fmt.Sprintf("query returns %d columns for %d target columns of %q", len(cols), len(targets), table.Name),
				Names:   []string{table.Name},
				Pos:     stmt.Select.Pos(),
			}
		}
	}

	if stmt.Upsert != nil {
		if err := c.upsert(stmt.Upsert, table, rel, frame); err != nil {
			return nil, err
		}
	}

	res := &Result{Kind: KindInsert}
	if len(stmt.Returning) > 0 {
		sc := frame.child()
		sc.relations = []*relation{rel}
		if res.Columns, err = c.projection(stmt.Returning, sc); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// coverage reports the mandatory columns an INSERT leaves out, in
// declaration order.
func (c *checker) coverage(table *core.Table, targets []core.Column, stmt *core.InsertStmt) error {
	covered := make(map[string]bool, len(targets))
	for _, col := range targets {
		covered[c.norm(col.Name)] = true
	}
	var missing []string
	for _, col := range table.Columns {
		if col.Mandatory() && !covered[c.norm(col.Name)] {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return core.MissingMandatoryColumnsError(table.Name, missing, stmt.Pos())
	}
	return nil
}

// upsert types ON CONFLICT ... DO UPDATE. The proposed row is visible as
// "excluded".
func (c *checker) upsert(u *core.Upsert, table *core.Table, rel *relation, frame *Scope) error {
	for _, name := range u.Target {
		if _, ok := rel.column(c.norm, name); !ok {
			return core.UnknownColumnError(table.Name, name, token.Position{})
		}
	}

	// Unqualified names mean the target row; excluded sits one frame out.
	proposed := frame.child()
	proposed.relations = []*relation{{kind: relTable, name: "excluded", key: c.norm("excluded"), columns: table.Columns}}
	sc := proposed.child()
	sc.relations = []*relation{rel}
	if u.TargetWhere != nil {
		if _, err := c.eval(u.TargetWhere, sc); err != nil {
			return err
		}
	}
	if err := c.assignments(u.Set, table, rel, sc); err != nil {
		return err
	}
	if u.Where != nil {
		if _, err := c.eval(u.Where, sc); err != nil {
			return err
		}
	}
	return nil
}

// assignments types SET col = expr pairs against the target columns.
func (c *checker) assignments(set []core.Assignment, table *core.Table, rel *relation, sc *Scope) error {
	for _, a := range set {
		col, ok := rel.column(c.norm, a.Column)
		if !ok {
			pos := token.Position{}
			if a.Value != nil {
				pos = a.Value.Pos()
			}
			return core.UnknownColumnError(table.Name, a.Column, pos)
		}
		if err := c.assign(a.Value, col, sc); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) update(stmt *core.UpdateStmt) (*Result, error) {
	frame, err := c.statementFrame(stmt.With)
	if err != nil {
		return nil, err
	}
	table, rel, err := c.target(stmt.Table)
	if err != nil {
		return nil, err
	}

	sc := frame.child()
	if err := sc.add(rel, stmt.Table.Pos()); err != nil {
		return nil, err
	}
	if stmt.From != nil {
		if err := c.from(stmt.From, sc); err != nil {
			return nil, err
		}
	}
	if err := c.assignments(stmt.Set, table, rel, sc); err != nil {
		return nil, err
	}
	if stmt.Where != nil {
		if _, err := c.eval(stmt.Where, sc); err != nil {
			return nil, err
		}
	}

	res := &Result{Kind: KindUpdate}
	if len(stmt.Returning) > 0 {
		ret := frame.child()
		ret.relations = []*relation{rel}
		if res.Columns, err = c.projection(stmt.Returning, ret); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (c *checker) delete(stmt *core.DeleteStmt) (*Result, error) {
	frame, err := c.statementFrame(stmt.With)
	if err != nil {
		return nil, err
	}
	_, rel, err := c.target(stmt.Table)
	if err != nil {
		return nil, err
	}

	sc := frame.child()
	sc.relations = []*relation{rel}
	if stmt.Where != nil {
		if _, err := c.eval(stmt.Where, sc); err != nil {
			return nil, err
		}
	}

	res := &Result{Kind: KindDelete}
	if len(stmt.Returning) > 0 {
		if res.Columns, err = c.projection(stmt.Returning, sc); err != nil {
			return nil, err
		}
	}
	return res, nil
}
