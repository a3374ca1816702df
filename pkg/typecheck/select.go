package typecheck

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// selectStmt types a full query, WITH clause included, nested in outer.
func (c *checker) selectStmt(stmt *core.SelectStmt, outer *Scope) ([]OutputColumn, error) {
	// Select-list aliases never reach into a nested query.
	prev := c.aliases
	c.aliases = nil
	defer func() { c.aliases = prev }()

	sc := outer
	if stmt.With != nil {
		frame, err := c.with(stmt.With, outer)
		if err != nil {
			return nil, err
		}
		sc = frame
	}
	return c.body(stmt.Body, sc)
}

// with types each CTE in order and registers it in a new frame. A CTE is
// visible to the CTEs after it and to the statement body.
func (c *checker) with(w *core.WithClause, outer *Scope) (*Scope, error) {
	frame := outer.child()
	for _, cte := range w.CTEs {
		var (
			cols []OutputColumn
			err  error
		)
		if w.Recursive && len(cte.Select.Body.Arms()) > 1 {
			cols, err = c.recursiveCTE(cte, frame)
		} else {
			cols, err = c.selectStmt(cte.Select, frame)
			if err == nil {
				cols, err = renameColumns(cte, cols)
			}
		}
		if err != nil {
			return nil, err
		}
		rel := &relation{kind: relCTE, name: cte.Name, key: frame.norm(cte.Name), columns: outputToColumns(cols)}
		if err := frame.addCTE(rel, cte.Pos()); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// recursiveCTE types a recursive CTE in a single pass. The first arm fixes
// the CTE's types; later arms see the CTE under those types and are checked
// against them without widening them.
func (c *checker) recursiveCTE(cte *core.CTE, frame *Scope) ([]OutputColumn, error) {
	body := cte.Select.Body
	arms := body.Arms()

	base, _, err := c.selectCore(arms[0], frame)
	if err != nil {
		return nil, err
	}
	base, err = renameColumns(cte, base)
	if err != nil {
		return nil, err
	}

	inner := frame.child()
	if err := inner.addCTE(&relation{kind: relCTE, name: cte.Name, key: frame.norm(cte.Name), columns: outputToColumns(base)}, cte.Pos()); err != nil {
		return nil, err
	}

	for _, arm := range arms[1:] {
		cols, _, err := c.selectCore(arm, inner)
		if err != nil {
			return nil, err
		}
		if len(cols) != len(base) {
			return nil, columnCountError(len(base), len(cols), arm)
		}
		for i := range cols {
			if !widens(base[i].Type, cols[i].Type) {
				continue
			}
			if c.opts.StrictRecursive {
				return nil, &core.AnalysisError{
					Kind: core.KindRecursiveTypeMismatch,
					Message: fmt.Sprintf("recursive CTE %q column %q is %s in the base case but %s in the recursive case",
						cte.Name, base[i].Name, base[i].Type, cols[i].Type),
					Names: []string{cte.Name, base[i].Name},
					Pos:   arm.Pos(),
				}
			}
			c.logger.Warn("recursive CTE arm diverges from base case",
				"cte", cte.Name, "column", base[i].Name, "base", base[i].Type.String(), "recursive", cols[i].Type.String())
		}
	}

	if err := c.orderAndLimit(body, base, inner, nil); err != nil {
		return nil, err
	}
	return base, nil
}

// widens reports whether a recursive arm's column would change the fixed
// type: a different base, Integer to Real, or not null to nullable.
func widens(fixed, arm core.Type) bool {
	if arm.Nullable && !fixed.Nullable {
		return true
	}
	switch arm.Base {
	case fixed.Base, core.Null, core.PlaceholderType, core.Unknown:
		return false
	}
	return fixed.Base != core.Unknown
}

func renameColumns(cte *core.CTE, cols []OutputColumn) ([]OutputColumn, error) {
	if len(cte.Columns) == 0 {
		return cols, nil
	}
	if len(cte.Columns) != len(cols) {
		return nil, &core.AnalysisError{
			Kind:    core.KindValueCountMismatch,
			Message: fmt.Sprintf("CTE %q names %d columns but its query returns %d", cte.Name, len(cte.Columns), len(cols)),
			Names:   []string{cte.Name},
			Pos:     cte.Pos(),
		}
	}
	out := make([]OutputColumn, len(cols))
	for i, col := range cols {
		out[i] = OutputColumn{Name: cte.Columns[i], Type: col.Type}
	}
	return out, nil
}

// body types a possibly compound query body. Each output position unifies
// across all arms: bases promote, nullability is ORed, and names come from
// the first arm.
func (c *checker) body(b *core.SelectBody, sc *Scope) ([]OutputColumn, error) {
	arms := b.Arms()
	out, first, err := c.selectCore(arms[0], sc)
	if err != nil {
		return nil, err
	}

	for _, arm := range arms[1:] {
		cols, _, err := c.selectCore(arm, sc)
		if err != nil {
			return nil, err
		}
		if len(cols) != len(out) {
			return nil, columnCountError(len(out), len(cols), arm)
		}
		for i := range cols {
			u, ok := core.Union(out[i].Type, cols[i].Type)
			if !ok {
				return nil, &core.AnalysisError{
					Kind: core.KindIncompatibleSetOperation,
					Message: fmt.Sprintf("set operation column %d (%s) mixes %s and %s",
						i+1, out[i].Name, out[i].Type.Base, cols[i].Type.Base),
					Names: []string{out[i].Name},
					Pos:   arm.Pos(),
				}
			}
			out[i].Type = u
		}
	}

	// ORDER BY of a simple query also sees the FROM clause.
	from := sc
	if len(arms) == 1 {
		from = first
	}
	if err := c.orderAndLimit(b, out, from, sc); err != nil {
		return nil, err
	}
	return out, nil
}

// orderAndLimit types ORDER BY, LIMIT and OFFSET. ORDER BY resolves
// select-list names before the FROM clause.
func (c *checker) orderAndLimit(b *core.SelectBody, out []OutputColumn, from, outer *Scope) error {
	if len(b.OrderBy) > 0 {
		order := from.child()
		order.relations = []*relation{{kind: relOutput, columns: outputToColumns(out)}}
		for _, item := range b.OrderBy {
			if _, err := c.eval(item.Expr, order); err != nil {
				return err
			}
		}
	}
	if outer == nil {
		outer = from
	}
	if err := c.integer(b.Limit, outer); err != nil {
		return err
	}
	return c.integer(b.Offset, outer)
}

// selectCore types one SELECT or VALUES arm and returns its output columns
// and the scope of its FROM clause.
func (c *checker) selectCore(sel *core.SelectCore, outer *Scope) ([]OutputColumn, *Scope, error) {
	sc := outer.child()
	if sel.Values != nil {
		cols, err := c.values(sel, sc)
		return cols, sc, err
	}

	if sel.From != nil {
		if err := c.from(sel.From, sc); err != nil {
			return nil, nil, err
		}
	}

	out, err := c.projection(sel.Columns, sc)
	if err != nil {
		return nil, nil, err
	}

	if sel.Where != nil {
		if _, err := c.eval(sel.Where, sc); err != nil {
			return nil, nil, err
		}
	}

	prev := c.aliases
	c.aliases = &relation{kind: relOutput, columns: outputToColumns(out)}
	defer func() { c.aliases = prev }()

	for _, g := range sel.GroupBy {
		if _, err := c.eval(g, sc); err != nil {
			return nil, nil, err
		}
	}
	if sel.Having != nil {
		if _, err := c.eval(sel.Having, sc); err != nil {
			return nil, nil, err
		}
	}
	for _, w := range sel.Windows {
		if w.Spec != nil {
			if err := c.windowSpec(w.Spec, sc); err != nil {
				return nil, nil, err
			}
		}
	}
	return out, sc, nil
}

// projection expands a select list into output columns.
func (c *checker) projection(items []core.SelectItem, sc *Scope) ([]OutputColumn, error) {
	var out []OutputColumn
	for _, item := range items {
		switch {
		case item.Star:
			for _, rel := range sc.relations {
				for _, col := range rel.starColumns(sc.norm) {
					out = append(out, OutputColumn{Name: col.Name, Type: col.Type})
				}
			}

		case item.TableStar != "":
			rel := sc.local(sc.norm(item.TableStar))
			if rel == nil {
				return nil, core.UnknownTableError(item.TableStar, itemPos(item))
			}
			for _, col := range rel.columns {
				out = append(out, OutputColumn{Name: col.Name, Type: col.Type})
			}

		default:
			t, err := c.eval(item.Expr, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, OutputColumn{Name: itemName(item), Type: t})
		}
	}
	return out, nil
}

// itemName names an output column: its alias, its column name, or the
// expression text.
func itemName(item core.SelectItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	if ref, ok := core.Unwrap(item.Expr).(*core.ColumnRef); ok {
		return ref.Column
	}
	return item.Text
}

func itemPos(item core.SelectItem) (pos token.Position) {
	if item.Expr != nil {
		return item.Expr.Pos()
	}
	return pos
}

// values types a VALUES arm. Columns are named column1, column2, ...
// and unify across rows.
func (c *checker) values(sel *core.SelectCore, sc *Scope) ([]OutputColumn, error) {
	var out []OutputColumn
	for r, row := range sel.Values {
		if r == 0 {
			out = make([]OutputColumn, len(row))
			for i := range row {
				out[i].Name = "column" + strconv.Itoa(i+1)
			}
		} else if len(row) != len(out) {
			return nil, &core.AnalysisError{
				Kind:    core.KindValueCountMismatch,
				Message: fmt.Sprintf("VALUES row %d has %d values, expected %d", r+1, len(row), len(out)),
				Pos:     sel.Pos(),
			}
		}
		for i, e := range row {
			t, err := c.eval(e, sc)
			if err != nil {
				return nil, err
			}
			if r == 0 {
				out[i].Type = t
				continue
			}
			u, ok := core.Union(out[i].Type, t)
			if !ok {
				u = core.UnknownType
			}
			out[i].Type = u
		}
	}
	return out, nil
}

func columnCountError(want, got int, at core.Node) *core.AnalysisError {
	return &core.AnalysisError{
		Kind:    core.KindIncompatibleSetOperation,
		Message: fmt.Sprintf("set operation arms return %d and %d columns", want, got),
		Pos:     at.Pos(),
	}
}
