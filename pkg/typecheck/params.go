package typecheck

import (
	"slices"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Parameter inference.
//
// The evaluator records every placeholder it visits. A placeholder gets a
// type only at a site that supplies one:
//
//	a = ?, ? < a, a + ?      the other operand
//	a = -?, +? < a           the other operand, through the sign
//	a IN (?, ?), ? IN (...)  the tested expression, or the list
//	a BETWEEN ? AND ?        the tested expression
//	a LIKE ?, ? || a         Text
//	CAST(? AS t)             t
//	COALESCE(a, ?), CASE     the unified type of the other arms
//	LIMIT ? OFFSET ?         Integer
//	SET col = ?, VALUES (?)  the target column
//
// Anything else, a bare projection item for example, leaves the
// placeholder untyped and fails the statement.

// placeholder records a visit and returns the placeholder's current type.
func (c *checker) placeholder(p *core.Placeholder) core.Type {
	if _, ok := c.seen[p.Index]; !ok {
		c.seen[p.Index] = p
	}
	if t, ok := c.bound[p.Index]; ok {
		return t
	}
	return core.Nullable(core.PlaceholderType)
}

// bind assigns a type to a placeholder. The first binding wins.
func (c *checker) bind(p *core.Placeholder, t core.Type) {
	c.seen[p.Index] = p
	if _, ok := c.bound[p.Index]; !ok {
		c.bound[p.Index] = t
	}
}

// infer types expr from other when expr is an untyped placeholder, and
// returns the type expr should be treated as at this site. Comparison
// sites never bind NULL, so the bound type is not nullable.
func (c *checker) infer(expr core.Expr, self, other core.Type) core.Type {
	p, ok := signed(expr)
	if !ok || self.Base != core.PlaceholderType {
		return self
	}
	if other.Base == core.PlaceholderType || other.Base == core.Null {
		return self
	}
	t := other.WithNullable(false)
	c.bind(p, t)
	return t
}

// signed finds the placeholder under any parentheses and unary signs.
func signed(expr core.Expr) (*core.Placeholder, bool) {
	for {
		switch e := core.Unwrap(expr).(type) {
		case *core.Placeholder:
			return e, true
		case *core.UnaryExpr:
			if e.Op != token.MINUS && e.Op != token.PLUS {
				return nil, false
			}
			expr = e.Expr
		default:
			return nil, false
		}
	}
}

// assign types expr as a value written into a column: a bare placeholder
// takes the column's type, including its nullability.
func (c *checker) assign(expr core.Expr, col core.Column, sc *Scope) error {
	if p, ok := core.Unwrap(expr).(*core.Placeholder); ok {
		c.bind(p, col.Type)
		return nil
	}
	t, err := c.eval(expr, sc)
	if err != nil {
		return err
	}
	c.infer(expr, t, col.Type)
	return nil
}

// pair evaluates both operands of a binary site and cross-infers them.
func (c *checker) pair(left, right core.Expr, sc *Scope) (core.Type, core.Type, error) {
	l, err := c.eval(left, sc)
	if err != nil {
		return core.Type{}, core.Type{}, err
	}
	r, err := c.eval(right, sc)
	if err != nil {
		return core.Type{}, core.Type{}, err
	}
	l = c.infer(left, l, r)
	r = c.infer(right, r, l)
	return l, r, nil
}

// integer types a LIMIT or OFFSET expression.
func (c *checker) integer(expr core.Expr, sc *Scope) error {
	if expr == nil {
		return nil
	}
	t, err := c.eval(expr, sc)
	if err != nil {
		return err
	}
	c.infer(expr, t, core.NotNull(core.Integer))
	return nil
}

// params returns the statement's parameters in textual order, or a
// CannotInferPlaceholderType error for the first one left untyped.
func (c *checker) params() ([]Param, error) {
	indexes := make([]int, 0, len(c.seen))
	for i := range c.seen {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)

	out := make([]Param, 0, len(indexes))
	for _, i := range indexes {
		p := c.seen[i]
		t, ok := c.bound[i]
		if !ok {
			return nil, core.CannotInferPlaceholderError(p)
		}
		out = append(out, Param{Index: p.Index, Label: p.Label, Type: t})
	}
	return out, nil
}
