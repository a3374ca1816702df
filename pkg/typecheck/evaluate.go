package typecheck

import (
	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// eval computes the type of an expression in a scope. Only name
// resolution fails; every construct the evaluator does not model is
// {Unknown, nullable}.
func (c *checker) eval(expr core.Expr, sc *Scope) (core.Type, error) {
	switch e := expr.(type) {
	case nil:
		return core.UnknownType, nil

	case *core.Literal:
		return literalType(e), nil

	case *core.ColumnRef:
		return c.column(e, sc)

	case *core.Placeholder:
		return c.placeholder(e), nil

	case *core.ParenExpr:
		return c.eval(e.Expr, sc)

	case *core.CollateExpr:
		return c.eval(e.Expr, sc)

	case *core.BinaryExpr:
		return c.binary(e, sc)

	case *core.UnaryExpr:
		return c.unary(e, sc)

	case *core.FuncCall:
		return c.funcCall(e, sc)

	case *core.CaseExpr:
		return c.caseExpr(e, sc)

	case *core.CastExpr:
		inner, err := c.eval(e.Expr, sc)
		if err != nil {
			return core.Type{}, err
		}
		target := core.NotNull(catalog.MapType(e.TypeName))
		inner = c.infer(e.Expr, inner, target)
		return target.WithNullable(inner.Nullable), nil

	case *core.InExpr:
		return c.inExpr(e, sc)

	case *core.BetweenExpr:
		return c.between(e, sc)

	case *core.IsNullExpr:
		if _, err := c.eval(e.Expr, sc); err != nil {
			return core.Type{}, err
		}
		return core.NotNull(core.Bool), nil

	case *core.IsExpr:
		if _, _, err := c.pair(e.Left, e.Right, sc); err != nil {
			return core.Type{}, err
		}
		return core.NotNull(core.Bool), nil

	case *core.LikeExpr:
		return c.like(e, sc)

	case *core.SubqueryExpr:
		cols, err := c.selectStmt(e.Select, sc)
		if err != nil {
			return core.Type{}, err
		}
		if len(cols) != 1 {
			return core.UnknownType, nil
		}
		// no row means NULL
		return cols[0].Type.WithNullable(true), nil

	case *core.ExistsExpr:
		if _, err := c.selectStmt(e.Select, sc); err != nil {
			return core.Type{}, err
		}
		return core.NotNull(core.Bool), nil

	case *core.RowExpr:
		for _, v := range e.Values {
			if _, err := c.eval(v, sc); err != nil {
				return core.Type{}, err
			}
		}
		return core.UnknownType, nil

	default:
		return core.UnknownType, nil
	}
}

func literalType(l *core.Literal) core.Type {
	switch l.Type {
	case core.LiteralInteger:
		return core.NotNull(core.Integer)
	case core.LiteralReal:
		return core.NotNull(core.Real)
	case core.LiteralString:
		return core.NotNull(core.Text)
	case core.LiteralBool:
		return core.NotNull(core.Bool)
	case core.LiteralNull:
		return core.Nullable(core.Null)
	}
	return core.NotNull(core.Unknown)
}

// column resolves a column reference. In GROUP BY and HAVING an
// unqualified name that no relation exposes may name a select-list alias.
func (c *checker) column(ref *core.ColumnRef, sc *Scope) (core.Type, error) {
	t, err := sc.resolve(ref.Table, ref.Column, ref.Pos())
	if err == nil || ref.Table != "" || c.aliases == nil || !core.IsKind(err, core.KindUnknownColumn) {
		return t, err
	}
	if col, ok := c.aliases.column(sc.norm, ref.Column); ok {
		return col.Type, nil
	}
	return t, err
}

func isComparison(op token.TokenType) bool {
	switch op {
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
		return true
	}
	return false
}

func isArithmetic(op token.TokenType) bool {
	switch op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		return true
	}
	return false
}

func (c *checker) binary(e *core.BinaryExpr, sc *Scope) (core.Type, error) {
	switch {
	case e.Op == token.AND || e.Op == token.OR:
		l, err := c.eval(e.Left, sc)
		if err != nil {
			return core.Type{}, err
		}
		r, err := c.eval(e.Right, sc)
		if err != nil {
			return core.Type{}, err
		}
		return core.Type{Base: core.Bool, Nullable: l.Nullable || r.Nullable}, nil

	case isComparison(e.Op):
		if lr, ok := core.Unwrap(e.Left).(*core.RowExpr); ok {
			if rr, ok := core.Unwrap(e.Right).(*core.RowExpr); ok && len(lr.Values) == len(rr.Values) {
				return c.rowComparison(lr, rr, sc)
			}
		}
		l, r, err := c.pair(e.Left, e.Right, sc)
		if err != nil {
			return core.Type{}, err
		}
		return core.Type{Base: core.Bool, Nullable: l.Nullable || r.Nullable}, nil

	case isArithmetic(e.Op):
		l, r, err := c.pair(e.Left, e.Right, sc)
		if err != nil {
			return core.Type{}, err
		}
		return core.Type{Base: arithmeticBase(l.Base, r.Base), Nullable: l.Nullable || r.Nullable}, nil

	case e.Op == token.DPIPE:
		text := core.NotNull(core.Text)
		l, err := c.eval(e.Left, sc)
		if err != nil {
			return core.Type{}, err
		}
		r, err := c.eval(e.Right, sc)
		if err != nil {
			return core.Type{}, err
		}
		l = c.infer(e.Left, l, text)
		r = c.infer(e.Right, r, text)
		return core.Type{Base: core.Text, Nullable: l.Nullable || r.Nullable}, nil

	case e.Op == token.AMP || e.Op == token.PIPE || e.Op == token.LSHIFT || e.Op == token.RSHIFT:
		l, r, err := c.pair(e.Left, e.Right, sc)
		if err != nil {
			return core.Type{}, err
		}
		return core.Type{Base: core.Integer, Nullable: l.Nullable || r.Nullable}, nil
	}

	if _, _, err := c.pair(e.Left, e.Right, sc); err != nil {
		return core.Type{}, err
	}
	return core.UnknownType, nil
}

// rowComparison types (a, b) = (x, y) element-wise.
func (c *checker) rowComparison(l, r *core.RowExpr, sc *Scope) (core.Type, error) {
	nullable := false
	for i := range l.Values {
		lt, rt, err := c.pair(l.Values[i], r.Values[i], sc)
		if err != nil {
			return core.Type{}, err
		}
		nullable = nullable || lt.Nullable || rt.Nullable
	}
	return core.Type{Base: core.Bool, Nullable: nullable}, nil
}

// arithmeticBase is Real if either side is Real, Integer otherwise.
// Unknown operands make the result Unknown.
func arithmeticBase(l, r core.BaseType) core.BaseType {
	switch {
	case l == core.Unknown || r == core.Unknown:
		return core.Unknown
	case l == core.Real || r == core.Real:
		return core.Real
	}
	return core.Integer
}

func (c *checker) unary(e *core.UnaryExpr, sc *Scope) (core.Type, error) {
	t, err := c.eval(e.Expr, sc)
	if err != nil {
		return core.Type{}, err
	}
	switch e.Op {
	case token.NOT:
		return core.Type{Base: core.Bool, Nullable: t.Nullable}, nil
	case token.TILDE:
		return core.Type{Base: core.Integer, Nullable: t.Nullable}, nil
	case token.MINUS, token.PLUS:
		if t.Base == core.Bool {
			t.Base = core.Integer
		}
		return t, nil
	}
	return core.UnknownType, nil
}

func (c *checker) caseExpr(e *core.CaseExpr, sc *Scope) (core.Type, error) {
	var operand core.Type
	if e.Operand != nil {
		t, err := c.eval(e.Operand, sc)
		if err != nil {
			return core.Type{}, err
		}
		operand = t
	}

	results := make([]core.Expr, 0, len(e.Whens)+1)
	for _, w := range e.Whens {
		if e.Operand != nil {
			wt, err := c.eval(w.Condition, sc)
			if err != nil {
				return core.Type{}, err
			}
			operand = c.infer(e.Operand, operand, wt)
			c.infer(w.Condition, wt, operand)
		} else if _, err := c.eval(w.Condition, sc); err != nil {
			return core.Type{}, err
		}
		results = append(results, w.Result)
	}
	if e.Else != nil {
		results = append(results, e.Else)
	}

	t, _, err := c.unifyArgs(results, sc)
	if err != nil {
		return core.Type{}, err
	}
	if e.Else == nil {
		t.Nullable = true
	}
	return t, nil
}

// unifyArgs evaluates exprs and unifies their types. Placeholders among
// them take the unified type of the rest. Incompatible arms give Unknown.
// It also returns each argument's type as seen at this site.
func (c *checker) unifyArgs(exprs []core.Expr, sc *Scope) (core.Type, []core.Type, error) {
	types := make([]core.Type, len(exprs))
	for i, e := range exprs {
		t, err := c.eval(e, sc)
		if err != nil {
			return core.Type{}, nil, err
		}
		types[i] = t
	}

	var (
		out   core.Type
		first = true
	)
	for _, t := range types {
		if t.Base == core.PlaceholderType {
			continue
		}
		if first {
			out, first = t, false
			continue
		}
		u, ok := core.Union(out, t)
		if !ok {
			u = core.UnknownType
		}
		out = u
	}
	if first {
		// every arm is an untyped placeholder
		return core.Nullable(core.PlaceholderType), types, nil
	}

	for i, e := range exprs {
		types[i] = c.infer(e, types[i], out)
	}
	return out, types, nil
}

func (c *checker) inExpr(e *core.InExpr, sc *Scope) (core.Type, error) {
	tested, err := c.eval(e.Expr, sc)
	if err != nil {
		return core.Type{}, err
	}
	nullable := tested.Nullable

	if e.Query != nil {
		cols, err := c.selectStmt(e.Query, sc)
		if err != nil {
			return core.Type{}, err
		}
		if len(cols) == 1 {
			tested = c.infer(e.Expr, tested, cols[0].Type)
			nullable = tested.Nullable || cols[0].Type.Nullable
		}
		return core.Type{Base: core.Bool, Nullable: nullable}, nil
	}

	if tested.Base == core.PlaceholderType {
		list, _, err := c.unifyArgs(e.Values, sc)
		if err != nil {
			return core.Type{}, err
		}
		tested = c.infer(e.Expr, tested, list)
		return core.Type{Base: core.Bool, Nullable: tested.Nullable || list.Nullable}, nil
	}

	for _, v := range e.Values {
		vt, err := c.eval(v, sc)
		if err != nil {
			return core.Type{}, err
		}
		vt = c.infer(v, vt, tested)
		nullable = nullable || vt.Nullable
	}
	return core.Type{Base: core.Bool, Nullable: nullable}, nil
}

func (c *checker) between(e *core.BetweenExpr, sc *Scope) (core.Type, error) {
	tested, err := c.eval(e.Expr, sc)
	if err != nil {
		return core.Type{}, err
	}
	low, err := c.eval(e.Low, sc)
	if err != nil {
		return core.Type{}, err
	}
	high, err := c.eval(e.High, sc)
	if err != nil {
		return core.Type{}, err
	}

	if tested.Base == core.PlaceholderType {
		bounds, _ := core.Union(low, high)
		tested = c.infer(e.Expr, tested, bounds)
	}
	low = c.infer(e.Low, low, tested)
	high = c.infer(e.High, high, tested)
	return core.Type{Base: core.Bool, Nullable: tested.Nullable || low.Nullable || high.Nullable}, nil
}

func (c *checker) like(e *core.LikeExpr, sc *Scope) (core.Type, error) {
	text := core.NotNull(core.Text)
	nullable := false
	for _, x := range []core.Expr{e.Expr, e.Pattern, e.Escape} {
		if x == nil {
			continue
		}
		t, err := c.eval(x, sc)
		if err != nil {
			return core.Type{}, err
		}
		t = c.infer(x, t, text)
		nullable = nullable || t.Nullable
	}
	return core.Type{Base: core.Bool, Nullable: nullable}, nil
}
