package catalog

import (
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// boolCheckColumn reports which column a CHECK expression restricts to the
// values 0 and 1. Two shapes are recognized, in any operand order:
//
//	col IN (0, 1)
//	col = 0 OR col = 1
func boolCheckColumn(e core.Expr) (string, bool) {
	switch e := core.Unwrap(e).(type) {
	case *core.InExpr:
		ref, ok := core.Unwrap(e.Expr).(*core.ColumnRef)
		if !ok || e.Not || e.Query != nil || len(e.Values) != 2 {
			return "", false
		}
		a, okA := intLiteral(e.Values[0])
		b, okB := intLiteral(e.Values[1])
		if okA && okB && isZeroOne(a, b) {
			return ref.Column, true
		}

	case *core.BinaryExpr:
		if e.Op != token.OR {
			return "", false
		}
		colA, a, okA := columnEquals(e.Left)
		colB, b, okB := columnEquals(e.Right)
		if okA && okB && strings.EqualFold(colA, colB) && isZeroOne(a, b) {
			return colA, true
		}
	}
	return "", false
}

// columnEquals matches col = N and N = col.
func columnEquals(e core.Expr) (string, string, bool) {
	bin, ok := core.Unwrap(e).(*core.BinaryExpr)
	if !ok || bin.Op != token.EQ {
		return "", "", false
	}
	if ref, ok := core.Unwrap(bin.Left).(*core.ColumnRef); ok {
		if v, ok := intLiteral(bin.Right); ok {
			return ref.Column, v, true
		}
	}
	if ref, ok := core.Unwrap(bin.Right).(*core.ColumnRef); ok {
		if v, ok := intLiteral(bin.Left); ok {
			return ref.Column, v, true
		}
	}
	return "", "", false
}

func intLiteral(e core.Expr) (string, bool) {
	lit, ok := core.Unwrap(e).(*core.Literal)
	if !ok || lit.Type != core.LiteralInteger {
		return "", false
	}
	return lit.Value, true
}

func isZeroOne(a, b string) bool {
	return (a == "0" && b == "1") || (a == "1" && b == "0")
}
