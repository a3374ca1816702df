package core

import "github.com/leapstack-labs/sqltype/pkg/token"

// ---------- Expression Types ----------

// ColumnRef represents a column reference (possibly qualified).
type ColumnRef struct {
	NodeInfo
	Table  string // optional table/alias qualifier
	Column string
}

func (*ColumnRef) exprNode() {}

// Literal represents a literal value.
type Literal struct {
	NodeInfo
	Type  LiteralType
	Value string
}

func (*Literal) exprNode() {}

// LiteralType represents the type of a literal.
type LiteralType int

// LiteralType constants for SQL literal value types.
const (
	LiteralInteger LiteralType = iota
	LiteralReal
	LiteralString
	LiteralBlob
	LiteralBool
	LiteralNull
)

// PlaceholderStyle is the syntax used to mark a bound parameter.
type PlaceholderStyle int

// PlaceholderStyle constants.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ? or ?NNN
	PlaceholderDollar                           // $1, $2, ...
	PlaceholderNamed                            // :name, @name, $name
)

func (s PlaceholderStyle) String() string {
	switch s {
	case PlaceholderDollar:
		return "dollar"
	case PlaceholderNamed:
		return "named"
	default:
		return "question"
	}
}

// Placeholder is a bound-parameter marker.
type Placeholder struct {
	NodeInfo
	// Index is the 1-based textual occurrence of this marker in the statement.
	Index int
	Style PlaceholderStyle
	// Label is the marker as written (e.g. "?", "$2", ":id").
	Label string
	// Number is the numeric label for $N and ?N markers, 0 otherwise.
	Number int
}

func (*Placeholder) exprNode() {}

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	NodeInfo
	Left  Expr
	Op    token.TokenType
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary expression (NOT, -, +, ~).
type UnaryExpr struct {
	NodeInfo
	Op   token.TokenType
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	NodeInfo
	Name     string // uppercased
	Distinct bool
	Args     []Expr
	Star     bool // COUNT(*)
	Filter   Expr // FILTER (WHERE ...)
	Window   *WindowSpec
}

func (*FuncCall) exprNode() {}

// WindowSpec represents an OVER (...) clause.
type WindowSpec struct {
	Name        string // OVER w
	PartitionBy []Expr
	OrderBy     []OrderByItem
	Frame       string // raw frame text, kept for display only
}

// CaseExpr represents a CASE expression.
type CaseExpr struct {
	NodeInfo
	Operand Expr // nil for searched CASE
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// WhenClause represents a WHEN ... THEN ... arm.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr represents CAST(expr AS type).
type CastExpr struct {
	NodeInfo
	Expr     Expr
	TypeName string
}

func (*CastExpr) exprNode() {}

// InExpr represents an IN expression.
type InExpr struct {
	NodeInfo
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

func (*InExpr) exprNode() {}

// BetweenExpr represents a BETWEEN expression.
type BetweenExpr struct {
	NodeInfo
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}

// IsNullExpr represents IS [NOT] NULL, ISNULL and NOTNULL.
type IsNullExpr struct {
	NodeInfo
	Expr Expr
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// IsExpr represents IS [NOT] TRUE/FALSE and IS [NOT] DISTINCT FROM style
// comparisons against an arbitrary right operand.
type IsExpr struct {
	NodeInfo
	Left  Expr
	Not   bool
	Right Expr
}

func (*IsExpr) exprNode() {}

// LikeExpr represents LIKE, GLOB and ILIKE.
type LikeExpr struct {
	NodeInfo
	Expr    Expr
	Not     bool
	Op      token.TokenType
	Pattern Expr
	Escape  Expr
}

func (*LikeExpr) exprNode() {}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	NodeInfo
	Expr Expr
}

func (*ParenExpr) exprNode() {}

// SubqueryExpr represents a scalar subquery.
type SubqueryExpr struct {
	NodeInfo
	Select *SelectStmt
}

func (*SubqueryExpr) exprNode() {}

// ExistsExpr represents [NOT] EXISTS (subquery).
type ExistsExpr struct {
	NodeInfo
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) exprNode() {}

// CollateExpr represents expr COLLATE name.
type CollateExpr struct {
	NodeInfo
	Expr      Expr
	Collation string
}

func (*CollateExpr) exprNode() {}

// RowExpr represents a row value (a, b, c).
type RowExpr struct {
	NodeInfo
	Values []Expr
}

func (*RowExpr) exprNode() {}

// StarExpr represents * or t.* used as an expression.
type StarExpr struct {
	NodeInfo
	Table string
}

func (*StarExpr) exprNode() {}

// Unwrap strips any number of enclosing parentheses.
func Unwrap(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}
