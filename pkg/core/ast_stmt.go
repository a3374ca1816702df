package core

// ---------- Query Statements ----------

// SelectStmt represents a complete SELECT statement with optional WITH clause.
type SelectStmt struct {
	NodeInfo
	With *WithClause
	Body *SelectBody
}

func (*SelectStmt) stmtNode() {}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	NodeInfo
	Name    string
	Columns []string // optional column list: name(a, b) AS (...)
	Select  *SelectStmt
}

// SelectBody represents the body of a SELECT with possible set operations.
// Chained operations nest to the right: a UNION b EXCEPT c is
// {Left: a, Op: UNION, Right: {Left: b, Op: EXCEPT, Right: {Left: c}}}.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType // UNION, INTERSECT, EXCEPT, or empty
	All   bool      // UNION ALL
	Right *SelectBody

	// OrderBy, Limit and Offset apply to the whole compound.
	OrderBy []OrderByItem
	Limit   Expr
	Offset  Expr
}

// Arms flattens a compound body into its SELECT cores, left to right.
func (b *SelectBody) Arms() []*SelectCore {
	var arms []*SelectCore
	for cur := b; cur != nil; cur = cur.Right {
		if cur.Left != nil {
			arms = append(arms, cur.Left)
		}
	}
	return arms
}

// SetOpType represents the type of set operation.
type SetOpType string

// SetOpType constants for set operations in queries.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectCore represents a single SELECT (or VALUES) arm.
type SelectCore struct {
	NodeInfo
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	Windows  []WindowDef

	// Values is set instead of Columns for a VALUES (...), (...) arm.
	Values [][]Expr
}

// WindowDef represents a named window definition in the WINDOW clause.
type WindowDef struct {
	Name string
	Spec *WindowSpec
}

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
	Expr      Expr
	Alias     string // AS alias
	Text      string // source text of Expr, used to name unaliased expressions
}

// OrderByItem represents an item in ORDER BY clause.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool // nil means default, true = NULLS FIRST, false = NULLS LAST
}

// ---------- Data Modification ----------

// ConflictAction is the OR ... clause of INSERT/UPDATE.
type ConflictAction string

// ConflictAction constants.
const (
	ConflictNone     ConflictAction = ""
	ConflictReplace  ConflictAction = "REPLACE"
	ConflictIgnore   ConflictAction = "IGNORE"
	ConflictAbort    ConflictAction = "ABORT"
	ConflictFail     ConflictAction = "FAIL"
	ConflictRollback ConflictAction = "ROLLBACK"
)

// InsertStmt represents INSERT INTO ... VALUES | SELECT | DEFAULT VALUES.
type InsertStmt struct {
	NodeInfo
	With          *WithClause
	Conflict      ConflictAction
	Table         *TableName
	Columns       []string
	Values        [][]Expr
	Select        *SelectStmt
	DefaultValues bool
	Upsert        *Upsert
	Returning     []SelectItem
}

func (*InsertStmt) stmtNode() {}

// Upsert is the ON CONFLICT clause of an INSERT.
type Upsert struct {
	Target      []string
	TargetWhere Expr
	DoNothing   bool
	Set         []Assignment
	Where       Expr
}

// Assignment is one SET column = expr pair.
type Assignment struct {
	Column string
	Value  Expr
}

// UpdateStmt represents UPDATE ... SET ... [FROM ...] [WHERE ...].
type UpdateStmt struct {
	NodeInfo
	With      *WithClause
	Conflict  ConflictAction
	Table     *TableName
	Set       []Assignment
	From      *FromClause
	Where     Expr
	Returning []SelectItem
}

func (*UpdateStmt) stmtNode() {}

// DeleteStmt represents DELETE FROM ... [WHERE ...].
type DeleteStmt struct {
	NodeInfo
	With      *WithClause
	Table     *TableName
	Where     Expr
	Returning []SelectItem
}

func (*DeleteStmt) stmtNode() {}

// ---------- Other Statements ----------

// RawStmt is a statement the parser recognizes but does not model
// (CREATE INDEX, CREATE VIEW, DROP, PRAGMA, ...). Its text is kept verbatim.
type RawStmt struct {
	NodeInfo
	Keyword string // leading keyword(s), uppercased, e.g. "CREATE INDEX"
	Text    string
}

func (*RawStmt) stmtNode() {}
