package core

// ---------- Table References ----------

// TableName represents a table reference by name.
type TableName struct {
	NodeInfo
	Schema string
	Name   string
	Alias  string
}

func (*TableName) tableRefNode() {}

// EffectiveName returns the alias if present, otherwise the table name.
func (t *TableName) EffectiveName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// DerivedTable represents a subquery in FROM clause.
type DerivedTable struct {
	NodeInfo
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) tableRefNode() {}

// ParenTable represents a parenthesized join tree in FROM: (a JOIN b ON ...).
type ParenTable struct {
	NodeInfo
	From *FromClause
}

func (*ParenTable) tableRefNode() {}

// FromClause represents the FROM clause.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// Join represents a JOIN clause.
type Join struct {
	NodeInfo
	Type      JoinType
	Natural   bool // NATURAL JOIN modifier
	Right     TableRef
	Condition Expr     // ON clause (mutually exclusive with Using)
	Using     []string // USING (col1, col2) columns
}

// JoinType represents the type of join. The value is the SQL keyword.
type JoinType string

// JoinType constants. JoinComma is an implicit cross join written with a comma.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)
