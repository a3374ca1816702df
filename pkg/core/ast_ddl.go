package core

// ---------- Schema Definition ----------

// CreateTableStmt represents CREATE TABLE.
type CreateTableStmt struct {
	NodeInfo
	Temporary   bool
	IfNotExists bool
	Schema      string
	Name        string
	Columns     []ColumnDef
	Constraints []TableConstraint
	// AsSelect is set for CREATE TABLE ... AS SELECT.
	AsSelect     *SelectStmt
	WithoutRowID bool
	Strict       bool
}

func (*CreateTableStmt) stmtNode() {}

// ColumnDef is one column definition inside CREATE TABLE.
type ColumnDef struct {
	NodeInfo
	Name     string
	TypeName string // declared type as written, empty if omitted

	NotNull       bool
	PrimaryKey    bool
	Autoincrement bool
	Unique        bool
	Default       Expr // nil if no DEFAULT clause
	HasDefault    bool
	Collate       string
	Checks        []CheckConstraint
	References    *ForeignKeyRef
	// Generated is set for GENERATED ALWAYS AS (...) / AS (...) columns.
	Generated Expr
}

// CheckConstraint is a CHECK (...) clause with its raw source text.
type CheckConstraint struct {
	Expr Expr
	Text string
}

// ForeignKeyRef is the REFERENCES part of a foreign key.
type ForeignKeyRef struct {
	Table   string
	Columns []string
}

// TableConstraintType classifies table-level constraints.
type TableConstraintType int

// TableConstraintType constants.
const (
	ConstraintPrimaryKey TableConstraintType = iota
	ConstraintUnique
	ConstraintCheck
	ConstraintForeignKey
)

// TableConstraint is a table-level constraint inside CREATE TABLE.
type TableConstraint struct {
	Name       string
	Type       TableConstraintType
	Columns    []string // PRIMARY KEY / UNIQUE / FOREIGN KEY columns
	Check      *CheckConstraint
	References *ForeignKeyRef
}
