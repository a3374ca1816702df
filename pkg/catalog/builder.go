package catalog

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/leapstack-labs/sqltype/pkg/parser"
)

// Deriver types the output columns of a CREATE TABLE ... AS SELECT query
// against the tables registered so far.
type Deriver func(cat *Catalog, sel *core.SelectStmt) ([]core.Column, error)

// Option configures a Builder.
type Option func(*Builder)

// WithDialect sets the dialect used to parse DDL and normalize names.
// The default is SQLite.
func WithDialect(d *dialect.Dialect) Option {
	return func(b *Builder) {
		if d != nil {
			b.dialect = d
		}
	}
}

// WithLogger sets the builder's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithDeriver enables CREATE TABLE ... AS SELECT. Without a deriver such
// statements fail with core.KindUnsupportedStatement.
func WithDeriver(fn Deriver) Option {
	return func(b *Builder) {
		b.derive = fn
	}
}

// Builder accumulates tables by DDL replay. It is not safe for concurrent use.
type Builder struct {
	dialect *dialect.Dialect
	logger  *slog.Logger
	derive  Deriver

	tables []*core.Table
	byName map[string]*core.Table
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		dialect: dialect.SQLite,
		logger:  slog.New(slog.DiscardHandler),
		byName:  make(map[string]*core.Table),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns an immutable snapshot of the tables registered so far.
// The builder stays usable; later registrations do not affect the snapshot.
func (b *Builder) Build() *Catalog {
	return &Catalog{
		dialect: b.dialect,
		tables:  slices.Clone(b.tables),
		byName:  maps.Clone(b.byName),
	}
}

// RegisterTable parses one CREATE TABLE statement and registers it.
func (b *Builder) RegisterTable(ddl string) error {
	stmt, err := parser.Parse(ddl, b.dialect)
	if err != nil {
		return err
	}
	ct, ok := stmt.(*core.CreateTableStmt)
	if !ok {
		return &core.AnalysisError{
			Kind:    core.KindUnsupportedStatement,
			Message: fmt.Sprintf("expected CREATE TABLE, got %s", statementKind(stmt)),
			Pos:     stmt.Pos(),
		}
	}
	return b.Register(ct)
}

// RegisterScript replays every CREATE TABLE in a script, in order.
// Other statements are skipped. The first failure stops the replay.
func (b *Builder) RegisterScript(sql string) error {
	stmts, err := parser.ParseScript(sql, b.dialect)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		ct, ok := stmt.(*core.CreateTableStmt)
		if !ok {
			b.logger.Debug("skipping non-table statement", "kind", statementKind(stmt), "pos", stmt.Pos())
			continue
		}
		if err := b.Register(ct); err != nil {
			return err
		}
	}
	return nil
}

// Register adds the table described by a parsed CREATE TABLE.
func (b *Builder) Register(stmt *core.CreateTableStmt) error {
	key := b.dialect.NormalizeName(stmt.Name)
	if _, exists := b.byName[key]; exists {
		if stmt.IfNotExists {
			b.logger.Debug("table already exists, skipping", "table", stmt.Name)
			return nil
		}
		return &core.AnalysisError{
			Kind:    core.KindDuplicateTable,
			Message: fmt.Sprintf("table %q already exists", stmt.Name),
			Names:   []string{stmt.Name},
			Pos:     stmt.Pos(),
		}
	}

	if stmt.AsSelect != nil {
		return b.registerAsSelect(stmt)
	}

	if err := b.checkReferences(stmt); err != nil {
		return err
	}

	table := &core.Table{Name: stmt.Name, Columns: make([]core.Column, 0, len(stmt.Columns))}
	pkCols := tablePrimaryKey(stmt)
	for i := range stmt.Columns {
		table.Columns = append(table.Columns, b.column(&stmt.Columns[i], stmt, pkCols))
	}
	b.add(key, table)
	return nil
}

// AddTable registers a table built elsewhere, e.g. by database introspection.
func (b *Builder) AddTable(t core.Table) error {
	key := b.dialect.NormalizeName(t.Name)
	if _, exists := b.byName[key]; exists {
		return &core.AnalysisError{
			Kind:    core.KindDuplicateTable,
			Message: fmt.Sprintf("table %q already exists", t.Name),
			Names:   []string{t.Name},
		}
	}
	t.Columns = slices.Clone(t.Columns)
	b.add(key, &t)
	return nil
}

func (b *Builder) add(key string, t *core.Table) {
	b.tables = append(b.tables, t)
	b.byName[key] = t
	b.logger.Debug("registered table", "table", t.Name, "columns", len(t.Columns))
}

func (b *Builder) registerAsSelect(stmt *core.CreateTableStmt) error {
	if b.derive == nil {
		return &core.AnalysisError{
			Kind:    core.KindUnsupportedStatement,
			Message: fmt.Sprintf("CREATE TABLE %s AS SELECT needs a query analyzer", stmt.Name),
			Names:   []string{stmt.Name},
			Pos:     stmt.Pos(),
		}
	}
	cols, err := b.derive(b.Build(), stmt.AsSelect)
	if err != nil {
		return fmt.Errorf("create table %s: %w", stmt.Name, err)
	}
	b.add(b.dialect.NormalizeName(stmt.Name), &core.Table{Name: stmt.Name, Columns: cols})
	return nil
}

// checkReferences requires every foreign key target to be registered
// already. A table may reference itself.
func (b *Builder) checkReferences(stmt *core.CreateTableStmt) error {
	check := func(ref *core.ForeignKeyRef) error {
		if ref == nil || strings.EqualFold(ref.Table, stmt.Name) {
			return nil
		}
		if _, ok := b.byName[b.dialect.NormalizeName(ref.Table)]; !ok {
			return core.UnknownTableError(ref.Table, stmt.Pos())
		}
		return nil
	}
	for i := range stmt.Columns {
		if err := check(stmt.Columns[i].References); err != nil {
			return err
		}
	}
	for _, tc := range stmt.Constraints {
		if tc.Type == core.ConstraintForeignKey {
			if err := check(tc.References); err != nil {
				return err
			}
		}
	}
	return nil
}

// column derives catalog metadata for one column definition.
func (b *Builder) column(def *core.ColumnDef, stmt *core.CreateTableStmt, pkCols []string) core.Column {
	col := core.Column{
		Name:         def.Name,
		DeclaredType: def.TypeName,
		Type:         core.Type{Base: MapType(def.TypeName), Nullable: !def.NotNull},
		HasDefault:   def.HasDefault || def.Autoincrement || def.Generated != nil,
	}

	// Nullability comes from NOT NULL alone; keys and serials only
	// supply a default.
	primary := def.PrimaryKey || (len(pkCols) == 1 && strings.EqualFold(pkCols[0], def.Name))
	if primary && isRowidAlias(def.TypeName) && !stmt.WithoutRowID {
		col.HasDefault = true
	}
	if isSerial(def.TypeName) {
		col.HasDefault = true
	}

	if len(def.Checks) > 0 {
		col.Check = def.Checks[0].Text
	}
	if col.Type.Base != core.Bool && b.hasBoolCheck(def, stmt) {
		col.Type.Base = core.Bool
	}
	return col
}

// hasBoolCheck looks for a 0/1 CHECK on the column itself or at table level.
func (b *Builder) hasBoolCheck(def *core.ColumnDef, stmt *core.CreateTableStmt) bool {
	matches := func(check core.CheckConstraint) bool {
		name, ok := boolCheckColumn(check.Expr)
		return ok && strings.EqualFold(name, def.Name)
	}
	for _, check := range def.Checks {
		if matches(check) {
			return true
		}
	}
	for _, tc := range stmt.Constraints {
		if tc.Type == core.ConstraintCheck && tc.Check != nil && matches(*tc.Check) {
			return true
		}
	}
	return false
}

func tablePrimaryKey(stmt *core.CreateTableStmt) []string {
	for _, tc := range stmt.Constraints {
		if tc.Type == core.ConstraintPrimaryKey {
			return tc.Columns
		}
	}
	return nil
}

func statementKind(stmt core.Statement) string {
	switch s := stmt.(type) {
	case *core.SelectStmt:
		return "SELECT"
	case *core.InsertStmt:
		return "INSERT"
	case *core.UpdateStmt:
		return "UPDATE"
	case *core.DeleteStmt:
		return "DELETE"
	case *core.CreateTableStmt:
		return "CREATE TABLE"
	case *core.RawStmt:
		return s.Keyword
	}
	return fmt.Sprintf("%T", stmt)
}
