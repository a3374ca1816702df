// Package typecheck infers the result columns and parameter types of SQL
// statements against a catalog, without executing them.
//
// An Analyzer is bound to one catalog and may be shared between
// goroutines; every call to Analyze builds its own scope tree:
//
//	a := typecheck.NewAnalyzer(cat, typecheck.Options{})
//	res, err := a.AnalyzeSQL("SELECT id FROM users WHERE name = ?", nil)
//	// res.Columns: [id integer not null]
//	// res.Params:  [text not null]
package typecheck

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/leapstack-labs/sqltype/pkg/normalize"
	"github.com/leapstack-labs/sqltype/pkg/parser"
)

// StatementKind classifies an analyzed statement.
type StatementKind string

// StatementKind constants.
const (
	KindSelect StatementKind = "select"
	KindInsert StatementKind = "insert"
	KindUpdate StatementKind = "update"
	KindDelete StatementKind = "delete"
	KindDDL    StatementKind = "ddl"
	KindOther  StatementKind = "other"
)

// OutputColumn is one column of a statement's result set.
type OutputColumn struct {
	Name      string `json:"name" yaml:"name"`
	core.Type `yaml:",inline"`
}

func (c OutputColumn) String() string {
	return c.Name + " " + c.Type.String()
}

// Param is one binding parameter. Index is the 1-based textual
// occurrence; Label is the marker as written (?, $2, :name).
type Param struct {
	Index     int    `json:"index" yaml:"index"`
	Label     string `json:"label" yaml:"label"`
	core.Type `yaml:",inline"`
}

// Result is the outcome of analyzing one statement.
type Result struct {
	Kind    StatementKind  `json:"kind" yaml:"kind"`
	Columns []OutputColumn `json:"columns" yaml:"columns"`
	Params  []Param        `json:"params" yaml:"params"`
}

// ParamTypes returns the parameter base types in occurrence order.
func (r *Result) ParamTypes() []core.BaseType {
	out := make([]core.BaseType, len(r.Params))
	for i, p := range r.Params {
		out[i] = p.Base
	}
	return out
}

// Options configures an Analyzer.
type Options struct {
	// StrictRecursive fails a recursive CTE whose recursive arm would widen
	// the type fixed by its base arm. By default the divergence is logged
	// at warn level and the base types are kept.
	StrictRecursive bool

	// Logger receives debug and warning output. Nil discards it.
	Logger *slog.Logger
}

// Analyzer types statements against a catalog.
type Analyzer struct {
	cat    *catalog.Catalog
	opts   Options
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer for cat. A nil catalog is empty.
func NewAnalyzer(cat *catalog.Catalog, opts Options) *Analyzer {
	if cat == nil {
		cat = catalog.Empty()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{cat: cat, opts: opts, logger: logger}
}

// Catalog returns the catalog statements are checked against.
func (a *Analyzer) Catalog() *catalog.Catalog {
	return a.cat
}

// checker holds the state of a single analysis.
type checker struct {
	cat    *catalog.Catalog
	opts   Options
	logger *slog.Logger
	norm   func(string) string

	seen  map[int]*core.Placeholder
	bound map[int]core.Type

	// select-list names visible to GROUP BY and HAVING
	aliases *relation
}

func (a *Analyzer) newChecker() *checker {
	return &checker{
		cat:    a.cat,
		opts:   a.opts,
		logger: a.logger,
		norm:   a.cat.Dialect().NormalizeName,
		seen:   make(map[int]*core.Placeholder),
		bound:  make(map[int]core.Type),
	}
}

// Analyze types a parsed statement.
func (a *Analyzer) Analyze(stmt core.Statement) (*Result, error) {
	c := a.newChecker()

	var (
		res *Result
		err error
	)
	switch s := stmt.(type) {
	case *core.SelectStmt:
		var cols []OutputColumn
		cols, err = c.selectStmt(s, newScope(nil, c.norm))
		res = &Result{Kind: KindSelect, Columns: cols}
	case *core.InsertStmt:
		res, err = c.insert(s)
	case *core.UpdateStmt:
		res, err = c.update(s)
	case *core.DeleteStmt:
		res, err = c.delete(s)
	case *core.CreateTableStmt:
		res = &Result{Kind: KindDDL}
	case *core.RawStmt:
		res = &Result{Kind: KindOther}
	case nil:
		return nil, &core.AnalysisError{Kind: core.KindUnsupportedStatement, Message: "no statement"}
	default:
		return nil, &core.AnalysisError{
			Kind:    core.KindUnsupportedStatement,
			Message: fmt.Sprintf("unsupported statement %T", stmt),
			Pos:     stmt.Pos(),
		}
	}
	if err != nil {
		return nil, err
	}

	if res.Params, err = c.params(); err != nil {
		return nil, err
	}
	a.logger.Debug("analyzed statement",
		"kind", res.Kind, "columns", len(res.Columns), "params", len(res.Params))
	return res, nil
}

// AnalyzeSQL rewrites :: casts, parses sql and types the statement. A nil
// dialect means the catalog's. Parse errors are returned unchanged.
func (a *Analyzer) AnalyzeSQL(sql string, d *dialect.Dialect) (*Result, error) {
	if d == nil {
		d = a.cat.Dialect()
	}
	stmt, err := parser.Parse(normalize.RewriteCasts(sql), d)
	if err != nil {
		return nil, err
	}
	return a.Analyze(stmt)
}

// Deriver returns a catalog.Deriver that types CREATE TABLE ... AS SELECT
// queries with an analyzer over the tables registered so far.
func Deriver(opts Options) catalog.Deriver {
	return func(cat *catalog.Catalog, sel *core.SelectStmt) ([]core.Column, error) {
		res, err := NewAnalyzer(cat, opts).Analyze(sel)
		if err != nil {
			return nil, err
		}
		return outputToColumns(res.Columns), nil
	}
}
