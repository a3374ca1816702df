package output

import (
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/typecheck"
)

// StatementReport is the outcome of checking one statement.
type StatementReport struct {
	Name    string                   `json:"name" yaml:"name"`
	SQL     string                   `json:"sql" yaml:"sql"`
	Kind    typecheck.StatementKind  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Columns []typecheck.OutputColumn `json:"columns,omitempty" yaml:"columns,omitempty"`
	Params  []typecheck.Param        `json:"params,omitempty" yaml:"params,omitempty"`
	Error   *service.ErrorInfo       `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewStatementReport builds a report from a batch outcome.
func NewStatementReport(o service.Outcome) StatementReport {
	rep := StatementReport{Name: o.Source.Name, SQL: o.Source.SQL}
	if o.Err != nil {
		info := service.Describe(o.Err)
		rep.Error = &info
		return rep
	}
	rep.Kind = o.Result.Kind
	rep.Columns = o.Result.Columns
	rep.Params = o.Result.Params
	return rep
}

// CheckSummary counts statements and failures by kind.
type CheckSummary struct {
	Statements int                    `json:"statements" yaml:"statements"`
	Failed     int                    `json:"failed" yaml:"failed"`
	ByKind     map[core.ErrorKind]int `json:"by_kind,omitempty" yaml:"by_kind,omitempty"`
}

// CheckOutput is the full result of the check command.
type CheckOutput struct {
	Statements []StatementReport `json:"statements" yaml:"statements"`
	Summary    CheckSummary      `json:"summary" yaml:"summary"`
}

// NewCheckOutput summarizes reports.
func NewCheckOutput(reports []StatementReport) *CheckOutput {
	out := &CheckOutput{Statements: reports, Summary: CheckSummary{Statements: len(reports)}}
	for _, rep := range reports {
		if rep.Error == nil {
			continue
		}
		out.Summary.Failed++
		if out.Summary.ByKind == nil {
			out.Summary.ByKind = make(map[core.ErrorKind]int)
		}
		out.Summary.ByKind[rep.Error.Kind]++
	}
	return out
}

// ColumnInfo describes one catalog column.
type ColumnInfo struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Nullable  bool   `json:"nullable" yaml:"nullable"`
	Default   bool   `json:"has_default" yaml:"has_default"`
	Mandatory bool   `json:"mandatory" yaml:"mandatory"`
	Declared  string `json:"declared_type,omitempty" yaml:"declared_type,omitempty"`
	Check     string `json:"check,omitempty" yaml:"check,omitempty"`
}

// TableInfo describes one catalog table.
type TableInfo struct {
	Name    string       `json:"name" yaml:"name"`
	Columns []ColumnInfo `json:"columns" yaml:"columns"`
}

// SchemaOutput is the catalog as shown by the schema command.
type SchemaOutput struct {
	Dialect string      `json:"dialect" yaml:"dialect"`
	Tables  []TableInfo `json:"tables" yaml:"tables"`
}

// NewTableInfo converts a catalog table.
func NewTableInfo(t *core.Table) TableInfo {
	info := TableInfo{Name: t.Name, Columns: make([]ColumnInfo, len(t.Columns))}
	for i, c := range t.Columns {
		info.Columns[i] = ColumnInfo{
			Name:      c.Name,
			Type:      c.Type.Base.String(),
			Nullable:  c.Type.Nullable,
			Default:   c.HasDefault,
			Mandatory: c.Mandatory(),
			Declared:  c.DeclaredType,
			Check:     c.Check,
		}
	}
	return info
}
