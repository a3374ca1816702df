package commands

import (
	"strconv"

	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [tables...]",
		Short: "Show the loaded schema catalog",
		Long: `Load the schema and print each table's columns with their inferred
type, nullability, default and CHECK constraint. Name tables to limit the
output to them.`,
		Example: `  # Show every table
  sqltype schema

  # Show one table from a SQLite database as YAML
  sqltype schema --schema-source sqlite --schema app.db -o yaml users`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			svc, err := cc.LoadService(cmd.Context())
			if err != nil {
				return err
			}
			out, err := schemaOutput(svc.Catalog(), args)
			if err != nil {
				return err
			}
			return renderSchema(cc.Renderer, out)
		},
	}
}

func schemaOutput(cat *catalog.Catalog, names []string) (*output.SchemaOutput, error) {
	out := &output.SchemaOutput{Dialect: cat.Dialect().Name, Tables: []output.TableInfo{}}
	if len(names) == 0 {
		for _, t := range cat.Tables() {
			out.Tables = append(out.Tables, output.NewTableInfo(t))
		}
		return out, nil
	}
	for _, name := range names {
		t, err := cat.LookupTable(name)
		if err != nil {
			return nil, err
		}
		out.Tables = append(out.Tables, output.NewTableInfo(t))
	}
	return out, nil
}

func renderSchema(r *output.Renderer, out *output.SchemaOutput) error {
	if ok, err := r.Structured(out); ok {
		return err
	}

	if r.EffectiveMode() == output.ModeCSV {
		var rows [][]string
		for _, t := range out.Tables {
			for _, c := range t.Columns {
				rows = append(rows, append([]string{t.Name}, columnRow(c)...))
			}
		}
		r.Table([]string{"table", "column", "type", "nullable", "default", "check"}, rows)
		return nil
	}

	if len(out.Tables) == 0 {
		r.Println(r.Muted("no tables"))
		return nil
	}
	for i, t := range out.Tables {
		if i > 0 {
			r.Println()
		}
		r.Header(2, t.Name)
		rows := make([][]string, len(t.Columns))
		for j, c := range t.Columns {
			rows[j] = columnRow(c)
		}
		r.Table([]string{"column", "type", "nullable", "default", "check"}, rows)
	}
	return nil
}

func columnRow(c output.ColumnInfo) []string {
	def := ""
	if c.Default {
		def = "yes"
	}
	return []string{
		c.Name,
		c.Type,
		nullability(core.Type{Nullable: c.Nullable}),
		def,
		c.Check,
	}
}

// tableSummary is used by the repl's .tables command.
func tableSummary(cat *catalog.Catalog) [][]string {
	tables := cat.Tables()
	rows := make([][]string, len(tables))
	for i, t := range tables {
		mandatory := 0
		for _, c := range t.Columns {
			if c.Mandatory() {
				mandatory++
			}
		}
		rows[i] = []string{t.Name, strconv.Itoa(len(t.Columns)), strconv.Itoa(mandatory)}
	}
	return rows
}
