package commands

import (
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/normalize"
	"github.com/spf13/cobra"
)

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Rewrite postfix :: casts as CAST(... AS ...)",
		Long: `Rewrite every "expr::type" cast in the input as "CAST(expr AS type)".
String literals, quoted identifiers and comments are left untouched. The
schema is not loaded.`,
		Example: `  echo "SELECT id::text FROM t" | sqltype normalize`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			arg := "-"
			if len(args) == 1 {
				arg = args[0]
			}
			_, content, err := readInput(cmd, arg)
			if err != nil {
				return err
			}

			sql := normalize.RewriteCasts(content)
			if ok, err := cc.Renderer.Structured(map[string]string{"sql": sql}); ok {
				return err
			}
			cc.Renderer.Println(strings.TrimRight(sql, "\n"))
			return nil
		},
	}
}
