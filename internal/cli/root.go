// Package cli provides the command-line interface for sqltype.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/sqltype/internal/cli/commands"
	"github.com/leapstack-labs/sqltype/internal/cli/config"
	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/internal/schemaload"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sqltype",
		Short: "sqltype - static SQL type and nullability inference",
		Long: `sqltype infers the type and nullability of every result column and
binding parameter of a SQL statement from the schema alone, without a
database connection.

The schema comes from CREATE TABLE files, a SQLite database, a goose
migrations directory, or a live Postgres or DuckDB connection.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newLogger(cmd, cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: sqltype.yaml, searched upward)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.StringP("output", "o", config.DefaultOutput, "Output format (auto|text|markdown|json|yaml|csv)")
	flags.String("dialect", "", "SQL dialect (default: follows the schema source)")
	flags.StringSlice("schema", nil, "Schema files or directories; the database file for sqlite and the directory for migrations")
	flags.String("schema-source", config.DefaultSource, "Schema source (ddl|sqlite|migrations|postgres|duckdb)")
	flags.String("dsn", "", "Connection string for the postgres and duckdb sources")
	flags.String("schema-name", "", "Database schema to introspect")
	flags.Int("workers", 0, "Concurrent analyses in a batch (0 means GOMAXPROCS)")
	flags.Int("cache-size", config.DefaultCacheSize, "Analysis cache entries (negative disables the cache)")
	flags.Bool("strict-recursive", false, "Fail when a recursive CTE arm disagrees with its base arm")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialect.List(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("schema-source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return schemaload.Sources, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(commands.BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
	}))
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewNormalizeCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger writes text logs to the command's stderr: debug when verbose,
// warnings otherwise.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for sqltype.

To load completions:

Bash:
  $ source <(sqltype completion bash)

Zsh:
  $ sqltype completion zsh > "${fpath[1]}/_sqltype"

Fish:
  $ sqltype completion fish | source

PowerShell:
  PS> sqltype completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
