package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/leapstack-labs/sqltype/internal/watch"
	"github.com/spf13/cobra"
)

// ErrCheckFailed is returned when at least one statement failed analysis.
var ErrCheckFailed = errors.New("check failed")

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Watch bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [files...|-]",
		Short: "Infer column and parameter types for SQL statements",
		Long: `Analyze every statement in the given files against the schema and
report the type and nullability of each output column and binding
parameter.

With no arguments, or with "-", statements are read from standard input.
The command exits non-zero when any statement fails.`,
		Example: `  # Check queries against schema.sql
  sqltype check queries.sql

  # Use a Postgres schema and emit JSON
  sqltype check --dialect postgres --schema db/schema.sql -o json q.sql

  # Re-check whenever a query or the schema changes
  sqltype check --watch queries/*.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when the files or the schema change")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	cc := NewCommandContext(cmd)
	if len(args) == 0 {
		args = []string{"-"}
	}
	if opts.Watch && slices.Contains(args, "-") {
		return errors.New("--watch needs file arguments")
	}

	ctx := cmd.Context()
	svc, err := cc.LoadService(ctx)
	if err != nil {
		return err
	}
	if !opts.Watch {
		return checkOnce(ctx, cmd, cc, svc, args)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	report := func() {
		if err := checkOnce(ctx, cmd, cc, svc, args); err != nil && !errors.Is(err, ErrCheckFailed) {
			cc.Renderer.Error(err.Error())
		}
	}
	report()

	schemaPaths := cc.SchemaWatchPaths()
	paths := append(slices.Clone(args), schemaPaths...)
	return watch.Run(ctx, paths, func(name string) {
		mu.Lock()
		defer mu.Unlock()
		if isUnder(name, schemaPaths) {
			next, err := cc.LoadService(ctx)
			if err != nil {
				cc.Renderer.Error(err.Error())
				return
			}
			svc = next
		}
		cc.Renderer.Println()
		cc.Renderer.Println(cc.Renderer.Muted("changed: " + name))
		report()
	}, watch.Options{Logger: cc.Logger})
}

// checkOnce analyzes every statement in args and renders the reports.
func checkOnce(ctx context.Context, cmd *cobra.Command, cc *CommandContext, svc *service.Service, args []string) error {
	var sources []service.Source
	for _, arg := range args {
		name, content, err := readInput(cmd, arg)
		if err != nil {
			return err
		}
		split, err := svc.Split(name, content, cc.Cfg.Dialect)
		if err != nil {
			return err
		}
		sources = append(sources, split...)
	}

	outcomes, err := svc.AnalyzeBatch(ctx, sources)
	if err != nil {
		return err
	}

	reports := make([]output.StatementReport, len(outcomes))
	for i, o := range outcomes {
		reports[i] = output.NewStatementReport(o)
	}
	out := output.NewCheckOutput(reports)
	cc.Logger.Debug("check finished", "statements", out.Summary.Statements, "failed", out.Summary.Failed)

	if err := renderCheck(cc.Renderer, out); err != nil {
		return err
	}
	if out.Summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d statements", ErrCheckFailed, out.Summary.Failed, out.Summary.Statements)
	}
	return nil
}
