// Package commands implements the sqltype subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqltype/internal/cli/config"
	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/internal/schemaload"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/spf13/cobra"
)

// stdinName names statements read from standard input.
const stdinName = "<stdin>"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded config.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		cfg = config.Default()
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// LoadService loads the schema and builds an analysis service on it.
func (c *CommandContext) LoadService(ctx context.Context) (*service.Service, error) {
	load := c.Cfg.SchemaLoadConfig()
	load.Logger = c.Logger
	cat, err := schemaload.Load(ctx, load)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return service.New(cat, service.Options{
		Workers:         c.Cfg.Workers,
		CacheSize:       c.Cfg.CacheSize,
		StrictRecursive: c.Cfg.StrictRecursive,
		Logger:          c.Logger,
	})
}

// SchemaWatchPaths returns the schema paths that can be watched for
// changes, or nil for database sources.
func (c *CommandContext) SchemaWatchPaths() []string {
	switch c.Cfg.Schema.Source {
	case schemaload.SourceDDL, schemaload.SourceMigrations:
		return c.Cfg.Schema.Paths
	}
	return nil
}

// isUnder reports whether name is one of paths or inside one of them.
func isUnder(name string, paths []string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, p := range paths {
		rel, err := filepath.Rel(p, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// readInput reads a file argument, or standard input for "-".
func readInput(cmd *cobra.Command, arg string) (name, content string, err error) {
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return stdinName, string(data), nil
	}
	data, err := os.ReadFile(arg) //nolint:gosec // G304: reading user-named SQL files is the point
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", arg, err)
	}
	return arg, string(data), nil
}
