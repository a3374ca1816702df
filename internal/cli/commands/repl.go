package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/spf13/cobra"
)

const (
	replPrompt = "sqltype> "
	contPrompt = "    ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Analyze statements interactively",
		Long: `Start an interactive session against the loaded schema. Statements
end with a semicolon and may span several lines; each one is analyzed as
soon as it is complete.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			svc, err := cc.LoadService(cmd.Context())
			if err != nil {
				return err
			}
			return runREPL(cmd, cc, svc)
		},
	}
}

// replSession holds the state of one interactive session.
type replSession struct {
	ctx     context.Context
	cc      *CommandContext
	svc     *service.Service
	out     io.Writer
	errOut  io.Writer
	pending strings.Builder
}

func runREPL(cmd *cobra.Command, cc *CommandContext, svc *service.Service) error {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".sqltype_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newTableCompleter(svc),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := &replSession{
		ctx:    cmd.Context(),
		cc:     cc,
		svc:    svc,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	_, _ = fmt.Fprintf(s.out, "sqltype REPL (%s, %d tables)\n", svc.Catalog().Dialect().Name, svc.Catalog().Len())
	_, _ = fmt.Fprintln(s.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.pending.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if s.handleLine(line) {
			break
		}
		rl.SetPrompt(s.prompt())
	}
	return nil
}

// prompt returns the continuation prompt while a statement is incomplete.
func (s *replSession) prompt() string {
	if s.pending.Len() > 0 {
		return contPrompt
	}
	return replPrompt
}

// handleLine processes one input line and reports whether to exit.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if s.pending.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	s.pending.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.pending.WriteString("\n")
		return false
	}
	sql := strings.TrimSuffix(s.pending.String(), ";")
	s.pending.Reset()

	s.analyze(sql)
	_, _ = fmt.Fprintln(s.out)
	return false
}

func (s *replSession) analyze(sql string) {
	res, err := s.svc.Analyze(s.ctx, sql, s.cc.Cfg.Dialect)
	rep := output.NewStatementReport(service.Outcome{Source: service.Source{SQL: sql}, Result: res, Err: err})
	r := s.cc.Renderer
	if ok, err := r.Structured(rep); ok {
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}
		return
	}
	renderStatement(r, rep)
}

func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	r := s.cc.Renderer

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".tables":
		r.Table([]string{"table", "columns", "mandatory"}, tableSummary(s.svc.Catalog()))

	case ".schema":
		out, err := schemaOutput(s.svc.Catalog(), parts[1:])
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return false
		}
		if err := renderSchema(r, out); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}

	case ".normalize":
		rest := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
		_, _ = fmt.Fprintln(s.out, s.svc.Normalize(rest))

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help              Show this help message
  .tables            List all tables
  .schema [table]    Show columns for all tables or one table
  .normalize <sql>   Rewrite :: casts in <sql>
  .clear             Clear the screen
  .quit / .exit      Exit the REPL

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter completes table names and dot commands.
func newTableCompleter(svc *service.Service) *readline.PrefixCompleter {
	names := svc.Catalog().TableNames()
	items := make([]readline.PrefixCompleterInterface, 0, len(names)+7)
	tables := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		items = append(items, readline.PcItem(name))
		tables = append(tables, readline.PcItem(name))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".normalize"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
