package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqltype/internal/cli"
	"github.com/leapstack-labs/sqltype/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// generateCLIDocs writes an index page plus one page per visible command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string][]byte{"index.md": cliIndex(root)}
	for _, cmd := range documented(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}

	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), content, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// documented returns the subcommands that get a page.
func documented(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for sqltype")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/sqltype/cmd/sqltype@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documented(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Table(flagHeaders, flagRows(root.PersistentFlags()))

	w.Header(2, "Environment Variables")
	w.Paragraph("Every configuration key can be set from the environment with the " +
		InlineCode(config.EnvPrefix) + " prefix. A double underscore separates nested keys.")
	var env [][]string
	for _, f := range configFields() {
		env = append(env, []string{InlineCode(f.EnvVar()), InlineCode(f.Key)})
	}
	w.Table([]string{"Variable", "Key"}, env)
	w.Paragraph("Flags take precedence over environment variables, which take precedence over " +
		InlineCode(config.ConfigNames[0]) + ".")

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Every statement was analyzed"},
		{InlineCode("1"), "A statement failed analysis, or the command failed; details are on stderr"},
	})

	return w.Bytes()
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	w.Paragraph(desc)

	w.Header(2, "Usage")
	use := cmd.UseLine()
	if !strings.HasPrefix(use, "sqltype") {
		use = "sqltype " + use
	}
	w.CodeBlock("bash", use)

	if rows := flagRows(cmd.LocalNonPersistentFlags()); len(rows) > 0 {
		w.Header(2, "Options")
		w.Table(flagHeaders, rows)
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		w.Paragraph("See the [CLI reference](/cli/) for the options every command accepts.")
	}

	return w.Bytes()
}

var flagHeaders = []string{"Option", "Short", "Default", "Description"}

// flagRows lists the visible flags of fs. String and duration defaults
// are shown as code; empty defaults are left blank.
func flagRows(fs *pflag.FlagSet) [][]string {
	var rows [][]string
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		def := f.DefValue
		switch {
		case def == "" || def == "[]":
			def = ""
		case f.Value.Type() != "bool" && f.Value.Type() != "int":
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, cleanDescription(f.Usage)})
	})
	return rows
}
