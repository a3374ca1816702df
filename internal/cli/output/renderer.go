// Package output renders command results as styled text, markdown, JSON,
// YAML or CSV.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// OutputMode selects how results are rendered.
type OutputMode string //nolint:revive // output.OutputMode reads better than output.Type at call sites

// Output modes.
const (
	ModeAuto     OutputMode = "auto" // text on a terminal, markdown otherwise
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
	ModeYAML     OutputMode = "yaml"
	ModeCSV      OutputMode = "csv"
)

// Modes lists the accepted mode names.
var Modes = []string{"auto", "text", "markdown", "json", "yaml", "csv"}

// Mode converts a configured name to an OutputMode. Unknown names and the
// empty string mean ModeAuto; use ParseMode to reject them.
func Mode(s string) OutputMode {
	m, err := ParseMode(s)
	if err != nil {
		return ModeAuto
	}
	return m
}

// ParseMode parses a mode name. "md" is accepted for markdown.
func ParseMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "text":
		return ModeText, nil
	case "markdown", "md":
		return ModeMarkdown, nil
	case "json":
		return ModeJSON, nil
	case "yaml", "yml":
		return ModeYAML, nil
	case "csv":
		return ModeCSV, nil
	}
	return "", fmt.Errorf("unknown output format %q (available: %s)", s, strings.Join(Modes, ", "))
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer. Terminal detection looks at out.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	lr := lipgloss.NewRenderer(out)
	if !isTTY {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: NewStyles(lr),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: file descriptors fit in int
}

// EffectiveMode resolves ModeAuto against the terminal state.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the primary output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the diagnostic writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Println writes a line to the primary output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the primary output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a heading in the effective mode.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, text))
		return
	}
	style := r.styles.Header2
	if level <= 1 {
		style = r.styles.Header1
	}
	r.Println(style.Render(text))
}

// Success writes a success line.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Warning writes a warning line to the diagnostic output.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+msg))
}

// Error writes an error line to the diagnostic output.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+msg))
}

// Muted renders s in the muted style.
func (r *Renderer) Muted(s string) string {
	return r.styles.Muted.Render(s)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Structured writes v as JSON or YAML and reports whether the effective
// mode was one of them.
func (r *Renderer) Structured(v any) (bool, error) {
	switch r.EffectiveMode() {
	case ModeJSON:
		return true, r.JSON(v)
	case ModeYAML:
		return true, r.YAML(v)
	}
	return false, nil
}
