package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in text mode. Without a color
// profile they render plain text.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Type renders a base type name; Nullable marks nullable columns.
	Type     lipgloss.Style
	Nullable lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds the default styles on lr.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:  lr.NewStyle().Bold(true),
		Bold:     lr.NewStyle().Bold(true),
		Muted:    lr.NewStyle().Foreground(lipgloss.Color("8")),
		Success:  lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    lr.NewStyle().Foreground(lipgloss.Color("9")),
		Info:     lr.NewStyle().Foreground(lipgloss.Color("14")),
		Type:     lr.NewStyle().Foreground(lipgloss.Color("13")),
		Nullable: lr.NewStyle().Foreground(lipgloss.Color("11")),

		StatusSuccess: lr.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  lr.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}
