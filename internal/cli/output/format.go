package output

import (
	"encoding/csv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatHeader returns a markdown heading.
func FormatHeader(level int, heading string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + heading
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return "- **" + key + "**: " + value
}

// Title turns a snake_case identifier such as an error kind into a
// heading: "unknown_column" becomes "Unknown Column".
func Title(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// Table renders rows under header in the effective mode: a box-drawn table
// in text mode, a pipe table in markdown, and RFC 4180 CSV in csv mode.
func (r *Renderer) Table(header []string, rows [][]string) {
	if r.EffectiveMode() == ModeCSV {
		w := csv.NewWriter(r.out)
		_ = w.Write(header)
		_ = w.WriteAll(rows)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	hr := make(table.Row, len(header))
	for i, h := range header {
		hr[i] = h
	}
	t.AppendHeader(hr)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}

	switch r.EffectiveMode() {
	case ModeMarkdown:
		t.RenderMarkdown()
	default:
		t.Render()
	}
}
