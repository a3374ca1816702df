package main

import (
	"bytes"
	"fmt"
	"strings"
)

// MarkdownWriter accumulates a generated markdown page.
type MarkdownWriter struct {
	buf bytes.Buffer
}

// NewMarkdownWriter creates an empty writer.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Frontmatter writes the YAML frontmatter block.
func (w *MarkdownWriter) Frontmatter(title, description string) {
	fmt.Fprintf(&w.buf, "---\ntitle: %q\ndescription: %q\n---\n\n", title, description)
}

// GeneratedMarker notes that the page must not be edited by hand.
func (w *MarkdownWriter) GeneratedMarker() {
	w.buf.WriteString("<!-- Code generated by scripts/gendocs. DO NOT EDIT. -->\n\n")
}

// Header writes a heading of the given level.
func (w *MarkdownWriter) Header(level int, text string) {
	fmt.Fprintf(&w.buf, "%s %s\n\n", strings.Repeat("#", level), text)
}

// Paragraph writes a paragraph.
func (w *MarkdownWriter) Paragraph(text string) {
	w.buf.WriteString(strings.TrimSpace(text))
	w.buf.WriteString("\n\n")
}

// CodeBlock writes a fenced code block.
func (w *MarkdownWriter) CodeBlock(lang, code string) {
	fmt.Fprintf(&w.buf, "```%s\n%s\n```\n\n", lang, strings.TrimRight(code, "\n"))
}

// BulletList writes one bullet per item.
func (w *MarkdownWriter) BulletList(items []string) {
	for _, item := range items {
		fmt.Fprintf(&w.buf, "- %s\n", item)
	}
	w.buf.WriteString("\n")
}

// Table writes a pipe table. Nothing is written without rows.
func (w *MarkdownWriter) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	w.row(headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	w.row(sep)
	for _, r := range rows {
		w.row(r)
	}
	w.buf.WriteString("\n")
}

func (w *MarkdownWriter) row(cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(&w.buf, "| %s |\n", strings.Join(escaped, " | "))
}

// Bytes returns the page content.
func (w *MarkdownWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// InlineCode wraps s in backticks.
func InlineCode(s string) string {
	return "`" + s + "`"
}

// cleanDescription collapses a flag or command description to one line.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
