package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/leapstack-labs/sqltype/pkg/core"
)

type errorDoc struct {
	kind        core.ErrorKind
	description string
	example     string
}

var errorDocs = []errorDoc{
	{core.KindUnknownTable, "A referenced table is neither in the schema nor a CTE in scope.", "SELECT * FROM invoices"},
	{core.KindUnknownColumn, "A column reference matches no source in scope.", "SELECT nope FROM users"},
	{core.KindAmbiguousColumn, "An unqualified column matches more than one source.", "SELECT id FROM users JOIN orders ON orders.user_id = users.id"},
	{core.KindDuplicateAlias, "Two sources in one FROM clause share a name.", "SELECT 1 FROM users u JOIN orders u ON 1"},
	{core.KindMissingMandatoryColumns, "An INSERT omits NOT NULL columns that have no default. The names are listed in the error.", "INSERT INTO orders (user_id) VALUES (1)"},
	{core.KindCannotInferPlaceholderType, "A placeholder appears where nothing constrains its type.", "SELECT ?"},
	{core.KindIncompatibleSetOperation, "The arms of a set operation return different column counts.", "SELECT 1 UNION SELECT 1, 2"},
	{core.KindValueCountMismatch, "An INSERT row has a different number of values than target columns.", "INSERT INTO users (name) VALUES ('a', 'b')"},
	{core.KindRecursiveTypeMismatch, "A recursive CTE arm disagrees with its base arm. Reported only with strict_recursive.", ""},
	{core.KindDuplicateTable, "The schema defines a table twice.", ""},
	{core.KindUnsupportedStatement, "The statement is not a SELECT, INSERT, UPDATE or DELETE.", "DROP TABLE users"},
	{service.KindParseError, "The statement could not be parsed. The position of the offending token is reported.", "SELECT FROM"},
	{service.KindInternal, "An unexpected failure outside analysis.", ""},
}

// generateErrorDocs writes the error kind reference page.
func generateErrorDocs(outDir string) error {
	log.Printf("Generating error docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Errors", "Analysis error kinds reported by sqltype")
	w.GeneratedMarker()

	w.Header(1, "Errors")
	w.Paragraph("A statement that fails analysis reports exactly one error. The " + InlineCode("kind") +
		" field in JSON and YAML output, and the " + InlineCode("name") + " column of CSV error rows, carry the identifier below.")

	headers := []string{"Kind", "Title", "Description"}
	rows := make([][]string, 0, len(errorDocs))
	for _, d := range errorDocs {
		rows = append(rows, []string{InlineCode(string(d.kind)), output.Title(string(d.kind)), d.description})
	}
	w.Table(headers, rows)

	w.Header(2, "Examples")
	for _, d := range errorDocs {
		if d.example == "" {
			continue
		}
		w.Header(3, output.Title(string(d.kind)))
		w.CodeBlock("sql", d.example)
	}

	filename := filepath.Join(outDir, "errors.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated errors.md")
	return nil
}
