package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/leapstack-labs/sqltype/internal/cli/config"
	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/internal/schemaload"
)

// ConfigField describes one configuration key.
type ConfigField struct {
	Key         string
	Type        string
	Default     string
	Description string
}

// EnvVar returns the environment variable that overrides the key.
func (f ConfigField) EnvVar() string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(f.Key, ".", "__"))
}

var configDescriptions = map[string]string{
	"dialect":                    "SQL dialect; empty follows the schema source",
	"output":                     "Output format: " + strings.Join(output.Modes, ", "),
	"verbose":                    "Log debug messages to stderr",
	"workers":                    "Concurrent analyses in a batch; 0 means GOMAXPROCS",
	"cache_size":                 "Analysis cache entries; negative disables the cache",
	"strict_recursive":           "Fail when a recursive CTE arm disagrees with its base arm",
	"schema.source":              "Schema source: " + strings.Join(schemaload.Sources, ", "),
	"schema.paths":               "DDL files or directories, the sqlite database or the migrations directory",
	"schema.dsn":                 "Connection string for the postgres and duckdb sources",
	"schema.schema_name":         "Database schema to introspect",
	"server.addr":                "Listen address for serve",
	"server.read_header_timeout": "Time allowed to read request headers",
	"server.watch":               "Reload the schema when its files change",
}

// configFields walks config.Config by koanf tag, reading defaults from
// config.Default.
func configFields() []ConfigField {
	var fields []ConfigField
	walkConfig(reflect.ValueOf(config.Default()).Elem(), "", &fields)
	return fields
}

func walkConfig(v reflect.Value, prefix string, fields *[]ConfigField) {
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get("koanf")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + tag
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct && sf.Type.PkgPath() == t.PkgPath() {
			walkConfig(fv, key+".", fields)
			continue
		}
		*fields = append(*fields, ConfigField{
			Key:         key,
			Type:        sf.Type.String(),
			Default:     formatDefault(fv),
			Description: configDescriptions[key],
		})
	}
}

func formatDefault(v reflect.Value) string {
	if v.Kind() == reflect.Slice {
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	if v.IsZero() {
		return ""
	}
	return fmt.Sprint(v.Interface())
}

// generateConfigDocs writes the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "sqltype configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("sqltype reads %s from the working directory or the nearest parent directory. Relative schema paths in the file resolve against the file's directory.",
		InlineCode(config.ConfigNames[0])))

	headers := []string{"Key", "Type", "Default", "Description"}
	var rows [][]string
	for _, f := range configFields() {
		def := "-"
		if f.Default != "" {
			def = InlineCode(f.Default)
		}
		rows = append(rows, []string{InlineCode(f.Key), f.Type, def, f.Description})
	}
	w.Table(headers, rows)

	w.Header(2, "Precedence")
	w.BulletList([]string{
		"Command-line flags",
		"Environment variables (" + InlineCode(config.EnvPrefix+"*") + ")",
		InlineCode(config.ConfigNames[0]),
		"Built-in defaults",
	})
	w.Paragraph("Unknown keys in the file or the environment are rejected.")

	w.Header(2, "Example")
	w.CodeBlock("yaml", `# sqltype.yaml
dialect: sqlite
output: auto

schema:
  source: ddl
  paths: [schema]

server:
  addr: 127.0.0.1:8080
  read_header_timeout: 10s
  watch: true`)

	w.Header(3, "Live database")
	w.CodeBlock("yaml", `schema:
  source: postgres
  dsn: postgres://app@localhost:5432/app
  schema_name: public`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
