package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFields(t *testing.T) {
	byKey := map[string]ConfigField{}
	for _, f := range configFields() {
		byKey[f.Key] = f
		assert.NotEmpty(t, f.Description, "key %q needs a description", f.Key)
	}

	require.Contains(t, byKey, "schema.schema_name")
	assert.Equal(t, "SQLTYPE_SCHEMA__SCHEMA_NAME", byKey["schema.schema_name"].EnvVar())
	assert.Equal(t, "[schema.sql]", byKey["schema.paths"].Default)
	assert.Equal(t, "10s", byKey["server.read_header_timeout"].Default)
	assert.NotContains(t, byKey, "project_root")
}

func TestMarkdownTableEscapesPipes(t *testing.T) {
	w := NewMarkdownWriter()
	w.Table([]string{"a", "b"}, [][]string{{"x|y", "z"}})
	assert.Equal(t, "| a | b |\n| --- | --- |\n| x\\|y | z |\n\n", string(w.Bytes()))

	empty := NewMarkdownWriter()
	empty.Table([]string{"a"}, nil)
	assert.Empty(t, empty.Bytes())
}

func TestGenerators(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))
	require.NoError(t, generateConfigDocs(dir))
	require.NoError(t, generateErrorDocs(dir))

	for _, name := range []string{"index.md", "check.md", "schema.md", "configuration.md", "errors.md"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "DO NOT EDIT", name)
	}

	checkPage, err := os.ReadFile(filepath.Join(dir, "check.md"))
	require.NoError(t, err)
	assert.Contains(t, string(checkPage), "| `--watch` | -w |")

	errorsPage, err := os.ReadFile(filepath.Join(dir, "errors.md"))
	require.NoError(t, err)
	assert.Contains(t, string(errorsPage), "| `missing_mandatory_columns` | Missing Mandatory Columns |")
}
