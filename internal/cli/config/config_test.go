package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/sqltype/internal/schemaload"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "sqltype.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("dialect", "", "dialect")
	flags.StringP("output", "o", "auto", "output format")
	flags.BoolP("verbose", "v", false, "verbose")
	flags.Int("workers", 0, "workers")
	flags.StringSlice("schema", nil, "schema paths")
	flags.String("schema-source", "", "schema source")
	flags.String("dsn", "", "dsn")
	flags.String("addr", "", "listen address")
	flags.Bool("watch", false, "watch")
	flags.Bool("fail-fast", false, "not a config key")
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
	assert.Equal(t, "", cfg.Dialect)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultCacheSize, cfg.CacheSize)
	assert.Equal(t, schemaload.SourceDDL, cfg.Schema.Source)
	assert.Equal(t, []string{filepath.Join(cfg.ProjectRoot, DefaultSchemaPath)}, cfg.Schema.Paths)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultReadHeaderTimeout, cfg.Server.ReadHeaderTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, `dialect: postgres
output: json
workers: 4
cache_size: -1
strict_recursive: true
schema:
  source: ddl
  paths: [db/schema.sql, db/views]
server:
  addr: ":9000"
  read_header_timeout: 3s
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, -1, cfg.CacheSize)
	assert.True(t, cfg.StrictRecursive)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, []string{
		filepath.Join(dir, "db/schema.sql"),
		filepath.Join(dir, "db/views"),
	}, cfg.Schema.Paths)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadHeaderTimeout)

	load := cfg.SchemaLoadConfig()
	require.NotNil(t, load.Dialect)
	assert.Equal(t, "postgres", load.Dialect.Name)
	assert.True(t, load.StrictRecursive)
}

func TestLoadConfigSearchesUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "dialect: duckdb\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cfg.Dialect)

	// Compare through EvalSymlinks: temp dirs may sit behind a symlink.
	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "dialekt: sqlite\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialekt")
}

func TestLoadConfigMissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfigEnv(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "dialect: sqlite\n")
	t.Setenv("SQLTYPE_DIALECT", "duckdb")
	t.Setenv("SQLTYPE_WORKERS", "3")
	t.Setenv("SQLTYPE_SCHEMA__SOURCE", "postgres")
	t.Setenv("SQLTYPE_SCHEMA__DSN", "postgres://localhost/app")
	t.Setenv("SQLTYPE_SERVER__READ_HEADER_TIMEOUT", "250ms")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Dialect, "env var should override config file")
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, schemaload.SourcePostgres, cfg.Schema.Source)
	assert.Equal(t, "postgres://localhost/app", cfg.Schema.DSN)
	assert.Empty(t, cfg.Schema.Paths)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.ReadHeaderTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvSlice(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "")
	t.Setenv("SQLTYPE_SCHEMA__PATHS", "a.sql,b.sql")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.sql"), filepath.Join(dir, "b.sql")}, cfg.Schema.Paths)
}

func TestLoadConfigFlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "dialect: sqlite\noutput: yaml\n")
	t.Setenv("SQLTYPE_DIALECT", "duckdb")

	flags := testFlags()
	require.NoError(t, flags.Set("dialect", "postgres"))
	require.NoError(t, flags.Set("config", path))
	require.NoError(t, flags.Set("fail-fast", "true"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect, "flag should override env var and config file")
	assert.Equal(t, "yaml", cfg.Output, "unset flag should not override config file")
}

func TestLoadConfigFlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "dialect: sqlite\n")
	t.Setenv("SQLTYPE_DIALECT", "duckdb")

	cfg, err := LoadConfig(path, testFlags())
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cfg.Dialect)
}

func TestLoadConfigFlagPathsRelativeToWorkingDir(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	path := writeConfig(t, root, "")
	cwd := t.TempDir()
	t.Chdir(cwd)

	flags := testFlags()
	require.NoError(t, flags.Set("schema", "one.sql,two.sql"))
	require.NoError(t, flags.Set("addr", ":7000"))
	require.NoError(t, flags.Set("watch", "true"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(wd, "one.sql"), filepath.Join(wd, "two.sql")}, cfg.Schema.Paths)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Watch)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Output: "auto", Schema: SchemaConfig{Source: schemaload.SourceDDL, Paths: []string{"s.sql"}}}
	}
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"known dialect", func(c *Config) { c.Dialect = "Postgres" }, ""},
		{"unknown dialect", func(c *Config) { c.Dialect = "oracle" }, `unknown dialect "oracle"`},
		{"unknown output", func(c *Config) { c.Output = "xml" }, `unknown output format "xml"`},
		{"unknown source", func(c *Config) { c.Schema.Source = "mysql" }, `unknown schema source "mysql"`},
		{"postgres without dsn", func(c *Config) {
			c.Schema = SchemaConfig{Source: schemaload.SourcePostgres}
		}, "needs a dsn"},
		{"sqlite with two paths", func(c *Config) {
			c.Schema = SchemaConfig{Source: schemaload.SourceSQLite, Paths: []string{"a", "b"}}
		}, "needs exactly one path"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers must not be negative"},
		{"negative timeout", func(c *Config) { c.Server.ReadHeaderTimeout = -time.Second }, "read_header_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
