package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type loggerKey struct{}

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: SQLTYPE_SCHEMA__SOURCE sets schema.source.
const EnvPrefix = "SQLTYPE_"

// ConfigNames are the file names searched for, in order.
var ConfigNames = []string{"sqltype.yaml", "sqltype.yml"}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names to config keys. Flags not listed here are
// command options and never reach the config.
var flagKeys = map[string]string{
	"dialect":          "dialect",
	"output":           "output",
	"verbose":          "verbose",
	"workers":          "workers",
	"cache-size":       "cache_size",
	"strict-recursive": "strict_recursive",
	"schema":           "schema.paths",
	"schema-source":    "schema.source",
	"dsn":              "schema.dsn",
	"schema-name":      "schema.schema_name",
	"addr":             "server.addr",
	"watch":            "server.watch",
}

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

func configExistsIn(dir string) string {
	for _, name := range ConfigNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if path := configExistsIn(dir); path != "" {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from defaults, the config file,
// environment variables and changed flags, in increasing precedence.
// An empty cfgFile searches upward from the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	configFileUsed = ""

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"output":                     DefaultOutput,
		"verbose":                    false,
		"workers":                    0,
		"cache_size":                 DefaultCacheSize,
		"strict_recursive":           false,
		"schema.source":              DefaultSource,
		"server.addr":                DefaultAddr,
		"server.read_header_timeout": DefaultReadHeaderTimeout.String(),
		"server.watch":               false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	projectRoot := cwd
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Changed flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// Flag paths are relative to the working directory; everything else is
	// relative to the project root.
	base := projectRoot
	if flags != nil && flags.Changed("schema") {
		base = cwd
	}
	if cfg.Schema.Source == DefaultSource && len(cfg.Schema.Paths) == 0 {
		cfg.Schema.Paths = []string{DefaultSchemaPath}
		base = projectRoot
	}
	for i, p := range cfg.Schema.Paths {
		cfg.Schema.Paths[i] = resolvePathRelativeTo(p, base)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// envKey maps SQLTYPE_SCHEMA__SOURCE to schema.source.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func unmarshal(cfg *Config) error {
	return k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           cfg,
		},
	})
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration stored by the last LoadConfig.
func GetCurrentConfig() *Config {
	return currentConfig
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}
