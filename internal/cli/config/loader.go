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

type (
	loggerKey struct{}
	configKey struct{}
)

// searchDepth bounds the upward search for a config file.
const searchDepth = 10

// k holds the layered values of the last LoadConfig call.
var (
	k              = koanf.New(".")
	configFileUsed string
)

// ResetConfig clears the state left by LoadConfig. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// LoadConfig layers, lowest to highest: defaults, the config file, PARAMIMPORT_*
// environment variables and flags that were set on the command line.
//
// Without an explicit cfgFile, paramimport.yaml (or .yml) is searched for in
// the working directory and up to ten of its parents. Relative paths in the
// result are resolved against the directory holding the config file, except
// --package-path, which is relative to the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	ResetConfig()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	if err := loadDefaults(); err != nil {
		return nil, err
	}

	workspaceRoot := cwd
	configFileUsed = cfgFile
	if configFileUsed == "" {
		configFileUsed = searchUpward(cwd)
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			workspaceRoot = filepath.Dir(abs)
		}
	}

	if err := loadEnv(); err != nil {
		return nil, err
	}
	if err := loadFlags(flags); err != nil {
		return nil, err
	}

	cfg, err := decode()
	if err != nil {
		return nil, err
	}

	cfg.WorkspaceRoot = workspaceRoot
	if paths := flagPackagePath(flags); paths != nil {
		cfg.PackagePath = paths
	} else {
		for i, p := range cfg.PackagePath {
			cfg.PackagePath[i] = relativeTo(workspaceRoot, p)
		}
	}
	cfg.TempDir = relativeTo(workspaceRoot, cfg.TempDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDefaults() error {
	defaults := map[string]any{
		"params_dir":   DefaultParamsDir,
		"exit_pattern": DefaultExitPattern,
		"concurrency":  DefaultConcurrency,
		"timeout":      "0s",
		"verbose":      false,
		"output":       DefaultOutput,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}
	return nil
}

// loadEnv maps PARAMIMPORT_PARAMS_DIR to params_dir and so on.
func loadEnv() error {
	toKey := func(name string) string {
		return strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", toKey), nil); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	return nil
}

// loadFlags loads only the flags set on the command line; --params-dir
// becomes params_dir.
func loadFlags(flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load flags: %w", err)
	}
	return nil
}

// decode unmarshals the layered values. Strings decode into durations, and
// into lists split on the path list separator, so PARAMIMPORT_PACKAGE_PATH
// reads like ROS_PACKAGE_PATH.
func decode() (*Config, error) {
	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(string(os.PathListSeparator)),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// flagPackagePath returns --package-path made absolute against the working
// directory, or nil when the flag was not set.
func flagPackagePath(flags *pflag.FlagSet) []string {
	if flags == nil || !flags.Changed("package-path") {
		return nil
	}
	paths, _ := flags.GetStringSlice("package-path")
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		if a, err := filepath.Abs(p); err == nil {
			abs = append(abs, a)
		}
	}
	return abs
}

// searchUpward returns the first config file found in dir or its parents.
func searchUpward(dir string) string {
	for range searchDepth {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func relativeTo(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// GetConfigFileUsed returns the config file read by the last LoadConfig, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoggerKey returns the context key the CLI stores its logger under.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger returns the logger stored in ctx, or a discarding logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}

// ConfigKey returns the context key the CLI stores the loaded config under.
func ConfigKey() interface{} {
	return configKey{}
}

// GetConfig returns the config stored in ctx, or the defaults.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}
