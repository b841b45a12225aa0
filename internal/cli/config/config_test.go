package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/paramimport/internal/testutil"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice("package-path", nil, "package search roots")
	flags.String("params-dir", "", "params directory")
	flags.String("exit-pattern", "", "exit pattern")
	flags.String("marker", "", "type name marker")
	flags.Int("concurrency", 0, "concurrent loads")
	flags.Duration("timeout", 0, "load timeout")
	flags.StringP("output", "o", "", "output format")
	flags.BoolP("verbose", "v", false, "verbose")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultParamsDir, cfg.ParamsDir)
	assert.Equal(t, DefaultExitPattern, cfg.ExitPattern)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Zero(t, cfg.Timeout)
	assert.Empty(t, cfg.PackagePath)
	assert.Empty(t, cfg.Marker)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, GetConfigFileUsed())

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, cwd, cfg.WorkspaceRoot)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ConfigFileName)
	testutil.WriteFile(t, cfgPath, `package_path:
  - src
  - /opt/ros/noetic/share
params_dir: params
marker: paramgen.Generator
timeout: 30s
output: json
temp_dir: tmp
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "src"), "/opt/ros/noetic/share"}, cfg.PackagePath)
	assert.Equal(t, "params", cfg.ParamsDir)
	assert.Equal(t, "paramgen.Generator", cfg.Marker)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, OutputJSON, cfg.OutputFormat)
	assert.Equal(t, filepath.Join(dir, "tmp"), cfg.TempDir)
	assert.Equal(t, dir, cfg.WorkspaceRoot)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadConfig_FindsFileUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, ConfigFileNameAlt), "params_dir: from_file\n")
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.ParamsDir)
	assert.Equal(t, ConfigFileNameAlt, filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvPackagePath(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	a, b := t.TempDir(), t.TempDir()
	t.Setenv("PARAMIMPORT_PACKAGE_PATH", a+string(os.PathListSeparator)+b)
	t.Setenv("PARAMIMPORT_CONCURRENCY", "9")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, cfg.PackagePath)
	assert.Equal(t, 9, cfg.Concurrency)
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, ConfigFileName)
	testutil.WriteFile(t, cfgPath, "params_dir: from_file\n")

	t.Setenv("PARAMIMPORT_PARAMS_DIR", "from_env")

	flags := newFlags()
	require.NoError(t, flags.Set("params-dir", "from_flag"))
	require.NoError(t, flags.Set("timeout", "2m"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.ParamsDir, "flag value should override config file and env var")
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, ConfigFileName)
	testutil.WriteFile(t, cfgPath, "params_dir: from_file\n")

	t.Setenv("PARAMIMPORT_PARAMS_DIR", "from_env")

	// Flag set exists but the flag is not set (Changed is false)
	cfg, err := LoadConfig(cfgPath, newFlags())
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.ParamsDir, "env var should override config file")
}

func TestLoadConfig_FlagPackagePathRelativeToCwd(t *testing.T) {
	ResetConfig()

	workspace := t.TempDir()
	cfgPath := filepath.Join(workspace, ConfigFileName)
	testutil.WriteFile(t, cfgPath, "package_path: [from_file]\n")

	cwd := t.TempDir()
	t.Chdir(cwd)

	flags := newFlags()
	require.NoError(t, flags.Set("package-path", "a,b"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(wd, "a"), filepath.Join(wd, "b")}, cfg.PackagePath)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ParamsDir:    DefaultParamsDir,
			ExitPattern:  DefaultExitPattern,
			OutputFormat: DefaultOutput,
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty params_dir", mutate: func(c *Config) { c.ParamsDir = "" }, errSubstr: "params_dir is required"},
		{name: "empty exit_pattern", mutate: func(c *Config) { c.ExitPattern = "" }, errSubstr: "exit_pattern is required"},
		{name: "bad exit_pattern", mutate: func(c *Config) { c.ExitPattern = `exit(` }, errSubstr: "invalid exit_pattern"},
		{name: "bad output", mutate: func(c *Config) { c.OutputFormat = "xml" }, errSubstr: "invalid output format"},
		{name: "negative concurrency", mutate: func(c *Config) { c.Concurrency = -1 }, errSubstr: "concurrency"},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, errSubstr: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
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
	assert.NotNil(t, GetLogger(context.Background()), "fallback logger")

	logger := testutil.NewTestLogger(t)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestGetConfig(t *testing.T) {
	fallback := GetConfig(context.Background())
	require.NotNil(t, fallback)
	assert.Equal(t, DefaultParamsDir, fallback.ParamsDir)
	assert.NoError(t, fallback.Validate())

	cfg := &Config{ParamsDir: "params"}
	ctx := context.WithValue(context.Background(), ConfigKey(), cfg)
	assert.Same(t, cfg, GetConfig(ctx))
}
