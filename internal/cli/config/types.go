// Package config provides configuration management for the paramimport CLI.
//
// Values are layered, lowest to highest: built-in defaults, the
// paramimport.yaml file, PARAMIMPORT_* environment variables and command-line
// flags.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	// PackagePath lists package search roots in priority order. Empty means
	// ROS_PACKAGE_PATH.
	PackagePath  []string      `koanf:"package_path"`
	ParamsDir    string        `koanf:"params_dir"`
	ExitPattern  string        `koanf:"exit_pattern"`
	Marker       string        `koanf:"marker"`
	TempDir      string        `koanf:"temp_dir"`
	Concurrency  int           `koanf:"concurrency"`
	Timeout      time.Duration `koanf:"timeout"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`

	// WorkspaceRoot is the directory relative paths are resolved against:
	// the config file's directory, or the working directory without one.
	WorkspaceRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultParamsDir   = "cfg"
	DefaultExitPattern = `exit\(`
	DefaultOutput      = OutputTable
	DefaultConcurrency = 4
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		ParamsDir:    DefaultParamsDir,
		ExitPattern:  DefaultExitPattern,
		Concurrency:  DefaultConcurrency,
		OutputFormat: DefaultOutput,
	}
}

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// OutputFormats lists the accepted values of the output option.
var OutputFormats = []string{OutputTable, OutputJSON, OutputYAML}

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "PARAMIMPORT_"

// ConfigFileName is the name of the config file.
const ConfigFileName = "paramimport.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "paramimport.yml"
