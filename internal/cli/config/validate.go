package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ParamsDir == "" {
		return fmt.Errorf("params_dir is required")
	}
	if _, err := c.ExitRegexp(); err != nil {
		return err
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of: %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// ExitRegexp compiles the exit pattern.
func (c *Config) ExitRegexp() (*regexp.Regexp, error) {
	if c.ExitPattern == "" {
		return nil, fmt.Errorf("exit_pattern is required")
	}
	re, err := regexp.Compile(c.ExitPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid exit_pattern %q: %w", c.ExitPattern, err)
	}
	return re, nil
}
