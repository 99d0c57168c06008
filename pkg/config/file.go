package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/proxyvet/proxyvet/pkg/input"
)

// fileConfig mirrors the YAML defaults file. Pointer fields distinguish
// "absent" from a zero value.
type fileConfig struct {
	Input         *string  `yaml:"input"`
	ExclusionList *string  `yaml:"exclusion-list"`
	TargetAddress *string  `yaml:"target-address"`
	TextPresent   *string  `yaml:"text-present"`
	TextAbsent    *string  `yaml:"text-absent"`
	Timeout       *float64 `yaml:"timeout"`
	ProxyTypes    []string `yaml:"proxy-types"`
	Retries       *int     `yaml:"retries"`
	SkipVerify    *bool    `yaml:"skip-verify"`
	NumWorkers    *int     `yaml:"num-workers"`
	RateLimit     *int     `yaml:"rate-limit"`
	Output        *string  `yaml:"output"`
	Format        *string  `yaml:"format"`
	LogLevel      *string  `yaml:"log-level"`
	NoColor       *bool    `yaml:"no-color"`
	Silent        *bool    `yaml:"silent"`
}

// applyFile layers YAML defaults under the parsed flags: a file value is
// applied only when none of the field's flag names appeared on the
// command line.
func applyFile(cfg *Config, path string, set map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config file: %v", ErrInvalidConfig, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: parse config file %s: %v", ErrInvalidConfig, path, err)
	}

	touched := func(names ...string) bool {
		for _, n := range names {
			if set[n] {
				return true
			}
		}
		return false
	}

	if fc.Input != nil && !touched("input", "l") {
		cfg.InputFile = *fc.Input
	}
	if fc.ExclusionList != nil && !touched("exclusion-list") {
		cfg.ExclusionFile = *fc.ExclusionList
	}
	if fc.TargetAddress != nil && !touched("target-address", "u") {
		cfg.TargetURL = *fc.TargetAddress
	}
	if fc.TextPresent != nil && !touched("text-present") {
		cfg.TextPresent = *fc.TextPresent
	}
	if fc.TextAbsent != nil && !touched("text-absent") {
		cfg.TextAbsent = *fc.TextAbsent
	}
	if fc.Timeout != nil && !touched("timeout") {
		cfg.Timeout = secondsToDuration(*fc.Timeout)
	}
	if len(fc.ProxyTypes) > 0 && !touched("proxy-type", "t") {
		cfg.ProxyTypes = input.StringSliceFlag(fc.ProxyTypes)
	}
	if fc.Retries != nil && !touched("retries") {
		cfg.Retries = *fc.Retries
	}
	if fc.SkipVerify != nil && !touched("skip-verify", "k") {
		cfg.SkipVerify = *fc.SkipVerify
	}
	if fc.NumWorkers != nil && !touched("num-workers", "c") {
		cfg.Workers = *fc.NumWorkers
	}
	if fc.RateLimit != nil && !touched("rate-limit", "rl") {
		cfg.RateLimit = *fc.RateLimit
	}
	if fc.Output != nil && !touched("output", "o") {
		cfg.OutputFile = *fc.Output
	}
	if fc.Format != nil && !touched("format") {
		cfg.OutputFormat = *fc.Format
	}
	if fc.LogLevel != nil && !touched("log-level") {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.NoColor != nil && !touched("no-color") {
		cfg.NoColor = *fc.NoColor
	}
	if fc.Silent != nil && !touched("silent", "s") {
		cfg.Silent = *fc.Silent
	}
	return nil
}
