// Package config assembles the effective run configuration from three
// layers: built-in defaults, an optional YAML defaults file, and command
// line flags. Later layers win; a flag given on the command line always
// beats the YAML file.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/proxyvet/proxyvet/pkg/defaults"
	"github.com/proxyvet/proxyvet/pkg/input"
	"github.com/proxyvet/proxyvet/pkg/probe"
)

// Config holds all CLI configuration options
type Config struct {
	// Input settings
	InputFile     string // candidate list path (empty or "-" = stdin)
	ExclusionFile string // exclusion list path (empty = no exclusions)

	// Probe settings
	TargetURL   string
	TextPresent string
	TextAbsent  string
	Timeout     time.Duration
	ProxyTypes  input.StringSliceFlag // raw -proxy-type values
	Variants    []probe.Variant       // parsed ProxyTypes
	Retries     int
	SkipVerify  bool

	// Execution settings
	Workers   int
	RateLimit int // probes per second (0 = unlimited)

	// Output settings
	OutputFile   string // empty or "-" = stdout
	OutputFormat string // text, jsonl
	LogLevel     string
	NoColor      bool
	Silent       bool

	// Meta
	ConfigFile  string
	ShowVersion bool
}

// ParseFlags parses command line arguments and returns Config
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	// === INPUT ===
	flag.StringVar(&cfg.InputFile, "input", "", "File of proxy host:port candidates, one per line (default: stdin)")
	flag.StringVar(&cfg.InputFile, "l", "", "Candidate list file (alias)")
	flag.StringVar(&cfg.ExclusionFile, "exclusion-list", "", "File of IP blocks (CIDR or start-end) to never probe")

	// === PROBE ===
	flag.StringVar(&cfg.TargetURL, "target-address", defaults.TargetURL, "Website to test candidates against")
	flag.StringVar(&cfg.TargetURL, "u", defaults.TargetURL, "Target URL (alias)")
	flag.StringVar(&cfg.TextPresent, "text-present", "", "Text that must appear in the response body")
	flag.StringVar(&cfg.TextAbsent, "text-absent", "", "Text that must not appear in the response body (e.g. your public IP)")
	timeout := flag.Float64("timeout", defaults.ProbeTimeout.Seconds(), "Per-probe timeout in seconds")
	flag.Var(&cfg.ProxyTypes, "proxy-type", "Proxy protocols to test: http, socks4, socks5 (repeatable)")
	flag.Var(&cfg.ProxyTypes, "t", "Proxy protocols (alias)")
	flag.IntVar(&cfg.Retries, "retries", 1, "Attempts per probe before scoring it failed")
	flag.BoolVar(&cfg.SkipVerify, "skip-verify", false, "Skip TLS verification for HTTPS targets")
	flag.BoolVar(&cfg.SkipVerify, "k", false, "Skip TLS (alias)")

	// === EXECUTION ===
	flag.IntVar(&cfg.Workers, "num-workers", defaults.Workers, "Concurrent probe workers")
	flag.IntVar(&cfg.Workers, "c", defaults.Workers, "Concurrent workers (alias)")
	flag.IntVar(&cfg.RateLimit, "rate-limit", defaults.RateLimit, "Max probes per second (0 = unlimited)")
	flag.IntVar(&cfg.RateLimit, "rl", defaults.RateLimit, "Rate limit (alias)")

	// === OUTPUT ===
	flag.StringVar(&cfg.OutputFile, "output", "", "File to write working proxies to (default: stdout)")
	flag.StringVar(&cfg.OutputFile, "o", "", "Output file (alias)")
	flag.StringVar(&cfg.OutputFormat, "format", "text", "Output format: text, jsonl")
	flag.StringVar(&cfg.LogLevel, "log-level", "warn", "Log verbosity: debug, info, warn, error")
	flag.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&cfg.Silent, "silent", false, "Suppress banner and summary")
	flag.BoolVar(&cfg.Silent, "s", false, "Silent (alias)")

	// === META ===
	flag.StringVar(&cfg.ConfigFile, "config", "", "YAML file of default settings")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	// Parse
	flag.Parse()
	cfg.Timeout = secondsToDuration(*timeout)

	// YAML defaults only fill in flags the command line left untouched.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if cfg.ConfigFile != "" {
		if err := applyFile(cfg, cfg.ConfigFile, set); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ShowVersion {
		return nil
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidConfig, c.Timeout)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: num-workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate-limit must not be negative, got %d", ErrInvalidConfig, c.RateLimit)
	}
	if c.Retries <= 0 {
		return fmt.Errorf("%w: retries must be positive, got %d", ErrInvalidConfig, c.Retries)
	}

	switch c.OutputFormat {
	case "text", "jsonl":
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.OutputFormat)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if len(c.ProxyTypes) == 0 {
		c.ProxyTypes = input.StringSliceFlag{"http"}
	}
	c.Variants = c.Variants[:0]
	for _, raw := range c.ProxyTypes {
		v, err := probe.ParseVariant(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		c.Variants = append(c.Variants, v)
	}
	return nil
}

// secondsToDuration converts a fractional seconds value, as given on the
// command line or in the YAML file, to a Duration.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ParseLogLevel maps a verbosity name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", s)
	}
}
