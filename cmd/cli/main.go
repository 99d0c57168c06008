// Command proxyvet probes a list of candidate proxy servers and reports
// the ones that actually relay traffic. Results go to stdout (or -o);
// diagnostics, banner, and summary go to stderr.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/proxyvet/proxyvet/pkg/config"
	"github.com/proxyvet/proxyvet/pkg/defaults"
	"github.com/proxyvet/proxyvet/pkg/exclusion"
	"github.com/proxyvet/proxyvet/pkg/input"
	"github.com/proxyvet/proxyvet/pkg/output"
	"github.com/proxyvet/proxyvet/pkg/pipeline"
	"github.com/proxyvet/proxyvet/pkg/probe"
	"github.com/proxyvet/proxyvet/pkg/retry"
	"github.com/proxyvet/proxyvet/pkg/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return defaults.ExitConfigError
	}

	if cfg.ShowVersion {
		fmt.Printf("proxyvet %s (commit %s, built %s)\n", ui.Version, ui.Commit, ui.BuildDate)
		return defaults.ExitSuccess
	}

	if cfg.NoColor || !ui.StderrIsTerminal() {
		ui.SetNoColor(true)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)

	if !cfg.Silent {
		ui.PrintBanner()
		ui.PrintConfigBanner(configOptions(cfg))
	}

	// Exclusion ranges parse first: a malformed exclusion list is an
	// operator error and nothing may be probed before it is applied.
	exclLines, err := input.ReadExclusions(cfg.ExclusionFile)
	if err != nil {
		logger.Error("reading exclusion list failed", slog.String("error", err.Error()))
		return defaults.ExitConfigError
	}
	ranges, err := exclusion.ParseRanges(exclLines)
	if err != nil {
		logger.Error("invalid exclusion list", slog.String("error", err.Error()))
		return defaults.ExitConfigError
	}

	addresses, err := input.ReadAddresses(cfg.InputFile)
	if err != nil {
		logger.Error("reading candidate list failed", slog.String("error", err.Error()))
		return defaults.ExitConfigError
	}

	candidates := exclusion.Filter(addresses, ranges, logger)
	survivors := make([]string, len(candidates))
	for i, cand := range candidates {
		survivors[i] = cand.Addr
	}
	tasks := pipeline.BuildTasks(survivors, cfg.Variants, cfg.TargetURL,
		cfg.Timeout, cfg.TextPresent, cfg.TextAbsent)

	// An unwritable destination is caught here, before any probing; only
	// mid-run write failures use the output-error exit code.
	writer, err := output.NewWriter(cfg.OutputFile, cfg.OutputFormat)
	if err != nil {
		logger.Error("opening output failed", slog.String("error", err.Error()))
		return defaults.ExitConfigError
	}

	retryCfg := retry.SingleAttempt()
	if cfg.Retries > 1 {
		retryCfg = retry.Config{MaxAttempts: cfg.Retries, Delay: 500 * time.Millisecond, Jitter: true}
	}
	prober := probe.New(probe.Options{
		Retry:      retryCfg,
		SkipVerify: cfg.SkipVerify,
		Logger:     logger,
	})

	pipe := pipeline.New(pipeline.Config{
		Workers:   cfg.Workers,
		RateLimit: cfg.RateLimit,
	}, prober, writer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, runErr := pipe.Run(ctx, tasks)
	closeErr := writer.Close()

	if !cfg.Silent {
		ui.PrintSummary(ui.Summary{
			Candidates: len(addresses),
			Dropped:    len(addresses) - len(candidates),
			Tasks:      stats.Tasks,
			Good:       stats.Succeeded,
			Failed:     stats.Failed,
			Duration:   stats.Duration,
		})
	}

	if runErr != nil {
		logger.Error("run aborted on output failure", slog.String("error", runErr.Error()))
		return defaults.ExitOutputError
	}
	if closeErr != nil {
		logger.Error("flushing output failed", slog.String("error", closeErr.Error()))
		return defaults.ExitOutputError
	}
	return defaults.ExitSuccess
}

func configOptions(cfg *config.Config) map[string]string {
	variants := make([]string, len(cfg.Variants))
	for i, v := range cfg.Variants {
		variants[i] = string(v)
	}

	inputName := cfg.InputFile
	if inputName == "" || inputName == "-" {
		inputName = "stdin"
	}
	outputName := cfg.OutputFile
	if outputName == "" || outputName == "-" {
		outputName = "stdout"
	}

	opts := map[string]string{
		"Target":      cfg.TargetURL,
		"Proxy Types": strings.Join(variants, ", "),
		"Input":       inputName,
		"Exclusions":  cfg.ExclusionFile,
		"Workers":     fmt.Sprintf("%d", cfg.Workers),
		"Timeout":     cfg.Timeout.String(),
		"Output":      outputName,
		"Format":      cfg.OutputFormat,
	}
	if cfg.RateLimit > 0 {
		opts["Rate Limit"] = fmt.Sprintf("%d/s", cfg.RateLimit)
	}
	return opts
}
