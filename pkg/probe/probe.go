// Package probe implements the network probe capability: issue one HTTP
// request through a candidate proxy and decide whether the proxy is
// usable. Everything here is contained to a single task; no failure in
// this package can abort a batch.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/proxyvet/proxyvet/pkg/defaults"
	"github.com/proxyvet/proxyvet/pkg/retry"
)

// Variant is the proxy protocol used for a probe.
type Variant string

const (
	VariantHTTP   Variant = "http"
	VariantSOCKS4 Variant = "socks4"
	VariantSOCKS5 Variant = "socks5"
)

// ParseVariant validates a protocol name from configuration.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantHTTP, VariantSOCKS4, VariantSOCKS5:
		return v, nil
	default:
		return "", fmt.Errorf("unknown proxy type %q (supported: http, socks4, socks5)", s)
	}
}

// Task is one unit of probe work: check one proxy address with one
// protocol variant. Tasks are immutable once built and owned by exactly
// one worker at a time.
type Task struct {
	// TargetURL is the page requested through the proxy.
	TargetURL string

	// Proxy is the candidate address in host:port form.
	Proxy string

	// Variant selects the proxy protocol for this attempt.
	Variant Variant

	// Timeout bounds the whole probe attempt.
	Timeout time.Duration

	// TextPresent, when non-empty, must appear in the response body.
	TextPresent string

	// TextAbsent, when non-empty, must not appear in the response body.
	TextAbsent string
}

// Outcome is a successful probe result. Failed probes produce no Outcome.
type Outcome struct {
	Proxy   string        `json:"proxy"`
	Variant Variant       `json:"type"`
	Latency time.Duration `json:"latency"`
}

// Options configures a Prober.
type Options struct {
	// Retry is the declared retry policy, fixed at construction.
	// The zero value means retry.SingleAttempt().
	Retry retry.Config

	// SkipVerify disables TLS certificate verification for HTTPS targets.
	SkipVerify bool

	// MaxBodySize caps response reads for the canary checks.
	// Zero means defaults.MaxBodySize.
	MaxBodySize int64

	// Logger receives per-attempt diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Prober executes probe tasks. Safe for concurrent use: each Check builds
// its own single-proxy HTTP client and shares no mutable state.
type Prober struct {
	retryCfg retry.Config
	skipTLS  bool
	maxBody  int64
	logger   *slog.Logger
}

// New creates a Prober with the given options.
func New(opts Options) *Prober {
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.SingleAttempt()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaults.MaxBodySize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Prober{
		retryCfg: opts.Retry,
		skipTLS:  opts.SkipVerify,
		maxBody:  opts.MaxBodySize,
		logger:   opts.Logger,
	}
}

// Check probes one proxy. It returns the outcome and true on success, or
// a zero Outcome and false on any failure. Failures are diagnostics, not
// errors: connectivity problems, canary-text mismatches, and unexpected
// transport errors all score the task as failed without escalating.
func (p *Prober) Check(ctx context.Context, task Task) (Outcome, bool) {
	client, err := p.newClient(task)
	if err != nil {
		// Misassembled proxy URL for this candidate; treat like any
		// other per-task failure.
		p.logger.Debug("proxy client construction failed",
			slog.String("proxy", task.Proxy),
			slog.String("type", string(task.Variant)),
			slog.String("error", err.Error()))
		return Outcome{}, false
	}
	defer client.CloseIdleConnections()

	var outcome Outcome
	attempt := func() error {
		out, err := p.attempt(ctx, client, task)
		if err != nil {
			return err
		}
		outcome = out
		return nil
	}

	if err := retry.Do(ctx, p.retryCfg, attempt); err != nil {
		switch {
		case isContentMismatch(err):
			p.logger.Debug("canary check failed",
				slog.String("proxy", task.Proxy),
				slog.String("type", string(task.Variant)),
				slog.String("reason", err.Error()))
		case isConnectivityError(err):
			p.logger.Debug("connectivity failure",
				slog.String("proxy", task.Proxy),
				slog.String("type", string(task.Variant)))
		default:
			// Same outward behavior as a connectivity failure; the
			// extra detail exists only for operator diagnosis.
			p.logger.Debug("unexpected probe error",
				slog.String("proxy", task.Proxy),
				slog.String("type", string(task.Variant)),
				slog.String("error", err.Error()))
		}
		return Outcome{}, false
	}
	return outcome, true
}
