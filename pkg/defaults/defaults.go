// Package defaults centralizes the built-in configuration values for the
// CLI. Flags and config files override these; nothing else should hardcode
// a timeout, worker count, or target URL.
package defaults

import "time"

const (
	// TargetURL is the probe destination used when none is configured.
	// A plain "echo my IP" page: cheap, stable, and its body contains the
	// observed client address, which makes -text-absent checks practical.
	TargetURL = "http://checkip.dyndns.com/"

	// ProbeTimeout bounds a single probe attempt through one proxy.
	ProbeTimeout = 5 * time.Second

	// Workers is the size of the probe worker pool.
	Workers = 10

	// RateLimit is the global probes-per-second cap. Zero disables limiting.
	RateLimit = 0

	// MaxBodySize caps how much of a probe response is read for the
	// canary-text checks. Proxies that return unbounded garbage must not
	// exhaust memory.
	MaxBodySize int64 = 1024 * 1024
)
