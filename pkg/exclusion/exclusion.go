// Package exclusion filters candidate proxy addresses against operator
// supplied IP ranges. Ranges are parsed once per run and immutable after
// construction; membership tests are a linear first-match scan, which is
// plenty at the expected scale of a few hundred ranges.
//
// The two failure modes are deliberately asymmetric: a malformed candidate
// is an input-data problem and is dropped with a diagnostic, while a
// malformed exclusion entry is an operator error and aborts the run.
package exclusion

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"go4.org/netipx"
)

// Candidate is a validated host:port proxy address.
type Candidate struct {
	// Addr is the original host:port string, preserved verbatim for output.
	Addr string

	// IP is the parsed host component, used for range membership tests.
	IP netip.Addr
}

// Ranges is an immutable set of exclusion ranges.
type Ranges []netipx.IPRange

// ParseRanges builds exclusion ranges from configuration lines. Each line
// is either a CIDR block ("10.0.0.0/8") or an explicit start-end range
// ("10.0.0.1-10.0.0.50"). Any entry that fails to parse is a configuration
// error and aborts parsing.
func ParseRanges(lines []string) (Ranges, error) {
	ranges := make(Ranges, 0, len(lines))
	for _, line := range lines {
		r, err := parseRange(line)
		if err != nil {
			return nil, fmt.Errorf("exclusion entry %q: %w", line, err)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func parseRange(entry string) (netipx.IPRange, error) {
	if strings.Contains(entry, "-") {
		return netipx.ParseIPRange(entry)
	}
	prefix, err := netip.ParsePrefix(entry)
	if err != nil {
		return netipx.IPRange{}, err
	}
	return netipx.RangeOfPrefix(prefix.Masked()), nil
}

// Contains reports whether addr falls inside any exclusion range.
// First match short-circuits.
func (r Ranges) Contains(addr netip.Addr) bool {
	for _, ipr := range r {
		if ipr.Contains(addr) {
			return true
		}
	}
	return false
}

// Filter returns the candidates whose host lies outside every exclusion
// range, in input order. Malformed addresses are dropped with an info
// diagnostic, never an error: one bad line must not abort the batch.
// With no ranges configured, Filter is the identity function modulo
// malformed-candidate dropping. Inputs are never mutated.
func Filter(addresses []string, ranges Ranges, logger *slog.Logger) []Candidate {
	if logger == nil {
		logger = slog.Default()
	}

	clean := make([]Candidate, 0, len(addresses))
	for _, address := range addresses {
		cand, err := parseCandidate(address)
		if err != nil {
			logger.Info("skipping malformed address",
				slog.String("address", address),
				slog.String("error", err.Error()))
			continue
		}
		if ranges.Contains(cand.IP) {
			logger.Info("proxy in exclusion list", slog.String("address", address))
			continue
		}
		clean = append(clean, cand)
	}
	return clean
}

func parseCandidate(address string) (Candidate, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return Candidate{}, err
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return Candidate{}, fmt.Errorf("invalid port %q", port)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return Candidate{}, fmt.Errorf("host is not an IP address: %w", err)
	}
	return Candidate{Addr: address, IP: ip}, nil
}
