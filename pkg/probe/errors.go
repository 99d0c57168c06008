package probe

import (
	"context"
	"errors"
	"net"
	"strings"
)

// contentMismatchError marks a probe that connected fine but failed a
// canary-text gate. Outwardly identical to any other failed task.
type contentMismatchError struct {
	reason string
}

func (e *contentMismatchError) Error() string { return e.reason }

func isContentMismatch(err error) bool {
	var cm *contentMismatchError
	return errors.As(err, &cm)
}

// isConnectivityError reports whether err is a network-level failure
// (timeout, refused, reset, unreachable, DNS). These are the expected
// fate of most candidate proxies and warrant no more than a debug line.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// Some transports flatten the cause into the message.
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"no route to host",
		"network is unreachable",
		"i/o timeout",
		"context deadline exceeded",
		"proxy dial timeout",
		"eof",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
