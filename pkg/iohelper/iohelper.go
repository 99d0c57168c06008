// Package iohelper provides helpers for safely reading HTTP response
// bodies with limits.
package iohelper

import "io"

// ReadBody reads from r with a size limit, preventing memory exhaustion
// from proxies that return arbitrarily large or endless responses.
// A nil reader yields an empty slice.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose reads any remaining data from r (bounded) and closes it if
// it's a ReadCloser. Always returns nil so it can sit in a defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
