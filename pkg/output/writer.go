// Package output serializes successful probe outcomes to a text sink.
// Writers are exclusively owned by the pipeline's single result collector,
// so every line is complete and never interleaved; the mutex is belt and
// braces for any future caller that isn't so disciplined.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/proxyvet/proxyvet/pkg/jsonutil"
	"github.com/proxyvet/proxyvet/pkg/probe"
)

// ResultWriter receives successful outcomes one at a time. A Write error
// is fatal to the run: silently truncated output defeats the tool.
type ResultWriter interface {
	Write(outcome *probe.Outcome) error
	Close() error
}

// NewWriter creates the appropriate writer for the format ("text" or
// "jsonl"). An empty path or "-" writes to stdout, which is flushed but
// never closed.
func NewWriter(path, format string) (ResultWriter, error) {
	dest, closer, err := openDest(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case "", "text":
		return &TextWriter{w: bufio.NewWriter(dest), closer: closer}, nil
	case "jsonl":
		return &JSONLWriter{buf: bufio.NewWriter(dest), closer: closer}, nil
	default:
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("unknown output format %q (supported: text, jsonl)", format)
	}
}

func openDest(path string) (io.Writer, io.Closer, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil, nil
	}
	// Append so repeated runs against different candidate lists can
	// accumulate into one good-proxy file.
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open output destination: %w", err)
	}
	return file, file, nil
}

// TextWriter emits one comma-separated line per outcome:
//
//	type,latency-seconds,host:port
//
// e.g. "socks5,0.42,1.2.3.4:1080". Latency is seconds with two decimals.
type TextWriter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

func (t *TextWriter) Write(outcome *probe.Outcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintf(t.w, "%s,%.2f,%s\n",
		outcome.Variant, outcome.Latency.Seconds(), outcome.Proxy)
	return err
}

// Close flushes buffered lines and closes the destination (except stdout).
func (t *TextWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.w.Flush(); err != nil {
		return err
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// JSONLWriter emits one JSON object per line.
type JSONLWriter struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	closer io.Closer
}

// jsonOutcome pins the wire format; time.Duration's native JSON encoding
// is an implementation detail we don't want on the wire.
type jsonOutcome struct {
	Type           string  `json:"type"`
	LatencySeconds float64 `json:"latency_seconds"`
	Proxy          string  `json:"proxy"`
}

func (j *JSONLWriter) Write(outcome *probe.Outcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return jsonutil.NewEncoder(j.buf).Encode(jsonOutcome{
		Type:           string(outcome.Variant),
		LatencySeconds: outcome.Latency.Seconds(),
		Proxy:          outcome.Proxy,
	})
}

func (j *JSONLWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.buf.Flush(); err != nil {
		return err
	}
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
