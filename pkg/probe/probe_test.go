package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// proxyAddr strips the scheme from an httptest server URL so it can pose
// as a plain host:port HTTP proxy.
func proxyAddr(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	return strings.TrimPrefix(srv.URL, "http://")
}

// closedPort returns an address nothing is listening on.
func closedPort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"http", "SOCKS4", " socks5 "} {
		v, err := ParseVariant(s)
		require.NoError(t, err, s)
		assert.NotEmpty(t, v)
	}

	_, err := ParseVariant("gopher")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gopher")
}

func TestCheck_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Current IP Address: 93.184.216.34")
	}))
	defer srv.Close()

	p := New(Options{Logger: testLogger()})
	out, ok := p.Check(context.Background(), Task{
		TargetURL: "http://checkip.example/",
		Proxy:     proxyAddr(t, srv),
		Variant:   VariantHTTP,
		Timeout:   5 * time.Second,
	})

	require.True(t, ok)
	assert.Equal(t, proxyAddr(t, srv), out.Proxy)
	assert.Equal(t, VariantHTTP, out.Variant)
	assert.Greater(t, out.Latency, time.Duration(0))
}

func TestCheck_TextPresentGate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "welcome to the captive portal")
	}))
	defer srv.Close()

	p := New(Options{Logger: testLogger()})
	_, ok := p.Check(context.Background(), Task{
		TargetURL:   "http://checkip.example/",
		Proxy:       proxyAddr(t, srv),
		Variant:     VariantHTTP,
		Timeout:     5 * time.Second,
		TextPresent: "secret",
	})

	assert.False(t, ok, "successful connection must still fail the canary gate")
}

func TestCheck_TextAbsentGate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "your address is 198.51.100.7")
	}))
	defer srv.Close()

	p := New(Options{Logger: testLogger()})
	_, ok := p.Check(context.Background(), Task{
		TargetURL:  "http://checkip.example/",
		Proxy:      proxyAddr(t, srv),
		Variant:    VariantHTTP,
		Timeout:    5 * time.Second,
		TextAbsent: "198.51.100.7",
	})

	assert.False(t, ok, "forbidden text in the body must fail the task")
}

func TestCheck_BothGatesMustHold(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Current IP Address: 203.0.113.9")
	}))
	defer srv.Close()

	p := New(Options{Logger: testLogger()})
	out, ok := p.Check(context.Background(), Task{
		TargetURL:   "http://checkip.example/",
		Proxy:       proxyAddr(t, srv),
		Variant:     VariantHTTP,
		Timeout:     5 * time.Second,
		TextPresent: "Current IP",
		TextAbsent:  "192.0.2.1",
	})

	require.True(t, ok)
	assert.Equal(t, VariantHTTP, out.Variant)
}

func TestCheck_ConnectivityFailure(t *testing.T) {
	t.Parallel()

	p := New(Options{Logger: testLogger()})
	_, ok := p.Check(context.Background(), Task{
		TargetURL: "http://checkip.example/",
		Proxy:     closedPort(t),
		Variant:   VariantHTTP,
		Timeout:   2 * time.Second,
	})

	assert.False(t, ok)
}

func TestCheck_SOCKSConnectivityFailure(t *testing.T) {
	t.Parallel()

	for _, variant := range []Variant{VariantSOCKS4, VariantSOCKS5} {
		p := New(Options{Logger: testLogger()})
		_, ok := p.Check(context.Background(), Task{
			TargetURL: "http://checkip.example/",
			Proxy:     closedPort(t),
			Variant:   variant,
			Timeout:   2 * time.Second,
		})
		assert.False(t, ok, string(variant))
	}
}

func TestIsConnectivityError(t *testing.T) {
	t.Parallel()

	assert.False(t, isConnectivityError(nil))
	assert.True(t, isConnectivityError(context.DeadlineExceeded))
	assert.True(t, isConnectivityError(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.True(t, isConnectivityError(errors.New("read tcp: connection reset by peer")))
	assert.False(t, isConnectivityError(errors.New("malformed response header")))
}
