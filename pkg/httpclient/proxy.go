// Proxy URL parsing and SOCKS dialer creation.
//
// Supported proxy schemes:
//   - http:// - HTTP CONNECT proxy
//   - https:// - HTTPS CONNECT proxy
//   - socks4:// - SOCKS4 proxy
//   - socks5:// - SOCKS5 proxy (local DNS resolution)
//   - socks5h:// - SOCKS5 proxy with remote DNS resolution
package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Supported proxy schemes - validated during URL parsing
var supportedProxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks4":  true,
	"socks5":  true,
	"socks5h": true,
}

// ProxyConfig holds parsed proxy configuration.
type ProxyConfig struct {
	URL      *url.URL
	Scheme   string
	Host     string
	Port     string
	Username string
	Password string
	IsSOCKS  bool
}

// ParseProxyURL validates and parses a proxy URL string.
// Returns nil, nil if proxyURL is empty (no proxy configured).
// A bare host:port defaults to the http scheme.
func ParseProxyURL(proxyURL string) (*ProxyConfig, error) {
	if proxyURL == "" {
		return nil, nil
	}

	if !strings.Contains(proxyURL, "://") {
		proxyURL = "http://" + proxyURL
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !supportedProxySchemes[scheme] {
		return nil, fmt.Errorf("unsupported proxy scheme %q, supported: http, https, socks4, socks5, socks5h", scheme)
	}

	host := parsed.Hostname()
	port := parsed.Port()
	if host == "" {
		return nil, fmt.Errorf("proxy URL missing host")
	}
	if port == "" {
		return nil, fmt.Errorf("proxy URL missing port")
	}

	config := &ProxyConfig{
		URL:     parsed,
		Scheme:  scheme,
		Host:    host,
		Port:    port,
		IsSOCKS: scheme == "socks4" || scheme == "socks5" || scheme == "socks5h",
	}

	if parsed.User != nil {
		config.Username = parsed.User.Username()
		config.Password, _ = parsed.User.Password()
	}

	return config, nil
}

// Address returns the proxy address in host:port format.
func (p *ProxyConfig) Address() string {
	if p == nil {
		return ""
	}
	return net.JoinHostPort(p.Host, p.Port)
}

// ContextDialer is an interface for dialers that support context.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// timeoutDialer wraps a proxy.Dialer with timeout support; SOCKS dialers
// from x/net/proxy don't natively honor one.
type timeoutDialer struct {
	dialer  proxy.Dialer
	timeout time.Duration
}

// DialContext implements ContextDialer with timeout support.
func (t *timeoutDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	connCh := make(chan net.Conn, 1)
	errCh := make(chan error, 1)

	go func() {
		var conn net.Conn
		var err error

		if ctxDialer, ok := t.dialer.(proxy.ContextDialer); ok {
			conn, err = ctxDialer.DialContext(ctx, network, address)
		} else {
			conn, err = t.dialer.Dial(network, address)
		}

		if err != nil {
			errCh <- err
			return
		}

		// If the context already expired, close the late connection
		// instead of leaking it.
		select {
		case connCh <- conn:
		case <-ctx.Done():
			conn.Close()
		}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("proxy dial timeout: %w", ctx.Err())
	case conn := <-connCh:
		return conn, nil
	case err := <-errCh:
		return nil, err
	}
}

// NewSOCKSDialer creates a SOCKS dialer from a parsed proxy configuration.
// Supports SOCKS4, SOCKS5, and SOCKS5h. The returned dialer plugs into an
// http.Transport's DialContext.
func NewSOCKSDialer(config *ProxyConfig, timeout time.Duration) (ContextDialer, error) {
	if config == nil {
		return nil, fmt.Errorf("proxy config is nil")
	}

	// SOCKS4 has its own hand-rolled handshake; x/net/proxy only speaks
	// SOCKS5.
	if config.Scheme == "socks4" {
		d := &socks4Dialer{proxyAddr: config.Address(), userID: config.Username}
		return &timeoutDialer{dialer: d, timeout: timeout}, nil
	}

	// socks5h differs from socks5 solely in where DNS happens, which the
	// SOCKS5 protocol handles when given hostnames.
	dialerScheme := "socks5"

	proxyURL := &url.URL{
		Scheme: dialerScheme,
		Host:   config.Address(),
	}
	if config.Username != "" {
		proxyURL.User = url.UserPassword(config.Username, config.Password)
	}

	dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("create SOCKS dialer: %w", err)
	}

	return &timeoutDialer{dialer: dialer, timeout: timeout}, nil
}
