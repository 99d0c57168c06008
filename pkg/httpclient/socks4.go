// SOCKS4/4a CONNECT dialer. golang.org/x/net/proxy only implements SOCKS5,
// so the (much simpler) SOCKS4 handshake is done by hand: a 9-byte request,
// an 8-byte reply, no method negotiation.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const (
	socks4Version     = 0x04
	socks4CmdConnect  = 0x01
	socks4RepGranted  = 0x5A
	socks4RepRejected = 0x5B
)

// socks4Dialer dials destinations through a SOCKS4 proxy. Hostname
// destinations use the SOCKS4a extension (sentinel IP 0.0.0.x plus a
// trailing hostname) so DNS resolution happens on the proxy side.
type socks4Dialer struct {
	proxyAddr string
	userID    string
}

// DialContext connects to the proxy and performs the SOCKS4 CONNECT
// handshake for address. The context deadline, if any, applies to the
// whole exchange.
func (d *socks4Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, fmt.Errorf("socks4: unsupported network %q", network)
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("socks4: invalid address: %w", err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return nil, fmt.Errorf("socks4: invalid port %q", port)
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", d.proxyAddr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := d.handshake(conn, host, portNum); err != nil {
		conn.Close()
		return nil, err
	}

	// Clear the handshake deadline; the HTTP layer owns timeouts from here.
	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

// Dial implements the plain proxy.Dialer interface.
func (d *socks4Dialer) Dial(network, address string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, address)
}

func (d *socks4Dialer) handshake(conn net.Conn, host string, port int) error {
	// Request: VER, CMD, DSTPORT(2), DSTIP(4), USERID, NUL [, HOSTNAME, NUL]
	req := make([]byte, 0, 9+len(d.userID)+len(host)+1)
	req = append(req, socks4Version, socks4CmdConnect, byte(port>>8), byte(port&0xff))

	hostname := ""
	if ip := net.ParseIP(host); ip != nil {
		v4 := ip.To4()
		if v4 == nil {
			return errors.New("socks4: IPv6 destinations are not supported")
		}
		req = append(req, v4...)
	} else {
		// SOCKS4a: 0.0.0.x (x != 0) tells the proxy to resolve the
		// hostname appended after the user ID.
		req = append(req, 0x00, 0x00, 0x00, 0x01)
		hostname = host
	}

	req = append(req, d.userID...)
	req = append(req, 0x00)
	if hostname != "" {
		req = append(req, hostname...)
		req = append(req, 0x00)
	}

	if _, err := conn.Write(req); err != nil {
		return fmt.Errorf("socks4: write request: %w", err)
	}

	// Reply: VN(=0), REP, DSTPORT(2), DSTIP(4)
	var rep [8]byte
	if _, err := io.ReadFull(conn, rep[:]); err != nil {
		return fmt.Errorf("socks4: read reply: %w", err)
	}
	if rep[0] != 0x00 {
		return fmt.Errorf("socks4: unexpected reply version 0x%02x", rep[0])
	}
	if rep[1] != socks4RepGranted {
		return fmt.Errorf("socks4: request rejected (code 0x%02x)", rep[1])
	}
	return nil
}
