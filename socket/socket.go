// Package socket is the transport facade QuickFT's connection engine and
// server accept loop build on. The original implementation managed raw,
// nonblocking sockets with a hand-rolled select loop; Go's net.Conn and
// net.Listener already give the same properties (a deadline that unblocks a
// concurrent Read or Write, a Close that unblocks a concurrent Accept) so
// this package is a thin wrapper rather than a reimplementation: it exists
// to pin the protocol's IPv4-only addressing rule and to give the frame and
// ACK deadlines names instead of scattering SetDeadline calls everywhere.
package socket

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Conn wraps a net.Conn with the two deadlines the wire protocol names:
// Tframe bounds a single frame header-plus-body read or write, Tack bounds
// waiting for the ACK handshake after a frame.
type Conn struct {
	net.Conn
}

// SetFrameDeadline applies the per-frame I/O deadline to future Reads and
// Writes.
func (c *Conn) SetFrameDeadline(tframe time.Duration) error {
	return c.Conn.SetDeadline(time.Now().Add(tframe))
}

// SetAckDeadline applies the ACK-wait deadline to future Reads and Writes.
func (c *Conn) SetAckDeadline(tack time.Duration) error {
	return c.Conn.SetDeadline(time.Now().Add(tack))
}

// Listener accepts IPv4 TCP connections for the server.
type Listener struct {
	net.Listener
}

// Listen binds to the given port on all IPv4 interfaces. The protocol is
// IPv4-only; this is an explicit non-goal, not an oversight, so Listen
// refuses to bind a wildcard IPv6/IPv4 dual-stack address.
func Listen(port uint16) (*Listener, error) {
	l, err := net.Listen("tcp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("socket: listen on port %d: %w", port, err)
	}
	return &Listener{Listener: l}, nil
}

// Accept blocks until a connection arrives, ctx is canceled, or the
// Listener is closed. It is safe to call Close concurrently from another
// goroutine to unblock a pending Accept; this is the shutdown path the
// server's accept loop relies on.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		c, err := l.Listener.Accept()
		done <- result{c, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return &Conn{Conn: r.conn}, nil
	}
}

// Dial connects to a QuickFT server over IPv4 TCP.
func Dial(ctx context.Context, host string, port uint16) (*Conn, error) {
	d := net.Dialer{}
	c, err := d.DialContext(ctx, "tcp4", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("socket: dial %s:%d: %w", host, port, err)
	}
	return &Conn{Conn: c}, nil
}
