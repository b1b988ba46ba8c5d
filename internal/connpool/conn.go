// Package connpool implements the tracker-facing client connection pool: a
// server-address-keyed map of LIFO stacks of idle outgoing connections,
// with idle-timeout eviction, per-address capacity, dynamic registration,
// and graceful shutdown.
package connpool

import (
	"net"
	"time"
)

// conn wraps a pooled outgoing TCP connection with the bookkeeping needed
// to decide, at acquisition time, whether it is still usable.
type conn struct {
	net.Conn
	addr     string
	lastUsed time.Time
	closed   bool
}

// isAlive reports whether the underlying socket looks usable. Liveness is
// judged by a one-byte read with a 1ms deadline, not by sending any
// protocol bytes — a cheap, protocol-agnostic probe: a read timeout counts
// as alive, while EOF, any other error, or unexpected data counts as dead.
func (c *conn) isAlive() bool {
	if c == nil || c.closed || c.Conn == nil {
		return false
	}
	if err := c.Conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false
	}
	defer c.Conn.SetReadDeadline(time.Time{})

	var buf [1]byte
	_, err := c.Conn.Read(buf[:])
	if err == nil {
		// Unexpected: the peer sent us a byte while idle. Treat the
		// connection as unusable rather than silently dropping data.
		return false
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	return false
}

func (c *conn) stale(now time.Time, idleTimeout time.Duration) bool {
	return now.Sub(c.lastUsed) > idleTimeout
}

func (c *conn) close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.Conn.Close()
}
