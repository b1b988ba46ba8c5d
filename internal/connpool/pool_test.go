package connpool

import (
	"net"
	"testing"
	"time"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

func startEchoListener(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan struct{})
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				<-done
			}()
		}
	}()
	return ln.Addr().String(), func() {
		close(done)
		_ = ln.Close()
	}
}

// spec §8 end-to-end scenario 4: connection reuse, observed without a real
// 11-second sleep by manipulating the pooled entry's lastUsed directly
// (in-package whitebox test).
func TestConnectionReuseAndStaleEviction(t *testing.T) {
	addr, stop := startEchoListener(t)
	defer stop()

	p := New([]string{addr}, 4, time.Second, 10*time.Second)
	defer p.Close()

	c1, err := p.Get(addr)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s1 := c1.inner
	p.Put(c1)

	c2, err := p.Get(addr)
	if err != nil {
		t.Fatalf("Get (reuse): %v", err)
	}
	if c2.inner != s1 {
		t.Fatal("expected Get to return the same pooled connection (LIFO reuse)")
	}
	p.Put(c2)

	// Force staleness without sleeping.
	p.mu.Lock()
	p.stacks[addr].idle[0].lastUsed = time.Now().Add(-20 * time.Second)
	p.mu.Unlock()

	c3, err := p.Get(addr)
	if err != nil {
		t.Fatalf("Get (after stale): %v", err)
	}
	if c3.inner == s1 {
		t.Fatal("expected a fresh connection after the pooled one went stale")
	}
	p.Put(c3)
}

func TestGetAfterCloseReturnsPoolClosed(t *testing.T) {
	addr, stop := startEchoListener(t)
	defer stop()

	p := New([]string{addr}, 4, time.Second, 10*time.Second)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Get(addr); !errs.Is(err, errs.PoolClosed) {
		t.Fatalf("expected PoolClosed, got %v", err)
	}
}

func TestPutAfterCloseClosesConnection(t *testing.T) {
	addr, stop := startEchoListener(t)
	defer stop()

	p := New([]string{addr}, 4, time.Second, 10*time.Second)
	c, err := p.Get(addr)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	p.Put(c)

	if !c.inner.closed {
		t.Fatal("expected Put after Close to close the connection")
	}
}

func TestAddAddrIdempotentAndClosedNoOp(t *testing.T) {
	p := New(nil, 4, time.Second, 10*time.Second)
	if err := p.AddAddr("127.0.0.1:1"); err != nil {
		t.Fatalf("AddAddr: %v", err)
	}
	if err := p.AddAddr("127.0.0.1:1"); err != nil {
		t.Fatalf("AddAddr (repeat): %v", err)
	}
	_ = p.Close()
	if err := p.AddAddr("127.0.0.1:2"); !errs.Is(err, errs.PoolClosed) {
		t.Fatalf("expected PoolClosed after Close, got %v", err)
	}
}

func TestPutNilIsNoOp(t *testing.T) {
	p := New(nil, 4, time.Second, 10*time.Second)
	p.Put(nil) // must not panic
}
