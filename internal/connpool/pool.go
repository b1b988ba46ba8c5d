package connpool

import (
	"net"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

// Connection is a pooled outgoing connection handed back to a caller by
// Get. Use it like a net.Conn for the duration of one request, then return
// it with Pool.Put (or simply close it; a closed connection that is put
// back is discarded by the next Get's liveness check).
type Connection struct {
	inner *conn
}

// NetConn exposes the underlying net.Conn for protocol I/O.
func (c *Connection) NetConn() net.Conn { return c.inner.Conn }

// Addr returns the server address this connection belongs to.
func (c *Connection) Addr() string { return c.inner.addr }

type stack struct {
	idle []*conn
}

func (s *stack) push(c *conn) { s.idle = append(s.idle, c) }

func (s *stack) pop() (*conn, bool) {
	if len(s.idle) == 0 {
		return nil, false
	}
	n := len(s.idle) - 1
	c := s.idle[n]
	s.idle[n] = nil
	s.idle = s.idle[:n]
	return c, true
}

// sweep removes stale entries from anywhere in the stack, closing them,
// leaving only connections that were fresh at sweep time. Liveness is not
// probed here.
func (s *stack) sweep(now time.Time, idleTimeout time.Duration) (removed int) {
	kept := s.idle[:0]
	for _, c := range s.idle {
		if c.stale(now, idleTimeout) {
			_ = c.close()
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.idle = kept
	return removed
}

// Pool is the tracker-facing client connection pool: one LIFO idle stack
// per registered address, guarded by a single mutex. Sockets themselves are
// used single-threaded by whichever goroutine holds them between Get and
// Put.
type Pool struct {
	mu              sync.Mutex
	stacks          map[string]*stack
	maxConnsPerAddr int
	connectTimeout  time.Duration
	idleTimeout     time.Duration
	closed          bool

	// limiter gates dial attempts per address so a dead server isn't
	// hammered by every caller's retry loop; a Get whose dial is refused by
	// it fails with errs.Unavailable.
	limiter *catrate.Limiter
}

// New registers an empty LIFO stack for every address in addrs.
func New(addrs []string, maxConnsPerAddr int, connectTimeout, idleTimeout time.Duration) *Pool {
	p := &Pool{
		stacks:          make(map[string]*stack, len(addrs)),
		maxConnsPerAddr: maxConnsPerAddr,
		connectTimeout:  connectTimeout,
		idleTimeout:     idleTimeout,
		limiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 5,
			time.Minute: 60,
		}),
	}
	for _, a := range addrs {
		p.stacks[a] = &stack{}
	}
	return p
}

// AddAddr idempotently registers addr at runtime. No-op if already present;
// returns errs.PoolClosed after Close.
func (p *Pool) AddAddr(addr string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.New(errs.PoolClosed, "connpool: closed")
	}
	if _, ok := p.stacks[addr]; !ok {
		p.stacks[addr] = &stack{}
	}
	return nil
}

// Get pops the top of addr's idle stack, skipping stale or dead entries
// (closing and discarding them) until a usable connection is found or the
// stack is exhausted, in which case a new connection is dialed. Fails with
// errs.PoolClosed, errs.Timeout, a wrapped errs.NetworkError, or
// errs.Unavailable when dial attempts to addr are being rate limited.
func (p *Pool) Get(addr string) (*Connection, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errs.New(errs.PoolClosed, "connpool: closed")
	}
	s, ok := p.stacks[addr]
	if !ok {
		s = &stack{}
		p.stacks[addr] = s
	}

	now := time.Now()
	for {
		c, ok := s.pop()
		if !ok {
			break
		}
		if c.stale(now, p.idleTimeout) || !c.isAlive() {
			_ = c.close()
			continue
		}
		p.mu.Unlock()
		return &Connection{inner: c}, nil
	}
	p.mu.Unlock()

	if next, allowed := p.limiter.Allow(addr); !allowed {
		return nil, errs.Wrap(errs.Unavailable, "connpool: dial rate limited", &rateLimitedError{retryAfter: next})
	}

	nc, err := p.createConnection(addr)
	if err != nil {
		return nil, err
	}
	return &Connection{inner: &conn{Conn: nc, addr: addr, lastUsed: time.Now()}}, nil
}

func (p *Pool) createConnection(addr string) (net.Conn, error) {
	nc, err := net.DialTimeout("tcp", addr, p.connectTimeout)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, errs.Wrap(errs.Timeout, "connpool: connect timeout", err)
		}
		return nil, errs.NewNetworkError("dial", addr, err)
	}
	if tc, ok := nc.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(30 * time.Second)
	}
	return nc, nil
}

// Put returns c to its address's idle stack and opportunistically sweeps
// stale entries from the same stack. A nil c is a no-op. If the pool is
// closed, the address is unknown, the stack is at capacity, or c is
// already stale, c is closed instead of pooled.
func (p *Pool) Put(c *Connection) {
	if c == nil || c.inner == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()

	if p.closed {
		_ = c.inner.close()
		return
	}
	s, ok := p.stacks[c.inner.addr]
	if !ok {
		_ = c.inner.close()
		return
	}
	if len(s.idle) >= p.maxConnsPerAddr || c.inner.stale(now, p.idleTimeout) {
		_ = c.inner.close()
		return
	}

	c.inner.lastUsed = now
	s.push(c.inner)
	s.sweep(now, p.idleTimeout)
}

// Close flips the closed flag and closes every pooled connection.
// Subsequent Get calls return errs.PoolClosed; idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, s := range p.stacks {
		for _, c := range s.idle {
			_ = c.close()
		}
		s.idle = nil
	}
	return nil
}

type rateLimitedError struct{ retryAfter time.Time }

func (e *rateLimitedError) Error() string {
	return "connpool: dial attempts to this address are rate limited, retry after " + e.retryAfter.Format(time.RFC3339)
}
