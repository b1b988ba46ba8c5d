// Package fdfsclient is the read-only tracker client exercising the core:
// it dials through internal/connpool, frames requests and responses
// through pkg/fdfsproto and pkg/fdfsproto/wire, and exposes query-store and
// query-fetch-one, the tracker queries an uploader and a downloader need.
package fdfsclient

import (
	"bytes"
	"context"
	"time"

	"github.com/happyfish100/fastdfs-sub005/internal/connpool"
	"github.com/happyfish100/fastdfs-sub005/internal/errs"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto/wire"
)

const (
	groupNameFieldLen = 16
	ipAddrFieldLen    = 15
	portFieldLen      = 8
)

// Config configures a Client.
type Config struct {
	TrackerAddrs   []string
	MaxConns       int
	ConnectTimeout time.Duration
	NetworkTimeout time.Duration
	IdleTimeout    time.Duration
}

// Client is a minimal FastDFS tracker client, round-robining requests
// across the configured tracker addresses through a shared connection
// pool.
type Client struct {
	pool  *connpool.Pool
	addrs []string
	next  int
	netTO time.Duration
}

// New builds a Client, dialing lazily; no network I/O happens until the
// first query.
func New(cfg Config) (*Client, error) {
	if len(cfg.TrackerAddrs) == 0 {
		return nil, errs.New(errs.InvalidArgument, "fdfsclient: at least one tracker address is required")
	}
	pool := connpool.New(cfg.TrackerAddrs, cfg.MaxConns, cfg.ConnectTimeout, cfg.IdleTimeout)
	for _, addr := range cfg.TrackerAddrs {
		if err := pool.AddAddr(addr); err != nil {
			return nil, err
		}
	}
	return &Client{
		pool:  pool,
		addrs: cfg.TrackerAddrs,
		netTO: cfg.NetworkTimeout,
	}, nil
}

// Close releases pooled connections.
func (c *Client) Close() error {
	return c.pool.Close()
}

func (c *Client) pickAddr() string {
	addr := c.addrs[c.next%len(c.addrs)]
	c.next++
	return addr
}

// StorageServer identifies a storage node a tracker handed back.
type StorageServer struct {
	Group string
	IP    string
	Port  int
}

// QueryStore asks any tracker which storage server a new upload should be
// sent to.
func (c *Client) QueryStore(ctx context.Context) (StorageServer, error) {
	resp, err := c.roundTrip(ctx, fdfsproto.CmdTrackerQueryStoreWithoutGroup, nil)
	if err != nil {
		return StorageServer{}, err
	}
	return decodeStorageServer(resp)
}

// QueryFetchOne asks any tracker which storage server holds fileID for
// download.
func (c *Client) QueryFetchOne(ctx context.Context, fileID fdfsproto.FileID) (StorageServer, error) {
	body := encodeGroupAndFilename(fileID)
	resp, err := c.roundTrip(ctx, fdfsproto.CmdTrackerQueryFetchOne, body)
	if err != nil {
		return StorageServer{}, err
	}
	return decodeStorageServer(resp)
}

func (c *Client) roundTrip(ctx context.Context, cmd byte, body []byte) ([]byte, error) {
	addr := c.pickAddr()

	conn, err := c.pool.Get(addr)
	if err != nil {
		return nil, err
	}

	if c.netTO > 0 {
		deadline := time.Now().Add(c.netTO)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	hdr := fdfsproto.Header{Length: uint64(len(body)), Command: cmd, Status: fdfsproto.StatusOK}
	if err := wire.WriteMessage(ctx, conn.NetConn(), hdr, body); err != nil {
		conn.NetConn().Close()
		return nil, err
	}

	msg, err := wire.ReadMessage(ctx, conn.NetConn())
	if err != nil {
		conn.NetConn().Close()
		return nil, err
	}
	if msg.Header.Status != fdfsproto.StatusOK {
		c.pool.Put(conn)
		return nil, errs.New(errs.Protocol, "fdfsclient: tracker returned non-zero status")
	}

	c.pool.Put(conn)
	return msg.Body, nil
}

func encodeGroupAndFilename(id fdfsproto.FileID) []byte {
	buf := make([]byte, groupNameFieldLen+len(id.Path))
	copy(buf[:groupNameFieldLen], id.Group)
	copy(buf[groupNameFieldLen:], id.Path)
	return buf
}

func decodeStorageServer(body []byte) (StorageServer, error) {
	const minLen = groupNameFieldLen + ipAddrFieldLen + portFieldLen
	if len(body) < minLen {
		return StorageServer{}, errs.New(errs.Protocol, "fdfsclient: tracker response too short")
	}
	group := string(bytes.TrimRight(body[:groupNameFieldLen], "\x00"))
	ip := string(bytes.TrimRight(body[groupNameFieldLen:groupNameFieldLen+ipAddrFieldLen], "\x00"))

	portField := body[groupNameFieldLen+ipAddrFieldLen : minLen]
	var port uint64
	for _, b := range portField {
		port = port<<8 | uint64(b)
	}

	return StorageServer{Group: group, IP: ip, Port: int(port)}, nil
}
