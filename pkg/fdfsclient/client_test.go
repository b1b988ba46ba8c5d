package fdfsclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto/wire"
)

// startFakeTracker accepts one connection, reads one request, and writes
// back a fixed query-store/query-fetch-one style response body.
func startFakeTracker(t *testing.T, group, ip string, port int) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if _, err := wire.ReadMessage(context.Background(), conn); err != nil {
			return
		}

		body := make([]byte, groupNameFieldLen+ipAddrFieldLen+portFieldLen)
		copy(body, group)
		copy(body[groupNameFieldLen:], ip)
		p := uint64(port)
		portField := body[groupNameFieldLen+ipAddrFieldLen:]
		for i := portFieldLen - 1; i >= 0; i-- {
			portField[i] = byte(p)
			p >>= 8
		}

		hdr := fdfsproto.Header{Length: uint64(len(body)), Command: fdfsproto.CmdResponse, Status: fdfsproto.StatusOK}
		_ = wire.WriteMessage(context.Background(), conn, hdr, body)
	}()

	return ln.Addr().String()
}

func TestQueryStoreDecodesStorageServer(t *testing.T) {
	addr := startFakeTracker(t, "group1", "192.168.1.10", 23000)

	c, err := New(Config{
		TrackerAddrs:   []string{addr},
		MaxConns:       2,
		ConnectTimeout: time.Second,
		NetworkTimeout: time.Second,
		IdleTimeout:    time.Minute,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ss, err := c.QueryStore(context.Background())
	if err != nil {
		t.Fatalf("QueryStore: %v", err)
	}
	if ss.Group != "group1" || ss.IP != "192.168.1.10" || ss.Port != 23000 {
		t.Fatalf("QueryStore = %+v", ss)
	}
}

func TestQueryFetchOneDecodesStorageServer(t *testing.T) {
	addr := startFakeTracker(t, "group2", "10.0.0.5", 23001)

	c, err := New(Config{
		TrackerAddrs:   []string{addr},
		MaxConns:       2,
		ConnectTimeout: time.Second,
		NetworkTimeout: time.Second,
		IdleTimeout:    time.Minute,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	fileID := fdfsproto.FileID{Group: "group2", Path: "AB/CD/x.jpg"}
	ss, err := c.QueryFetchOne(context.Background(), fileID)
	if err != nil {
		t.Fatalf("QueryFetchOne: %v", err)
	}
	if ss.Group != "group2" || ss.IP != "10.0.0.5" || ss.Port != 23001 {
		t.Fatalf("QueryFetchOne = %+v", ss)
	}
}

func TestNewRejectsEmptyTrackerAddrs(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty TrackerAddrs")
	}
}
