//go:build linux || darwin

package daemon

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto/wire"
)

func writeTestConfig(t *testing.T, port int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.conf")
	body := "max_connections=8\nmin_buff_size=1024\nmax_buff_size=1024\nwork_threads=1\n" +
		"bind_addr=127.0.0.1\nport=" + itoa(port) + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestDaemonAcceptsAndAcksOneRequest(t *testing.T) {
	port := freePort(t)
	configPath := writeTestConfig(t, port)
	pidDir := t.TempDir()

	d, err := New("fdfs_test_role", configPath, pidDir, fdfsproto.StoragePort)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	var conn net.Conn
	for i := 0; i < 100; i++ {
		conn, err = net.Dial("tcp", "127.0.0.1:"+itoa(port))
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	hdr := fdfsproto.Header{Command: fdfsproto.CmdTrackerQueryStoreWithoutGroup, Status: fdfsproto.StatusOK}
	if err := wire.WriteMessage(context.Background(), conn, hdr, nil); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := wire.ReadMessage(context.Background(), conn)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msg.Header.Command != fdfsproto.CmdResponse || msg.Header.Status != fdfsproto.StatusOK {
		t.Fatalf("response header = %+v", msg.Header)
	}

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("signaling self: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
