//go:build linux || darwin

package daemon

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

// dupNonblockingFD extracts the raw, non-blocking file descriptor backing
// conn, duplicating it so the caller's own Close of conn (which happens
// immediately, to release the *net.TCPConn wrapper) does not tear down the
// socket the core's poller is about to take ownership of.
func dupNonblockingFD(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, errs.New(errs.InvalidArgument, "daemon: connection does not expose a raw fd")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, errs.Wrap(errs.Unavailable, "daemon: SyscallConn", err)
	}

	var dupFD int
	var dupErr error
	err = raw.Control(func(fd uintptr) {
		dupFD, dupErr = unix.Dup(int(fd))
	})
	if err != nil {
		return -1, errs.Wrap(errs.Unavailable, "daemon: raw.Control", err)
	}
	if dupErr != nil {
		return -1, errs.Wrap(errs.Unavailable, "daemon: dup", dupErr)
	}

	if err := unix.SetNonblock(dupFD, true); err != nil {
		unix.Close(dupFD)
		return -1, errs.Wrap(errs.Unavailable, "daemon: set non-blocking", err)
	}
	return dupFD, nil
}

func closeRawFD(fd int) { unix.Close(fd) }

func readFD(fd int, buf []byte) (int, error) { return unix.Read(fd, buf) }

func writeFD(fd int, buf []byte) (int, error) { return unix.Write(fd, buf) }
