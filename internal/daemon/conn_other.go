//go:build !linux && !darwin

package daemon

import (
	"net"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

func dupNonblockingFD(net.Conn) (int, error) {
	return -1, errs.New(errs.Unavailable, "daemon: unsupported platform")
}

func closeRawFD(int) {}

func readFD(int, []byte) (int, error) {
	return 0, errs.New(errs.Unavailable, "daemon: unsupported platform")
}

func writeFD(int, []byte) (int, error) {
	return 0, errs.New(errs.Unavailable, "daemon: unsupported platform")
}
