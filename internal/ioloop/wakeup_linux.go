//go:build linux

package ioloop

import "golang.org/x/sys/unix"

// createWakeFD creates an eventfd for wake-up notifications; read and write
// ends are the same descriptor.
func createWakeFD() (int, int, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	return fd, fd, err
}

func closeWakeFD(readFD, writeFD int) error {
	if readFD >= 0 {
		_ = unix.Close(readFD)
	}
	return nil
}
