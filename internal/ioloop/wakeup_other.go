//go:build !linux && !darwin

package ioloop

func createWakeFD() (int, int, error) {
	return -1, -1, ErrUnsupportedPlatform
}

func closeWakeFD(readFD, writeFD int) error {
	return nil
}
