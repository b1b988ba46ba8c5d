//go:build !linux && !darwin

package ioloop

func closeFD(fd int) error { return ErrUnsupportedPlatform }

func readFD(fd int, buf []byte) (int, error) { return 0, ErrUnsupportedPlatform }

func writeFD(fd int, buf []byte) (int, error) { return 0, ErrUnsupportedPlatform }
