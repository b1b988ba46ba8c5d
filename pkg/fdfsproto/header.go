// Package fdfsproto implements the FastDFS binary wire protocol: the
// 10-byte message header, command code table, file id encoding, metadata
// encoding, and anti-leech tokens. The byte layout here is fixed and must
// stay bit-compatible with the deployed protocol — this package adds no new
// wire format.
package fdfsproto

import (
	"encoding/binary"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

// HeaderLen is the fixed size, in bytes, of every message header.
const HeaderLen = 10

// Default server ports.
const (
	TrackerPort = 22122
	StoragePort = 23000
)

// Header is the 10-byte frame prefix on every message: an 8-byte
// big-endian body length, a 1-byte command code, and a 1-byte status (0 on
// success, errno-shaped on failure).
type Header struct {
	Length  uint64
	Command byte
	Status  byte
}

// Marshal writes Header into a fresh 10-byte slice.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint64(buf[0:8], h.Length)
	buf[8] = h.Command
	buf[9] = h.Status
	return buf
}

// Put writes Header into buf, which must be at least HeaderLen bytes.
func (h Header) Put(buf []byte) error {
	if len(buf) < HeaderLen {
		return errs.New(errs.InvalidArgument, "fdfsproto: header buffer too small")
	}
	binary.BigEndian.PutUint64(buf[0:8], h.Length)
	buf[8] = h.Command
	buf[9] = h.Status
	return nil
}

// ParseHeader decodes a 10-byte frame prefix. It never fails on the length
// field's value range (every uint64 is a legal length per the round-trip
// law); it fails only if buf is shorter than HeaderLen.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, errs.New(errs.InvalidArgument, "fdfsproto: header buffer too small")
	}
	return Header{
		Length:  binary.BigEndian.Uint64(buf[0:8]),
		Command: buf[8],
		Status:  buf[9],
	}, nil
}
