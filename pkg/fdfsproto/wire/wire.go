// Package wire reads and writes full framed fdfsproto messages over a
// net.Conn with a caller-supplied context deadline — the bare Header struct
// in fdfsproto says nothing about how a real client or server actually gets
// bytes on and off a socket, and every caller in this repository needs
// exactly this.
package wire

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto"
)

var noDeadline = time.Time{}

// MaxBodyLen bounds how large a body ReadMessage will accept, guarding
// against a corrupt or hostile length field asking for an implausible
// allocation. It is generous relative to any single FastDFS RPC payload.
const MaxBodyLen = 1 << 30

// Message is a decoded header plus its body bytes.
type Message struct {
	Header fdfsproto.Header
	Body   []byte
}

// ReadMessage reads one full framed message from conn, honoring ctx's
// deadline by setting it as conn's read and write deadline before reading;
// the deadline stays set on conn after the call returns.
func ReadMessage(ctx context.Context, conn net.Conn) (Message, error) {
	if err := applyDeadline(ctx, conn); err != nil {
		return Message{}, err
	}

	var hdr [fdfsproto.HeaderLen]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return Message{}, classifyReadErr(err)
	}
	h, err := fdfsproto.ParseHeader(hdr[:])
	if err != nil {
		return Message{}, err
	}
	if h.Length > MaxBodyLen {
		return Message{}, errs.New(errs.Protocol, "wire: body length exceeds maximum")
	}

	body := make([]byte, h.Length)
	if h.Length > 0 {
		if _, err := io.ReadFull(conn, body); err != nil {
			return Message{}, classifyReadErr(err)
		}
	}

	return Message{Header: h, Body: body}, nil
}

// WriteMessage writes hdr followed by body as one framed message, honoring
// ctx's deadline. hdr.Length is set to len(body) before the header is sent.
func WriteMessage(ctx context.Context, conn net.Conn, hdr fdfsproto.Header, body []byte) error {
	if err := applyDeadline(ctx, conn); err != nil {
		return err
	}

	hdr.Length = uint64(len(body))

	buf := make([]byte, 0, fdfsproto.HeaderLen+len(body))
	buf = append(buf, hdr.Marshal()...)
	buf = append(buf, body...)

	if _, err := conn.Write(buf); err != nil {
		return classifyWriteErr(err)
	}
	return nil
}

func applyDeadline(ctx context.Context, conn net.Conn) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Timeout, "wire: context already done", err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return conn.SetDeadline(noDeadline)
	}
	return conn.SetDeadline(deadline)
}

func classifyReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errs.NewNetworkError("read", "", err)
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return errs.Wrap(errs.Timeout, "wire: read timeout", err)
	}
	return errs.NewNetworkError("read", "", err)
}

func classifyWriteErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return errs.Wrap(errs.Timeout, "wire: write timeout", err)
	}
	return errs.NewNetworkError("write", "", err)
}
