// Package ioloop implements the I/O event demultiplexer, the per-worker
// cooperative loop that drives it, and the listener→worker dispatch queue
// that feeds it — components 3, 4, and 6 of the network I/O core.
package ioloop

import (
	"errors"

	"github.com/happyfish100/fastdfs-sub005/internal/taskpool"
)

// IOEvents is a bitmask of readiness conditions a Poller can report.
type IOEvents uint32

const (
	EventRead IOEvents = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// Standard poller errors.
var (
	ErrFDOutOfRange         = errors.New("ioloop: fd out of range")
	ErrFDAlreadyRegistered  = errors.New("ioloop: fd already registered")
	ErrFDNotRegistered      = errors.New("ioloop: fd not registered")
	ErrPollerClosed         = errors.New("ioloop: poller closed")
	ErrUnsupportedPlatform  = errors.New("ioloop: no event demultiplexer implementation for this platform")
)

// Ready describes one readiness entry returned by a Poll call: the
// descriptor, the events observed on it, and the task the demultiplexer was
// told to associate with it at Attach time — "user_ptr" in spec terms,
// here a TaskID (an arena index) rather than a pointer.
type Ready struct {
	FD     int
	Events IOEvents
	Task   taskpool.TaskID
}

// Poller is a thin, platform-agnostic wrapper over the OS readiness
// primitive (epoll on Linux, kqueue on Darwin). Attach is not idempotent:
// attaching an fd that is already attached fails with
// ErrFDAlreadyRegistered and leaves the existing subscription unchanged.
// Poll blocks at most timeoutMs and swallows EINTR (returns 0, nil)
// rather than surfacing it as an error — the caller's loop simply retries
// on the next iteration.
type Poller interface {
	Init() error
	Close() error
	Attach(fd int, interest IOEvents, task taskpool.TaskID) error
	Detach(fd int) error
	Modify(fd int, interest IOEvents) error
	Poll(timeoutMs int) ([]Ready, error)
}
