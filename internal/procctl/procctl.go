// Package procctl implements the start/stop/restart lifecycle shared by
// the daemon commands: a PID file named after the role, signal-driven
// graceful shutdown, and the "is a matching process already running"
// check that makes stop/restart idempotent against a stale PID file.
package procctl

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

// Action is the positional CLI argument every daemon command accepts.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// ParseAction maps a CLI argv[1] onto an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionStart, ActionStop, ActionRestart:
		return Action(s), nil
	default:
		return "", errs.New(errs.InvalidArgument, "procctl: unrecognized action "+strconv.Quote(s))
	}
}

// PIDFile manages the lifecycle PID file for one role ("fdfs_trackerd",
// "fdfs_storaged"), stored as <dir>/<role>.pid.
type PIDFile struct {
	path string
}

// NewPIDFile returns the PID file for role under dir.
func NewPIDFile(dir, role string) *PIDFile {
	return &PIDFile{path: dir + string(os.PathSeparator) + role + ".pid"}
}

// Path returns the backing file path.
func (p *PIDFile) Path() string { return p.path }

// Write records the current process's PID.
func (p *PIDFile) Write() error {
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return errs.Wrap(errs.Unavailable, "procctl: writing pid file", err)
	}
	return nil
}

// Remove deletes the PID file; a missing file is not an error.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.Unavailable, "procctl: removing pid file", err)
	}
	return nil
}

// Read returns the PID recorded in the file, and whether one exists.
func (p *PIDFile) Read() (int, bool, error) {
	b, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, errs.Wrap(errs.Unavailable, "procctl: reading pid file", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, false, errs.Wrap(errs.InvalidArgument, "procctl: malformed pid file", err)
	}
	return pid, true, nil
}

// Running reports whether the PID recorded in the file still names a live
// process, probed with signal 0 (no-op delivery, error-only).
func (p *PIDFile) Running() (int, bool, error) {
	pid, ok, err := p.Read()
	if err != nil || !ok {
		return 0, false, err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, false, nil
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return pid, false, nil
	}
	return pid, true, nil
}

// Stop sends SIGTERM to the process recorded in the PID file, if any.
func (p *PIDFile) Stop() error {
	pid, running, err := p.Running()
	if err != nil {
		return err
	}
	if !running {
		return p.Remove()
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "procctl: locating running process", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return errs.Wrap(errs.Unavailable, "procctl: signaling process", err)
	}
	return nil
}

// AlreadyRunningError reports that a daemon for this role is still alive.
type AlreadyRunningError struct {
	PID int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("procctl: process %d is already running", e.PID)
}

// NotifyShutdown arms a channel delivered SIGINT/SIGTERM, returning a
// function the caller invokes once its cleanup is complete to stop
// listening for further signals.
func NotifyShutdown() (<-chan os.Signal, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh, func() { signal.Stop(sigCh) }
}
