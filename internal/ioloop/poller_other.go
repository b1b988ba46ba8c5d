//go:build !linux && !darwin

package ioloop

import "github.com/happyfish100/fastdfs-sub005/internal/taskpool"

// unsupportedPoller is the fallback for platforms with no wired-up
// demultiplexer. FastDFS servers are deployed on Linux/BSD in production;
// this mirrors the teacher's own epoll/kqueue-only split, with one fewer
// target than a Windows-capable library would need.
type unsupportedPoller struct{}

func newPoller() Poller {
	return &unsupportedPoller{}
}

func (unsupportedPoller) Init() error { return ErrUnsupportedPlatform }
func (unsupportedPoller) Close() error { return ErrUnsupportedPlatform }
func (unsupportedPoller) Attach(int, IOEvents, taskpool.TaskID) error {
	return ErrUnsupportedPlatform
}
func (unsupportedPoller) Detach(int) error          { return ErrUnsupportedPlatform }
func (unsupportedPoller) Modify(int, IOEvents) error { return ErrUnsupportedPlatform }
func (unsupportedPoller) Poll(int) ([]Ready, error) {
	return nil, ErrUnsupportedPlatform
}
