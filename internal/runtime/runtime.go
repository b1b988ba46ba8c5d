// Package runtime bundles the pieces every daemon command constructs once
// at startup and hands down to its worker loops: the task pool, the
// structured logger, and the wall-clock seconds Clock the worker loops'
// timing wheels run on.
package runtime

import (
	"time"

	"github.com/happyfish100/fastdfs-sub005/internal/ioloop"
	"github.com/happyfish100/fastdfs-sub005/internal/logging"
	"github.com/happyfish100/fastdfs-sub005/internal/taskpool"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsconfig"
)

// Runtime is the set of shared resources a server command wires into each
// of its worker Loops.
type Runtime struct {
	Config fdfsconfig.CoreConfig
	Pool   *taskpool.Pool
	Logger *logging.Logger
	Clock  ioloop.Clock
}

// New constructs the shared resources for cfg. argSize is the per-task
// scratch payload size the caller's Capability implementations need
// attached to each task (commonly 0; see taskpool.Init).
func New(cfg fdfsconfig.CoreConfig, argSize int) (*Runtime, error) {
	pool, err := taskpool.Init(cfg.MaxConnections, cfg.MinBuffSize, cfg.MaxBuffSize, argSize)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		Config: cfg,
		Pool:   pool,
		Logger: logging.NewStderr(),
		Clock:  WallClock,
	}, nil
}

// WallClock is the production ioloop.Clock: whole seconds since the Unix
// epoch, matching the resolution the timing wheel and idle-connection
// sweep operate at.
func WallClock() int64 {
	return time.Now().Unix()
}
