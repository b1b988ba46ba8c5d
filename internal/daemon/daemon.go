// Package daemon wires the pieces every server command shares: load
// config, build a Runtime, start one I/O worker Loop per configured work
// thread, accept connections and round-robin them into the workers, and
// shut down cleanly on SIGINT/SIGTERM. The command handlers themselves
// (upload, download, metadata) are out of scope; the Capability plugged
// into each accepted task here does the minimum needed to prove a full
// request/response round trip through the core.
package daemon

import (
	"fmt"
	"net"
	"os"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
	"github.com/happyfish100/fastdfs-sub005/internal/ioloop"
	"github.com/happyfish100/fastdfs-sub005/internal/procctl"
	"github.com/happyfish100/fastdfs-sub005/internal/runtime"
	"github.com/happyfish100/fastdfs-sub005/internal/taskpool"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsconfig"
)

const wheelSlotCount = 512

// Daemon bundles the shared server lifecycle for one role.
type Daemon struct {
	role    string
	rt      *runtime.Runtime
	cfg     fdfsconfig.CoreConfig
	loops   []*ioloop.Loop
	pidFile *procctl.PIDFile
	ln      net.Listener
	next    int
}

// Config returns the resolved configuration the daemon was built with.
func (d *Daemon) Config() fdfsconfig.CoreConfig { return d.cfg }

// New loads configPath, builds the Runtime, and creates one worker Loop per
// work thread; Run starts those loops and the listener. defaultPort fills in
// cfg.Port when the config file leaves it unset, since trackers and
// storage servers listen on different well-known ports by default.
func New(role, configPath, pidDir string, defaultPort int) (*Daemon, error) {
	ctx, err := fdfsconfig.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := fdfsconfig.ResolveCoreConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	rt, err := runtime.New(cfg, 0)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		role:    role,
		rt:      rt,
		cfg:     cfg,
		pidFile: procctl.NewPIDFile(pidDir, role),
	}

	workThreads := cfg.WorkThreads
	if workThreads < 1 {
		workThreads = 1
	}
	for i := 0; i < workThreads; i++ {
		loop, err := ioloop.New(i, rt.Pool, wheelSlotCount, rt.Clock, ioloop.WithLogger(loopLogger{rt}))
		if err != nil {
			d.closeLoops()
			return nil, err
		}
		d.loops = append(d.loops, loop)
	}

	return d, nil
}

// Run starts every worker loop, listens on bind_addr:port from the
// resolved config, accepts connections and hands them to workers
// round-robin, and blocks until a shutdown signal arrives.
func (d *Daemon) Run() error {
	addr := fmt.Sprintf("%s:%d", d.cfg.BindAddr, d.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errs.NewNetworkError("listen", addr, err)
	}
	d.ln = ln

	if err := d.pidFile.Write(); err != nil {
		ln.Close()
		return err
	}

	for _, loop := range d.loops {
		loop := loop
		go func() {
			if err := loop.Run(); err != nil {
				d.rt.Logger.Log(ioloop.LogEntry{Level: ioloop.LevelCrit, Category: "loop", Message: "worker loop exited", Err: err})
			}
		}()
	}

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		d.acceptLoop()
	}()

	sigCh, stopNotify := procctl.NotifyShutdown()
	defer stopNotify()
	<-sigCh

	ln.Close()
	<-acceptDone

	for _, loop := range d.loops {
		_ = loop.Stop()
	}
	d.closeLoops()

	return d.pidFile.Remove()
}

func (d *Daemon) closeLoops() {
	for _, loop := range d.loops {
		_ = loop.Close()
	}
}

func (d *Daemon) acceptLoop() {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		if err := d.handoff(conn); err != nil {
			d.rt.Logger.Log(ioloop.LogEntry{Level: ioloop.LevelWarn, Category: "accept", Message: "dropping connection", Err: err})
			conn.Close()
		}
	}
}

func (d *Daemon) handoff(conn net.Conn) error {
	fd, err := dupNonblockingFD(conn)
	conn.Close() // the dup'd fd keeps the socket alive
	if err != nil {
		return err
	}

	id, err := d.rt.Pool.Acquire()
	if err != nil {
		closeRawFD(fd)
		return err
	}
	t := d.rt.Pool.Get(id)
	t.PeerAddr = conn.RemoteAddr().String()
	t.FD = fd
	t.Capability = &heartbeatCapability{pool: d.rt.Pool, logger: d.rt.Logger}

	loop := d.loops[d.next%len(d.loops)]
	d.next++

	if err := loop.Submit(id); err != nil {
		d.rt.Pool.Release(id, d.rt.Clock())
		closeRawFD(fd)
		return err
	}
	return nil
}

type loopLogger struct{ rt *runtime.Runtime }

func (l loopLogger) Log(entry ioloop.LogEntry) { l.rt.Logger.Log(entry) }

// PIDPath exposes the PID file location, e.g. for a "status" subcommand.
func (d *Daemon) PIDPath() string { return d.pidFile.Path() }

// Stop gracefully signals the running daemon identified by pidDir/role, for
// the "stop" CLI action.
func Stop(role, pidDir string) error {
	return procctl.NewPIDFile(pidDir, role).Stop()
}

// DefaultPIDDir is where PID files live absent an explicit override.
func DefaultPIDDir() string {
	if dir := os.Getenv("FASTDFS_PID_DIR"); dir != "" {
		return dir
	}
	return "/var/run"
}

var _ taskpool.Capability = (*heartbeatCapability)(nil)
