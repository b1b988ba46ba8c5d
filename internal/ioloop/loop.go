package ioloop

import (
	"time"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
	"github.com/happyfish100/fastdfs-sub005/internal/taskpool"
	"github.com/happyfish100/fastdfs-sub005/internal/wheel"
)

// Clock returns the current time as whole Unix seconds; tests substitute a
// deterministic clock, production uses time.Now().Unix.
type Clock func() int64

// Loop is one worker's single-threaded cooperative event loop: its own
// Poller, its own timing wheel, its own wake-up pipe, and its own deletion
// list. Per the core's ownership rule, a Loop's wheel and deletion list are
// touched only by the goroutine running Run.
type Loop struct {
	id      int
	pool    *taskpool.Pool
	poller  Poller
	wake    *wakeup
	wheel   *wheel.Wheel
	inbound *inboundQueue
	state   *runState
	opts    *loopOptions
	metrics metricsCounters
	clock   Clock

	deletion []taskpool.TaskID
	lastSec  int64
}

// New constructs a Loop bound to pool, owning a fresh Poller/wheel/wake
// pipe. slotCount sizes the timing wheel; clock defaults to wall-clock
// seconds if nil.
func New(id int, pool *taskpool.Pool, slotCount int, clock Clock, opts ...Option) (*Loop, error) {
	if clock == nil {
		clock = func() int64 { return time.Now().Unix() }
	}
	now := clock()

	w, err := wheel.Init(slotCount, now)
	if err != nil {
		return nil, err
	}

	p := newPoller()
	if err := p.Init(); err != nil {
		return nil, errs.Wrap(errs.Fatal, "ioloop: poller init failed", err)
	}

	wk, err := newWakeup()
	if err != nil {
		_ = p.Close()
		return nil, errs.Wrap(errs.Fatal, "ioloop: wakeup init failed", err)
	}

	cfg := resolveOptions(opts)

	l := &Loop{
		id:      id,
		pool:    pool,
		poller:  p,
		wake:    wk,
		wheel:   w,
		inbound: &inboundQueue{},
		state:   newRunState(),
		opts:    cfg,
		clock:   clock,
		lastSec: now,
	}
	l.metrics.enabled = cfg.metricsEnabled

	if err := p.Attach(wk.readFD, EventRead, 0); err != nil {
		_ = wk.Close()
		_ = p.Close()
		return nil, errs.Wrap(errs.Fatal, "ioloop: attaching wake fd failed", err)
	}

	return l, nil
}

// ID returns the worker's index, used as the round-robin key by dispatch
// callers and as Task.WorkerIndex.
func (l *Loop) ID() int { return l.id }

// Submit hands a task off to this worker: appends id to the inbound queue
// and signals the wake pipe. This is what the listener's accept-and-handoff
// path calls; it is also the programmatic entry point for anything else
// that wants a task serviced by this specific worker.
func (l *Loop) Submit(id taskpool.TaskID) error {
	if !l.inbound.Push(id) {
		return errs.New(errs.PoolClosed, "ioloop: worker shutting down")
	}
	return l.wake.Signal()
}

// Metrics returns a snapshot of this worker's per-iteration counters.
func (l *Loop) Metrics() Metrics { return l.metrics.snapshot() }

// State returns the loop's current run state.
func (l *Loop) State() WorkerState { return l.state.Load() }

// Stop requests a graceful shutdown: the run-flag flips to terminating and
// the wake pipe is signalled so a blocked Poll returns promptly. The loop
// exits after finishing its current iteration's cleanup.
func (l *Loop) Stop() error {
	if !l.state.TransitionAny([]WorkerState{StateAwake, StateRunning, StateSleeping}, StateTerminating) {
		return nil
	}
	return l.wake.Signal()
}

// Close releases the loop's OS resources. Call only after Run has returned.
func (l *Loop) Close() error {
	werr := l.wake.Close()
	perr := l.poller.Close()
	if perr != nil {
		return perr
	}
	return werr
}

// Run drives the loop until Stop is called or a fatal error occurs. Each
// iteration: clear the deletion list, poll, dispatch I/O callbacks, drain
// the deletion list, sweep the timing wheel if the second advanced, dispatch
// timeout callbacks — in that exact order, so a timeout callback never
// observes an fd an I/O callback marked dead moments earlier in the same
// iteration.
func (l *Loop) Run() error {
	if !l.state.TryTransition(StateAwake, StateRunning) {
		return errs.New(errs.Fatal, "ioloop: loop already running or terminated")
	}

	for l.state.ShouldRun() {
		l.deletion = l.deletion[:0]

		l.state.Store(StateSleeping)
		timeoutMs := int(l.opts.pollTimeout / time.Millisecond)
		ready, err := l.poller.Poll(timeoutMs)
		l.state.TryTransition(StateSleeping, StateRunning)
		if err != nil {
			return errs.Wrap(errs.Fatal, "ioloop: poll failed", err)
		}

		l.metrics.addIteration()
		if len(ready) > 0 {
			l.metrics.addEvents(uint64(len(ready)))
			for _, r := range ready {
				if r.FD == l.wake.readFD {
					l.wake.Drain()
					l.processInbound()
					continue
				}
				l.dispatchIO(r)
			}
		}

		l.drainDeletions()

		now := l.clock()
		if now > l.lastSec {
			l.lastSec = now
			expired := l.wheel.Sweep(now)
			l.metrics.addTimeouts(uint64(len(expired)))
			for _, e := range expired {
				id, ok := e.Owner.(taskpool.TaskID)
				if !ok {
					continue
				}
				if t := l.pool.Get(id); t != nil && t.Capability != nil {
					t.Capability.OnTimeout(id)
				}
			}
		}
	}

	l.state.Store(StateTerminated)
	return nil
}

func (l *Loop) dispatchIO(r Ready) {
	t := l.pool.Get(r.Task)
	if t == nil || t.Capability == nil {
		return
	}
	if r.Events&(EventError|EventHangup) != 0 {
		l.ScheduleForDeletion(r.Task)
		return
	}
	if r.Events&EventRead != 0 {
		t.Capability.OnReadable(r.Task)
	}
	if r.Events&EventWrite != 0 {
		t.Capability.OnWritable(r.Task)
	}
}

// ScheduleForDeletion appends id to this iteration's deletion list. The
// task must not be reused until the list is drained later in the same
// iteration, after every I/O callback has run.
func (l *Loop) ScheduleForDeletion(id taskpool.TaskID) {
	l.deletion = append(l.deletion, id)
}

func (l *Loop) drainDeletions() {
	if len(l.deletion) == 0 {
		return
	}
	l.metrics.addDeletions(uint64(len(l.deletion)))
	for _, id := range l.deletion {
		t := l.pool.Get(id)
		if t == nil {
			continue
		}
		if t.Capability != nil {
			t.Capability.OnCleanup(id)
		}
		if t.FD >= 0 {
			_ = l.poller.Detach(t.FD)
			_ = closeFD(t.FD)
		}
		if t.Timer.Owner != nil {
			_ = l.wheel.Remove(&t.Timer)
		}
		l.pool.Release(id, l.clock())
	}
}

// processInbound drains every task the listener (or another caller of
// Submit) has handed to this worker since the last wake: attaches the
// task's fd to this worker's poller and arms its idle timer.
func (l *Loop) processInbound() {
	var n uint64
	l.inbound.DrainAll(func(id taskpool.TaskID) {
		n++
		t := l.pool.Get(id)
		if t == nil {
			return
		}
		t.WorkerIndex = int32(l.id)
		if err := l.poller.Attach(t.FD, EventRead, id); err != nil {
			l.ScheduleForDeletion(id)
			return
		}
		t.Timer.Owner = id
		l.wheel.Add(&t.Timer)
	})
	l.metrics.addInbound(n)
}

// AttachInterest changes the poller subscription for an already-attached
// task, e.g. switching from read-only to read|write while a partial write
// drains.
func (l *Loop) AttachInterest(id taskpool.TaskID, interest IOEvents) error {
	t := l.pool.Get(id)
	if t == nil {
		return errs.New(errs.NotFound, "ioloop: unknown task")
	}
	if err := l.poller.Modify(t.FD, interest); err != nil {
		return err
	}
	t.Interest = uint32(interest)
	return nil
}

// Wheel exposes the worker's timing wheel for callers (e.g. a Capability
// implementation) that need to re-arm a task's timer outside the normal
// sweep path, such as on every successful read (keepalive reset).
func (l *Loop) Wheel() *wheel.Wheel { return l.wheel }
