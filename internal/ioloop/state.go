package ioloop

import "sync/atomic"

// WorkerState is the run state of one I/O worker loop.
type WorkerState uint64

const (
	StateAwake WorkerState = iota
	StateRunning
	StateSleeping
	StateTerminating
	StateTerminated
)

func (s WorkerState) String() string {
	switch s {
	case StateAwake:
		return "awake"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// runState is a lock-free state machine for a worker's run-flag. Polled
// once per loop iteration (§4.4's "shared boolean"), so reads must be cheap
// and allocation-free; transitions are pure CAS with no validation — the
// caller is trusted to only request valid transitions.
type runState struct {
	v atomic.Uint64
}

func newRunState() *runState {
	s := &runState{}
	s.v.Store(uint64(StateAwake))
	return s
}

func (s *runState) Load() WorkerState { return WorkerState(s.v.Load()) }

func (s *runState) Store(state WorkerState) { s.v.Store(uint64(state)) }

func (s *runState) TryTransition(from, to WorkerState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny moves from whichever of validFrom currently holds to to.
func (s *runState) TransitionAny(validFrom []WorkerState, to WorkerState) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

func (s *runState) IsTerminal() bool { return s.Load() == StateTerminated }

// ShouldRun reports whether the loop's main for-condition should keep
// iterating: true in every state except terminating/terminated.
func (s *runState) ShouldRun() bool {
	switch s.Load() {
	case StateTerminating, StateTerminated:
		return false
	default:
		return true
	}
}
