package ioloop

import "testing"

func TestRunStateTransitions(t *testing.T) {
	s := newRunState()
	if s.Load() != StateAwake {
		t.Fatalf("initial state = %v, want Awake", s.Load())
	}
	if !s.TryTransition(StateAwake, StateRunning) {
		t.Fatal("Awake -> Running should succeed")
	}
	if s.TryTransition(StateAwake, StateRunning) {
		t.Fatal("repeat Awake -> Running should fail, already Running")
	}
	if !s.ShouldRun() {
		t.Fatal("Running state should keep the loop going")
	}
	if !s.TransitionAny([]WorkerState{StateRunning, StateSleeping}, StateTerminating) {
		t.Fatal("Running -> Terminating should succeed")
	}
	if s.ShouldRun() {
		t.Fatal("Terminating state must stop the loop")
	}
	s.Store(StateTerminated)
	if !s.IsTerminal() {
		t.Fatal("expected terminal state")
	}
}
