package ioloop

import "sync/atomic"

// Metrics holds per-worker counters, snapshotted by Loop.Metrics(). No
// server in this repository serves them over HTTP. Counting is enabled only
// when WithMetrics(true) is passed to New, so the hot path pays nothing when
// it's off.
type Metrics struct {
	Iterations        uint64
	EventsDispatched  uint64
	DeletionsDrained  uint64
	TimeoutsFired     uint64
	InboundDispatched uint64
}

type metricsCounters struct {
	enabled           bool
	iterations        atomic.Uint64
	eventsDispatched  atomic.Uint64
	deletionsDrained  atomic.Uint64
	timeoutsFired     atomic.Uint64
	inboundDispatched atomic.Uint64
}

func (m *metricsCounters) snapshot() Metrics {
	return Metrics{
		Iterations:        m.iterations.Load(),
		EventsDispatched:  m.eventsDispatched.Load(),
		DeletionsDrained:  m.deletionsDrained.Load(),
		TimeoutsFired:     m.timeoutsFired.Load(),
		InboundDispatched: m.inboundDispatched.Load(),
	}
}

func (m *metricsCounters) addIteration() {
	if m.enabled {
		m.iterations.Add(1)
	}
}

func (m *metricsCounters) addEvents(n uint64) {
	if m.enabled && n > 0 {
		m.eventsDispatched.Add(n)
	}
}

func (m *metricsCounters) addDeletions(n uint64) {
	if m.enabled && n > 0 {
		m.deletionsDrained.Add(n)
	}
}

func (m *metricsCounters) addTimeouts(n uint64) {
	if m.enabled && n > 0 {
		m.timeoutsFired.Add(n)
	}
}

func (m *metricsCounters) addInbound(n uint64) {
	if m.enabled && n > 0 {
		m.inboundDispatched.Add(n)
	}
}
