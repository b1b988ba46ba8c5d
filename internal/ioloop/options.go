package ioloop

import "time"

// loopOptions holds configuration resolved at Loop construction.
type loopOptions struct {
	maxEventsPerPoll int
	pollTimeout      time.Duration
	metricsEnabled   bool
	logger           Logger
}

// Option configures a Loop instance.
type Option interface {
	applyLoop(*loopOptions)
}

type optionFunc func(*loopOptions)

func (f optionFunc) applyLoop(o *loopOptions) { f(o) }

// WithPollTimeout sets how long a single Poll call may block; the loop
// passes this value to every Poller.Poll call.
func WithPollTimeout(d time.Duration) Option {
	return optionFunc(func(o *loopOptions) { o.pollTimeout = d })
}

// WithMetrics enables per-iteration counters retrievable via Loop.Metrics.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(o *loopOptions) { o.metricsEnabled = enabled })
}

// WithLogger attaches a structured logger; nil is equivalent to omitting
// the option (a no-op logger is used).
func WithLogger(l Logger) Option {
	return optionFunc(func(o *loopOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

func resolveOptions(opts []Option) *loopOptions {
	cfg := &loopOptions{
		maxEventsPerPoll: 256,
		pollTimeout:      time.Second,
		logger:           noopLogger{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyLoop(cfg)
	}
	return cfg
}
