// Package logging adapts a github.com/joeycumines/logiface logger, backed
// by github.com/joeycumines/stumpy's JSON writer, to the ioloop.Logger
// interface consumed by the worker loops.
package logging

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/happyfish100/fastdfs-sub005/internal/ioloop"
)

// Logger wraps a *logiface.Logger[*stumpy.Event], translating
// ioloop.LogEntry values into stumpy's structured JSON output.
type Logger struct {
	base *logiface.Logger[*stumpy.Event]
}

var _ ioloop.Logger = (*Logger)(nil)

// New builds a Logger writing newline-delimited JSON to w.
func New(w io.Writer) *Logger {
	return &Logger{
		base: stumpy.L.New(
			stumpy.L.WithStumpy(),
			stumpy.L.WithWriter(w),
		),
	}
}

// NewStderr builds a Logger writing to os.Stderr, the default sink for a
// freshly started daemon before its configured log file is opened.
func NewStderr() *Logger {
	return New(os.Stderr)
}

func (l *Logger) Log(entry ioloop.LogEntry) {
	b := l.builder(entry.Level)
	if !b.Enabled() {
		b.Release()
		return
	}
	if entry.Category != "" {
		b = b.Str("category", entry.Category)
	}
	if entry.WorkerID != 0 {
		b = b.Int("worker", entry.WorkerID)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	for k, v := range entry.Fields {
		b = b.Any(k, v)
	}
	b.Log(entry.Message)
}

func (l *Logger) builder(level ioloop.LogLevel) *logiface.Builder[*stumpy.Event] {
	switch level {
	case ioloop.LevelDebug:
		return l.base.Debug()
	case ioloop.LevelInfo:
		return l.base.Info()
	case ioloop.LevelWarn:
		return l.base.Warning()
	case ioloop.LevelError:
		return l.base.Err()
	case ioloop.LevelCrit:
		return l.base.Crit()
	default:
		return l.base.Info()
	}
}
