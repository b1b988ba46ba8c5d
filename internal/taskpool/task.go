// Package taskpool implements the fixed-capacity arena of pooled connection
// records ("tasks") described in the network core's data model: every piece
// of per-connection state — peer address, socket, buffer, timer, and
// bookkeeping — lives inside one Task, and the pool never grows beyond its
// configured capacity.
//
// Tasks are referred to externally by TaskID, a uint32 index into the
// arena, never by pointer — this is what lets a Timer entry and a Worker's
// inbound/deletion list reference a task without forming a pointer cycle
// with the arena that owns it (Design Notes, "arena + index").
package taskpool

import (
	"github.com/happyfish100/fastdfs-sub005/internal/wheel"
)

// TaskID addresses a Task inside its owning Pool's arena.
type TaskID uint32

// noTaskID marks "no task" (e.g. an empty next pointer) without needing a
// pointer or an extra bool.
const noTaskID TaskID = ^TaskID(0)

// Capability is the polymorphic callback set a Task's owner plugs in for
// the accept path, the upload path, the replication path, and so on. Design
// Notes §9: "the task is polymorphic over {on_readable, on_writable,
// on_timeout, on_cleanup}".
type Capability interface {
	OnReadable(id TaskID)
	OnWritable(id TaskID)
	OnTimeout(id TaskID)
	OnCleanup(id TaskID)
}

// Task is the unit of I/O: one pooled connection record. A Task is in
// exactly one of three states at any time: free (on the pool's free list),
// attached (owns one fd and one timer slot), or deleted (on exactly one
// worker's deletion list, awaiting clean_up). A free Task, whether fresh
// from Init or released, has FD and WorkerIndex set to -1; the zero value
// is not that state.
type Task struct {
	id TaskID

	// PeerAddr is the printable address of the connection this task
	// represents, set by the acceptor before hand-off.
	PeerAddr string

	// WorkerIndex is a back-reference to the owning worker, stored as a
	// small integer rather than a pointer (arena+index).
	WorkerIndex int32

	// FD is the file descriptor currently attached to this task, or -1.
	FD int

	// Interest is the demultiplexer subscription currently registered for
	// FD (see internal/ioloop.IOEvents); it is mirrored here so a worker
	// can re-subscribe after a partial write without touching the poller's
	// own bookkeeping.
	Interest uint32

	// Buf is the task's read/write buffer. offset <= length <= capacity is
	// the invariant the pool and its owner must jointly uphold.
	Buf []byte
	// Length is the number of meaningful bytes currently in Buf.
	Length int
	// Offset is the read/write cursor into Buf.
	Offset int

	// Arg is the extra-argument slot for application state (e.g. the
	// in-flight request being assembled).
	Arg any

	// ReqCount counts requests served by this task since acquire.
	ReqCount uint64

	// Timer is this task's timer entry. It is allocated once, per task,
	// for the lifetime of the arena, and reused across acquire/release
	// cycles; Owner is set to the task's TaskID (never a pointer) whenever
	// the task attaches it to a wheel.
	Timer wheel.Entry

	// Finish is the completion-callback slot: invoked once, then cleared,
	// when an in-flight operation (e.g. an upload) completes.
	Finish func(id TaskID, err error)

	// Capability is the plugged-in behavior for this task's current role.
	Capability Capability

	// OversizedSince records, in whole seconds since the Unix epoch, when
	// Buf last grew past the pool's MinBuf and a subsequent Release failed
	// to shrink it back — zero means "not oversized". This does not change
	// release's tolerance of the allocation failure; it only makes the
	// condition observable to monitoring instead of a silent leak, per the
	// Design Notes' re-examination of the shrink-failure path.
	OversizedSince int64

	next TaskID // free-list / deletion-list link
}

// ID returns the task's identity within its owning Pool's arena.
func (t *Task) ID() TaskID { return t.id }

// reset restores a Task to its released state, preserving capacity-level
// fields (id, Buf's backing array identity is handled by the pool, not
// here).
func (t *Task) reset() {
	t.PeerAddr = ""
	t.WorkerIndex = -1
	t.FD = -1
	t.Interest = 0
	t.Length = 0
	t.Offset = 0
	t.Arg = nil
	t.ReqCount = 0
	t.Timer = wheel.Entry{}
	t.Finish = nil
	t.Capability = nil
	t.next = noTaskID
}
