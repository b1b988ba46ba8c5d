package ioloop

import (
	"sync"

	"github.com/happyfish100/fastdfs-sub005/internal/taskpool"
)

// inboundChunkSize is the number of task ids per node in the chunked
// linked-list inbound queue; sized so a burst of accepts doesn't force a
// single giant allocation, while still amortizing allocation cost across
// many hand-offs.
const inboundChunkSize = 128

var inboundChunkPool = sync.Pool{New: func() any { return &inboundChunk{} }}

type inboundChunk struct {
	ids     [inboundChunkSize]taskpool.TaskID
	next    *inboundChunk
	readPos int
	pos     int
}

func newInboundChunk() *inboundChunk {
	c := inboundChunkPool.Get().(*inboundChunk)
	c.pos, c.readPos, c.next = 0, 0, nil
	return c
}

func returnInboundChunk(c *inboundChunk) {
	c.pos, c.readPos, c.next = 0, 0, nil
	inboundChunkPool.Put(c)
}

// inboundQueue is a bounded MPSC hand-off from listener threads to one
// worker: a chunked linked-list of fixed-size arrays guarded by a single
// mutex. FastDFS's accept rates are far lower than the throughput a
// lock-free ring buffer is built for, so the simpler, auditable
// chunked-list-under-a-lock form is the right fit here.
type inboundQueue struct {
	mu     sync.Mutex
	head   *inboundChunk
	tail   *inboundChunk
	length int
	closed bool
}

// Push appends id to the tail of the queue. Returns false if the queue has
// been closed (worker shutting down); the caller must then close the
// connection itself rather than leave it dangling.
func (q *inboundQueue) Push(id taskpool.TaskID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}

	if q.tail == nil {
		q.tail = newInboundChunk()
		q.head = q.tail
	}
	if q.tail.pos == inboundChunkSize {
		next := newInboundChunk()
		q.tail.next = next
		q.tail = next
	}
	q.tail.ids[q.tail.pos] = id
	q.tail.pos++
	q.length++
	return true
}

// Pop removes and returns the oldest pushed id, preserving FIFO order so a
// burst of accepts is handed to the worker in the order the listener saw
// them.
func (q *inboundQueue) Pop() (taskpool.TaskID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *inboundQueue) popLocked() (taskpool.TaskID, bool) {
	if q.head == nil {
		return 0, false
	}
	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos, q.head.readPos = 0, 0
			return 0, false
		}
		old := q.head
		q.head = q.head.next
		returnInboundChunk(old)
		return q.popLocked()
	}
	id := q.head.ids[q.head.readPos]
	q.head.readPos++
	q.length--
	return id, true
}

// DrainAll pops every pending id and invokes fn for each, in FIFO order.
func (q *inboundQueue) DrainAll(fn func(taskpool.TaskID)) {
	for {
		id, ok := q.Pop()
		if !ok {
			return
		}
		fn(id)
	}
}

// Len reports the number of ids currently queued.
func (q *inboundQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}

// Close marks the queue closed; subsequent Push calls fail.
func (q *inboundQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
