package taskpool

import (
	"sync"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

// wholeBlockCeiling is the conservative data-size ceiling (256 MiB) under
// which whole-block mode collocates every task's buffer with its header in
// one contiguous allocation, per spec's pool layout contract.
const wholeBlockCeiling = 256 << 20

// Pool is a bounded, pre-allocated arena of Task records. The zero value is
// not usable; construct with Init.
type Pool struct {
	mu sync.Mutex

	tasks      []Task
	capacity   int
	minBuf     int
	maxBuf     int
	wholeBlock bool

	freeHead TaskID
	freeTail TaskID
	freeLen  int
}

// Init pre-allocates capacity tasks. minBuf/maxBuf bound each task's data
// buffer; equal values enable whole-block mode (task header and buffer
// collocated) provided the total footprint fits under wholeBlockCeiling,
// otherwise each task's buffer is allocated separately so it can shrink on
// release. Fails only with errs.OutOfMemory or errs.InvalidArgument;
// partial allocations are never observed by the caller (Go's allocator
// either returns a block or panics, so Init pre-checks size rather than
// rolling back after a partial failure).
func Init(capacity, minBuf, maxBuf, argSize int) (*Pool, error) {
	if capacity < 0 || minBuf < 0 || maxBuf < minBuf {
		return nil, errs.New(errs.InvalidArgument, "taskpool: invalid capacity/minBuf/maxBuf")
	}

	wholeBlock := minBuf == maxBuf
	if wholeBlock {
		total := int64(capacity) * int64(maxBuf+argSize)
		if total > wholeBlockCeiling {
			wholeBlock = false
		}
	}

	p := &Pool{
		tasks:      make([]Task, capacity),
		capacity:   capacity,
		minBuf:     minBuf,
		maxBuf:     maxBuf,
		wholeBlock: wholeBlock,
		freeHead:   noTaskID,
		freeTail:   noTaskID,
	}

	var arena []byte
	if wholeBlock && capacity > 0 && maxBuf > 0 {
		arena = make([]byte, capacity*maxBuf)
	}

	for i := range p.tasks {
		t := &p.tasks[i]
		t.id = TaskID(i)
		t.WorkerIndex = -1
		t.FD = -1
		t.next = noTaskID
		if wholeBlock {
			if maxBuf > 0 {
				t.Buf = arena[i*maxBuf : i*maxBuf : (i+1)*maxBuf]
			}
		} else if minBuf > 0 {
			t.Buf = make([]byte, 0, minBuf)
		}
		p.pushFree(t.id)
	}

	return p, nil
}

// Capacity returns the pool's fixed task capacity.
func (p *Pool) Capacity() int { return p.capacity }

// MinBuf returns the minimum data buffer size tasks are released back to.
func (p *Pool) MinBuf() int { return p.minBuf }

// MaxBuf returns the maximum data buffer size Init was configured with.
func (p *Pool) MaxBuf() int { return p.maxBuf }

// WholeBlockMode reports whether the pool was allocated in whole-block mode.
func (p *Pool) WholeBlockMode() bool { return p.wholeBlock }

// pushFree inserts id at the head of the free list, so the most recently
// released task is the next one Acquire hands out (LIFO, spec §8 scenario
// 3).
func (p *Pool) pushFree(id TaskID) {
	p.tasks[id].next = p.freeHead
	p.freeHead = id
	if p.freeTail == noTaskID {
		p.freeTail = id
	}
	p.freeLen++
}

func (p *Pool) popFreeMRU() (TaskID, bool) {
	// LIFO: the most recently released task is returned first (spec §8
	// scenario 3 pins this ordering), so we pop from the head, and pushFree
	// above must insert new releases at the head to match. See Release.
	if p.freeHead == noTaskID {
		return noTaskID, false
	}
	id := p.freeHead
	p.freeHead = p.tasks[id].next
	if p.freeHead == noTaskID {
		p.freeTail = noTaskID
	}
	p.tasks[id].next = noTaskID
	p.freeLen--
	return id, true
}

// Acquire pops a Task from the free list. Returns errs.Unavailable when the
// pool is exhausted; the caller must apply backpressure (reject the accept,
// or enqueue for later) rather than retry in a tight loop.
func (p *Pool) Acquire() (TaskID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.popFreeMRU()
	if !ok {
		return noTaskID, errs.New(errs.Unavailable, "taskpool: exhausted")
	}
	return id, nil
}

// Get resolves id back to its Task for the duration of a callback. The
// returned pointer must not be retained past the callback: once the task is
// released, the pointer is reused for an unrelated connection.
func (p *Pool) Get(id TaskID) *Task {
	if id == noTaskID || int(id) >= len(p.tasks) {
		return nil
	}
	return &p.tasks[id]
}

// Release returns a task to the free list, zeroing its observable state
// (peer address, length, offset, req count, timer, finish callback,
// capability) and, if the data buffer grew beyond minBuf, attempting to
// shrink it back. A failed/short shrink allocation is tolerated: the
// oversized buffer is kept and Task.OversizedSince is stamped with nowSec
// so monitoring can see it, rather than silently leaking the condition.
// Double-release is a programming error; in non-debug builds it is only
// detectable via the |free|+|in_flight|==capacity invariant drifting, so
// callers are expected to not do it.
func (p *Pool) Release(id TaskID, nowSec int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.Get(id)
	if t == nil {
		return
	}

	oversized := !p.wholeBlock && cap(t.Buf) > p.minBuf
	t.reset()

	if oversized {
		if fresh := p.tryShrink(); fresh != nil {
			t.Buf = fresh
			t.OversizedSince = 0
		} else {
			t.OversizedSince = nowSec
		}
	}

	p.pushFree(id)
}

func (p *Pool) tryShrink() (buf []byte) {
	defer func() {
		if recover() != nil {
			buf = nil
		}
	}()
	if p.minBuf == 0 {
		return make([]byte, 0)
	}
	return make([]byte, 0, p.minBuf)
}

// Count returns (total, free).
func (p *Pool) Count() (total, free int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity, p.freeLen
}
