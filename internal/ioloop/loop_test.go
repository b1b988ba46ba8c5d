//go:build linux || darwin

package ioloop

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/happyfish100/fastdfs-sub005/internal/taskpool"
)

type recordingCapability struct {
	mu        sync.Mutex
	readable  int
	writable  int
	timeouts  int
	cleanups  int
	onReadCB  func()
}

func (c *recordingCapability) OnReadable(taskpool.TaskID) {
	c.mu.Lock()
	c.readable++
	cb := c.onReadCB
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}
func (c *recordingCapability) OnWritable(taskpool.TaskID) {
	c.mu.Lock()
	c.writable++
	c.mu.Unlock()
}
func (c *recordingCapability) OnTimeout(taskpool.TaskID) {
	c.mu.Lock()
	c.timeouts++
	c.mu.Unlock()
}
func (c *recordingCapability) OnCleanup(taskpool.TaskID) {
	c.mu.Lock()
	c.cleanups++
	c.mu.Unlock()
}

func (c *recordingCapability) counts() (read, write, timeout, cleanup int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readable, c.writable, c.timeouts, c.cleanups
}

// spec §8 end-to-end scenario 5: wake-up semantics, minus the real listener
// (an os.Pipe read end stands in for an accepted connection's fd).
func TestLoopDispatchesSubmittedTask(t *testing.T) {
	pool, err := taskpool.Init(4, 64, 64, 0)
	if err != nil {
		t.Fatalf("taskpool.Init: %v", err)
	}

	clockSec := int64(1000)
	clock := func() int64 { return clockSec }

	l, err := New(0, pool, 8, clock, WithPollTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer w.Close()

	id, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	task := pool.Get(id)
	task.FD = int(r.Fd())
	capa := &recordingCapability{}
	done := make(chan struct{})
	// The poller is level-triggered and the pipe byte is never read, so
	// OnReadable fires on every iteration until Stop; close done only once.
	var closeDone sync.Once
	capa.onReadCB = func() { closeDone.Do(func() { close(done) }) }
	task.Capability = capa

	go func() {
		if err := l.Run(); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	if err := l.Submit(id); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write to pipe: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnReadable dispatch")
	}

	read, _, _, _ := capa.counts()
	if read == 0 {
		t.Fatal("expected at least one OnReadable call")
	}

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for l.State() != StateTerminated && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if l.State() != StateTerminated {
		t.Fatal("loop did not terminate after Stop")
	}
	_ = l.Close()
	r.Close()
}
