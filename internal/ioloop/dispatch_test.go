package ioloop

import (
	"testing"

	"github.com/happyfish100/fastdfs-sub005/internal/taskpool"
)

func TestInboundQueueFIFO(t *testing.T) {
	q := &inboundQueue{}
	for i := 0; i < 300; i++ { // spans multiple chunks
		if !q.Push(taskpool.TaskID(i)) {
			t.Fatalf("push %d failed", i)
		}
	}
	if got := q.Len(); got != 300 {
		t.Fatalf("Len() = %d, want 300", got)
	}
	for i := 0; i < 300; i++ {
		id, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue empty early", i)
		}
		if id != taskpool.TaskID(i) {
			t.Fatalf("pop %d = %d, want FIFO order %d", i, id, i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestInboundQueueDrainAll(t *testing.T) {
	q := &inboundQueue{}
	q.Push(1)
	q.Push(2)
	q.Push(3)

	var got []taskpool.TaskID
	q.DrainAll(func(id taskpool.TaskID) { got = append(got, id) })

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("DrainAll order = %v, want [1 2 3]", got)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() after DrainAll = %d, want 0", q.Len())
	}
}

func TestInboundQueueClosedRejectsPush(t *testing.T) {
	q := &inboundQueue{}
	q.Close()
	if q.Push(1) {
		t.Fatal("Push on closed queue should fail")
	}
}
