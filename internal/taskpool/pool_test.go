package taskpool

import (
	"testing"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

func TestInitRejectsInvalidBounds(t *testing.T) {
	if _, err := Init(4, 8, 4, 0); err == nil {
		t.Fatal("expected error when maxBuf < minBuf")
	}
}

func TestWholeBlockModeWhenMinEqualsMax(t *testing.T) {
	p, err := Init(4, 1024, 1024, 0)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !p.WholeBlockMode() {
		t.Fatal("expected whole-block mode when minBuf == maxBuf")
	}
}

func TestSeparateModeWhenMinNotEqualMax(t *testing.T) {
	p, err := Init(4, 256, 4096, 0)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p.WholeBlockMode() {
		t.Fatal("expected separate-buffer mode when minBuf != maxBuf")
	}
}

// spec §8 end-to-end scenario 3: pool exhaustion.
func TestAcquireReleaseLIFO(t *testing.T) {
	p, err := Init(2, 64, 64, 0)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	a, err := p.Acquire()
	if err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	b, err := p.Acquire()
	if err != nil {
		t.Fatalf("acquire 2: %v", err)
	}

	if _, err := p.Acquire(); !errs.Is(err, errs.Unavailable) {
		t.Fatalf("expected Unavailable on 3rd acquire, got %v", err)
	}

	p.Release(a, 0)

	got, err := p.Acquire()
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if got != a {
		t.Fatalf("acquire after release = %d, want most-recently-released %d", got, a)
	}

	total, free := p.Count()
	if total != 2 || free != 0 {
		t.Fatalf("Count() = (%d, %d), want (2, 0)", total, free)
	}
	_ = b
}

func TestCountInvariant(t *testing.T) {
	p, err := Init(3, 64, 64, 0)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	var ids []TaskID
	for i := 0; i < 3; i++ {
		id, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	total, free := p.Count()
	if total != 3 || free != 0 {
		t.Fatalf("Count() = (%d, %d), want (3, 0)", total, free)
	}
	for _, id := range ids {
		p.Release(id, 0)
	}
	total, free = p.Count()
	if total != 3 || free != 3 {
		t.Fatalf("Count() after releasing all = (%d, %d), want (3, 3)", total, free)
	}
}

func TestReleaseRestoresObservableState(t *testing.T) {
	p, err := Init(1, 16, 16, 0)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	id, err := p.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	task := p.Get(id)
	task.PeerAddr = "10.0.0.1:1234"
	task.Length = 10
	task.Offset = 3
	task.ReqCount = 7

	p.Release(id, 0)

	task = p.Get(id)
	if task.PeerAddr != "" || task.Length != 0 || task.Offset != 0 || task.ReqCount != 0 {
		t.Fatalf("Release did not restore observable state: %+v", task)
	}
}

func TestZeroCapacityAcquireUnavailable(t *testing.T) {
	p, err := Init(0, 64, 64, 0)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := p.Acquire(); !errs.Is(err, errs.Unavailable) {
		t.Fatalf("expected Unavailable for zero-capacity pool, got %v", err)
	}
}

func TestShrinkOnReleaseInSeparateMode(t *testing.T) {
	p, err := Init(1, 16, 4096, 0)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	id, err := p.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	task := p.Get(id)
	task.Buf = append(task.Buf, make([]byte, 2048)...)

	p.Release(id, 1000)

	task = p.Get(id)
	if cap(task.Buf) > 16 && task.OversizedSince == 0 {
		t.Fatalf("expected either shrink to minBuf or OversizedSince stamped, got cap=%d since=%d", cap(task.Buf), task.OversizedSince)
	}
}
