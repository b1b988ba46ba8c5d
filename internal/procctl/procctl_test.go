package procctl

import (
	"os"
	"testing"
)

func TestParseAction(t *testing.T) {
	for _, s := range []string{"start", "stop", "restart"} {
		if _, err := ParseAction(s); err != nil {
			t.Fatalf("ParseAction(%q): %v", s, err)
		}
	}
	if _, err := ParseAction("bogus"); err == nil {
		t.Fatal("expected error for unrecognized action")
	}
}

func TestPIDFileWriteReadRemove(t *testing.T) {
	dir := t.TempDir()
	pf := NewPIDFile(dir, "fdfs_trackerd")

	if _, ok, err := pf.Read(); err != nil || ok {
		t.Fatalf("expected no pid file yet: ok=%v err=%v", ok, err)
	}

	if err := pf.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	pid, ok, err := pf.Read()
	if err != nil || !ok || pid != os.Getpid() {
		t.Fatalf("Read = %d, %v, %v, want %d true nil", pid, ok, err, os.Getpid())
	}

	gotPID, running, err := pf.Running()
	if err != nil || !running || gotPID != os.Getpid() {
		t.Fatalf("Running = %d, %v, %v", gotPID, running, err)
	}

	if err := pf.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := pf.Read(); ok {
		t.Fatal("expected pid file to be gone after Remove")
	}
}

func TestPIDFileStopWithNoProcessRemovesStaleFile(t *testing.T) {
	dir := t.TempDir()
	pf := NewPIDFile(dir, "fdfs_storaged")
	if err := os.WriteFile(pf.Path(), []byte("999999999"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := pf.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, ok, _ := pf.Read(); ok {
		t.Fatal("expected stale pid file to be removed")
	}
}
