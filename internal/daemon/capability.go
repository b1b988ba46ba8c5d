package daemon

import (
	"github.com/happyfish100/fastdfs-sub005/internal/ioloop"
	"github.com/happyfish100/fastdfs-sub005/internal/logging"
	"github.com/happyfish100/fastdfs-sub005/internal/taskpool"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto"
)

// heartbeatCapability implements the minimum request/response round trip
// the core's plumbing needs proven end to end: read one framed message,
// write back a zero-body CmdResponse/StatusOK acknowledgement, then close.
// Real command dispatch (upload, download, metadata) is out of scope.
type heartbeatCapability struct {
	pool   *taskpool.Pool
	logger *logging.Logger
}

func (h *heartbeatCapability) OnReadable(id taskpool.TaskID) {
	t := h.pool.Get(id)
	if t == nil {
		return
	}

	if t.Length < fdfsproto.HeaderLen {
		t.Buf = ensureCap(t.Buf, fdfsproto.HeaderLen)
		n, err := readFD(t.FD, t.Buf[t.Length:fdfsproto.HeaderLen])
		if !h.handleIOResult(id, n, err) {
			return
		}
		t.Length += n
		if t.Length < fdfsproto.HeaderLen {
			return
		}
	}

	hdr, err := fdfsproto.ParseHeader(t.Buf[:fdfsproto.HeaderLen])
	if err != nil {
		h.fail(id, err)
		return
	}

	want := fdfsproto.HeaderLen + int(hdr.Length)
	if t.Length < want {
		t.Buf = ensureCap(t.Buf, want)
		n, err := readFD(t.FD, t.Buf[t.Length:want])
		if !h.handleIOResult(id, n, err) {
			return
		}
		t.Length += n
		if t.Length < want {
			return
		}
	}

	t.ReqCount++
	resp := fdfsproto.Header{Command: fdfsproto.CmdResponse, Status: fdfsproto.StatusOK}
	if _, err := writeFD(t.FD, resp.Marshal()); err != nil {
		h.fail(id, err)
		return
	}

	h.closeTask(id)
}

func (h *heartbeatCapability) OnWritable(taskpool.TaskID) {}

func (h *heartbeatCapability) OnTimeout(id taskpool.TaskID) {
	h.logger.Log(ioloop.LogEntry{Level: ioloop.LevelInfo, Category: "timer", Message: "idle connection timed out"})
	h.closeTask(id)
}

func (h *heartbeatCapability) OnCleanup(taskpool.TaskID) {}

func (h *heartbeatCapability) handleIOResult(id taskpool.TaskID, n int, err error) bool {
	if err != nil {
		h.fail(id, err)
		return false
	}
	if n == 0 {
		h.closeTask(id)
		return false
	}
	return true
}

func (h *heartbeatCapability) fail(id taskpool.TaskID, err error) {
	h.logger.Log(ioloop.LogEntry{Level: ioloop.LevelWarn, Category: "conn", Message: "connection error", Err: err})
	h.closeTask(id)
}

// closeTask is a placeholder for the loop's normal deletion-list path; the
// capability itself has no handle back to its owning *ioloop.Loop (Design
// Notes' arena+index rule keeps that reference out of Task), so it simply
// shuts the raw fd down and leaves cleanup to the next poll iteration's
// error event.
func (h *heartbeatCapability) closeTask(id taskpool.TaskID) {
	t := h.pool.Get(id)
	if t == nil || t.FD < 0 {
		return
	}
	closeRawFD(t.FD)
}

func ensureCap(buf []byte, n int) []byte {
	if cap(buf) >= n {
		return buf[:n]
	}
	grown := make([]byte, n)
	copy(grown, buf)
	return grown
}
