package ioloop

// wakeup is the cross-thread handoff primitive a worker subscribes to its
// own Poller: the listener (or any other goroutine) writes one byte to
// unblock the worker's Poll, the worker drains it on wake and runs its
// ingress hand-off logic. The source's own comment on this mechanism
// applies here too: one byte is written per hand-off, but reads are not
// guaranteed one-to-one with writes, so the worker must read until
// exhausted (EAGAIN) and treat it as edge-triggered, not level-counted.
type wakeup struct {
	readFD  int
	writeFD int
}

func newWakeup() (*wakeup, error) {
	r, w, err := createWakeFD()
	if err != nil {
		return nil, err
	}
	return &wakeup{readFD: r, writeFD: w}, nil
}

func (w *wakeup) Close() error {
	return closeWakeFD(w.readFD, w.writeFD)
}

// Signal writes one byte to wake a blocked Poll.
func (w *wakeup) Signal() error {
	var buf [1]byte
	buf[0] = 1
	_, err := writeFD(w.writeFD, buf[:])
	return err
}

// Drain reads until the wake fd would block, per the "read until EAGAIN"
// rule above.
func (w *wakeup) Drain() {
	var buf [64]byte
	for {
		n, err := readFD(w.readFD, buf[:])
		if err != nil || n <= 0 {
			return
		}
	}
}
