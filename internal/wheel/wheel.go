// Package wheel implements a fixed-slot hashed timing wheel keyed by
// absolute expiry in whole seconds. It is the core's sole timeout primitive:
// one I/O worker owns exactly one Wheel and sweeps it once per second from
// its own loop goroutine, so the type itself does no internal locking (see
// the concurrency model in the owning ioloop package).
package wheel

import (
	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

// Entry is a single pending timeout. Owner carries either a uint32 task
// index or an opaque caller-supplied id for an anonymous event — never a
// pointer back into the task arena, per the arena+index guidance: the wheel
// must not participate in a Task↔Timer pointer cycle.
type Entry struct {
	Expires int64 // absolute expiry, whole seconds
	Owner   any

	slot   int
	rehash bool
	prev   *Entry
	next   *Entry
	linked bool
}

// Rehash reports whether a Modify call moved this entry's expiry into a
// different slot without yet relocating it; Sweep performs the relocation
// lazily the next time it visits the entry's current slot.
func (e *Entry) Rehash() bool { return e.rehash }

type slot struct {
	head *Entry
	tail *Entry
}

// Wheel is a hashed timing wheel. Zero value is not usable; construct with
// Init.
type Wheel struct {
	slots   []slot
	base    int64
	current int64
}

// Init allocates the slot array and sets the wheel's time cursor.
func Init(slotCount int, currentTime int64) (*Wheel, error) {
	if slotCount <= 0 || currentTime <= 0 {
		return nil, errs.New(errs.InvalidArgument, "wheel: slotCount and currentTime must be positive")
	}
	return &Wheel{
		slots:   make([]slot, slotCount),
		base:    currentTime,
		current: currentTime,
	}, nil
}

// SlotCount returns the number of slots the wheel was initialized with.
func (w *Wheel) SlotCount() int { return len(w.slots) }

// Current returns the wheel's current time cursor.
func (w *Wheel) Current() int64 { return w.current }

func (w *Wheel) slotIndex(expires int64) int {
	n := int64(len(w.slots))
	idx := (expires - w.base) % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

// Add inserts entry at the head of the slot its expiry maps to. The
// effective expiry used for slotting is max(entry.Expires, current time),
// matching the contract that a timer requested in the past fires on the
// next sweep rather than being silently skipped. Always succeeds.
func (w *Wheel) Add(e *Entry) {
	effective := e.Expires
	if effective < w.current {
		effective = w.current
	}
	e.slot = w.slotIndex(effective)
	w.linkHead(e)
}

func (w *Wheel) linkHead(e *Entry) {
	s := &w.slots[e.slot]
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
	e.linked = true
}

func (w *Wheel) unlink(e *Entry) {
	s := &w.slots[e.slot]
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev = nil
	e.next = nil
	e.linked = false
}

// Modify changes entry's expiry. Expiries that move backward are removed
// and reinserted immediately (cheap: at most one slot's worth of list
// surgery); expiries that move forward only set the rehash flag and update
// Expires in place, deferring relocation to the next Sweep that visits the
// entry's current slot ("lazy move").
func (w *Wheel) Modify(e *Entry, newExpires int64) {
	if newExpires == e.Expires {
		return
	}
	if newExpires < e.Expires {
		if e.linked {
			w.unlink(e)
		}
		e.Expires = newExpires
		e.rehash = false
		w.Add(e)
		return
	}
	e.Expires = newExpires
	e.rehash = true
}

// Remove detaches entry in O(1). Returns errs.NotFound if the entry is not
// currently linked into any slot (already removed, or never added).
func (w *Wheel) Remove(e *Entry) error {
	if !e.linked {
		return errs.New(errs.NotFound, "wheel: entry already removed")
	}
	w.unlink(e)
	e.rehash = false
	return nil
}

// Sweep advances the wheel's current time one slot at a time up to now,
// visiting every slot in between. For each visited slot, entries are
// partitioned: expired entries (Expires < now) are detached and appended to
// the returned list in first-seen (insertion) order; entries with rehash
// set but not yet expired are relocated to their new slot and the flag is
// cleared; all other entries are left untouched. The slot-visit order plus
// within-slot insertion order together give the returned list a single,
// well-defined, deterministic ordering across every slot it passes through.
func (w *Wheel) Sweep(now int64) []*Entry {
	var expired []*Entry
	if len(w.slots) == 0 || now < w.current {
		return expired
	}
	for c := w.current; c <= now; c++ {
		s := &w.slots[w.slotIndex(c)]

		// Walk tail-to-head: Add links new entries at the head, so the
		// tail is the oldest (first-inserted) entry in the slot. Visiting
		// tail-first yields insertion order, matching the tie-break rule.
		e := s.tail
		for e != nil {
			prevEntry := e.prev
			switch {
			case e.Expires < now:
				w.unlink(e)
				expired = append(expired, e)
			case e.rehash:
				w.unlink(e)
				e.rehash = false
				w.Add(e)
			}
			e = prevEntry
		}
	}
	w.current = now
	return expired
}
