// Package ring implements the dual-cursor circular history that backs the
// emergency FIFO described in spec.md §4.2: pushed (msg, info) word pairs
// stay visible as history (for the predefined error field, OD 0x1003) even
// after the producer has dispatched them onto the bus. A write cursor
// (wrPtr) and an independent dispatch cursor (ppPtr) share the same
// physical array; ppPtr only tracks how much history has been sent and
// never removes anything a push wrote.
package ring

// Ring is a bounded circular buffer of (msg, info) pairs, physically sized
// capacity+1 so wrPtr==ppPtr unambiguously means "nothing pending to
// dispatch" without a separate counter.
type Ring struct {
	msg   []uint32
	info  []uint32
	wrPtr int
	ppPtr int
	count int
}

// New allocates a Ring that holds up to capacity history entries.
func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	size := capacity + 1
	return &Ring{
		msg:  make([]uint32, size),
		info: make([]uint32, size),
	}
}

// Cap returns the usable capacity (not the physical buffer size).
func (r *Ring) Cap() int {
	return len(r.msg) - 1
}

func (r *Ring) next(pos int) int {
	pos++
	if pos == len(r.msg) {
		pos = 0
	}
	return pos
}

// Push writes a new pair at the write cursor and advances it, unless doing
// so would catch the write cursor up to the dispatch cursor, in which case
// the incoming pair is dropped and the existing contents are left intact.
// It reports whether the pair was dropped (the caller's overflow signal).
// A successful push never overwrites a slot the dispatch cursor has not
// yet passed, so nothing visible via Peek is ever silently replaced before
// it has been sent at least once.
func (r *Ring) Push(msg, info uint32) (dropped bool) {
	next := r.next(r.wrPtr)
	if next == r.ppPtr {
		return true
	}
	r.msg[r.wrPtr] = msg
	r.info[r.wrPtr] = info
	r.wrPtr = next
	if r.count < r.Cap() {
		r.count++
	}
	return false
}

// Pending reports whether the dispatch cursor still has history to send.
func (r *Ring) Pending() bool {
	return r.ppPtr != r.wrPtr
}

// Dispatch returns the pair at the dispatch cursor and advances the cursor
// past it. Unlike a consuming queue, the pair is not removed: it remains
// readable via Peek until a later Push overwrites that physical slot. ok is
// false if nothing is pending.
func (r *Ring) Dispatch() (msg, info uint32, ok bool) {
	if !r.Pending() {
		return 0, 0, false
	}
	msg, info = r.msg[r.ppPtr], r.info[r.ppPtr]
	r.ppPtr = r.next(r.ppPtr)
	return msg, info, true
}

// Count returns the number of history entries currently visible via Peek,
// capped at Cap() and reset only by ClearHistory (dispatching does not
// decrement it).
func (r *Ring) Count() int {
	return r.count
}

// Peek returns the k-th most recently pushed pair still visible in history,
// where k=0 is the newest, regardless of whether it has already been
// dispatched. ok is false if k >= Count().
func (r *Ring) Peek(k int) (msg, info uint32, ok bool) {
	if k < 0 || k >= r.count {
		return 0, 0, false
	}
	pos := r.wrPtr - 1 - k
	for pos < 0 {
		pos += len(r.msg)
	}
	return r.msg[pos], r.info[pos], true
}

// ClearHistory zeroes the visible history length without touching the
// write or dispatch cursors, mirroring spec.md §4.2: writing 0 to OD 0x1003
// sub-index 0 clears the reported history, it does not rewind or affect
// the producer's pending dispatch.
func (r *Ring) ClearHistory() {
	r.count = 0
}
