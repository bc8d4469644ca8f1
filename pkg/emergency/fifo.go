package emergency

import "github.com/flowmach/canod/internal/ring"

// overflowState is the tri-state overflow flag described in spec.md §4.2:
// the FIFO moves to "raised" when it first drops data, the next Process
// call moves it to "clearing" (raising EmBufferFull), and it returns to
// "none" (clearing EmBufferFull) once nothing is left to dispatch.
type overflowState byte

const (
	overflowNone overflowState = iota
	overflowRaised
	overflowClearing
)

// emFifo is the emergency history/dispatch buffer. Each entry is the 32-bit
// (errorBit<<24 | errorCode) word and the 32-bit info code. It is NOT a
// consuming queue: dispatching a record for transmission does not remove it
// from the history the predefined error field (OD 0x1003) reports — only
// the explicit "write 0 to sub-index 0" clears that history, grounded on
// the teacher's emfifo/fifoWrPtr/fifoPpPtr/fifoCount split.
type emFifo struct {
	ring     *ring.Ring
	overflow overflowState
}

func newEMFifo(capacity int) *emFifo {
	return &emFifo{ring: ring.New(capacity)}
}

// push enqueues a new emergency record. If the write cursor would catch up
// to the dispatch cursor, the incoming record is dropped and the overflow
// flag is raised; existing history is left untouched.
func (f *emFifo) push(msg, info uint32) {
	if f.ring.Push(msg, info) && f.overflow == overflowNone {
		f.overflow = overflowRaised
	}
}

// dispatch returns the oldest not-yet-sent record and advances the dispatch
// cursor past it, without removing it from history.
func (f *emFifo) dispatch() (msg, info uint32, ok bool) {
	return f.ring.Dispatch()
}

// pending reports whether any record awaits dispatch.
func (f *emFifo) pending() bool {
	return f.ring.Pending()
}

// clearHistory implements the OD 0x1003 "write 0 to sub-index 0" reset: it
// zeroes the visible history length only. It must not touch the producer's
// write/dispatch cursors or the overflow tri-state, which Process alone
// drives as the backlog actually drains.
func (f *emFifo) clearHistory() {
	f.ring.ClearHistory()
}
