package ring

import "testing"

func TestPushThenDispatchInOrder(t *testing.T) {
	r := New(3)
	r.Push(1, 10)
	r.Push(2, 20)
	r.Push(3, 30)

	if r.Count() != 3 {
		t.Fatalf("expected count 3, got %d", r.Count())
	}
	if msg, info, ok := r.Dispatch(); !ok || msg != 1 || info != 10 {
		t.Fatalf("unexpected dispatch: %d %d %v", msg, info, ok)
	}
	if msg, _, ok := r.Dispatch(); !ok || msg != 2 {
		t.Fatalf("unexpected dispatch: %d %v", msg, ok)
	}
}

func TestDispatchDoesNotRemoveHistory(t *testing.T) {
	r := New(3)
	r.Push(1, 10)
	r.Push(2, 20)

	r.Dispatch()

	if r.Count() != 2 {
		t.Fatalf("dispatching must not shrink visible history, got count %d", r.Count())
	}
	if msg, _, ok := r.Peek(0); !ok || msg != 2 {
		t.Fatalf("peek(0) should still be newest (2), got %d %v", msg, ok)
	}
	if msg, _, ok := r.Peek(1); !ok || msg != 1 {
		t.Fatalf("peek(1) should still see the dispatched entry (1), got %d %v", msg, ok)
	}
}

func TestPushDropsNewestWhenWriteCursorWouldCatchDispatchCursor(t *testing.T) {
	r := New(2)
	r.Push(1, 0)
	r.Push(2, 0)
	dropped := r.Push(3, 0)
	if !dropped {
		t.Fatal("expected overflow signal: nothing has been dispatched yet, so the ring is full")
	}
	if r.Count() != 2 {
		t.Fatalf("expected count capped at 2, got %d", r.Count())
	}

	r.Dispatch()
	if dropped := r.Push(3, 0); dropped {
		t.Fatal("expected push to succeed once the dispatch cursor has freed a slot")
	}
}

func TestPeekNewestFirst(t *testing.T) {
	r := New(4)
	r.Push(1, 0)
	r.Push(2, 0)
	r.Push(3, 0)

	if msg, _, ok := r.Peek(0); !ok || msg != 3 {
		t.Fatalf("peek(0) should be newest (3), got %d %v", msg, ok)
	}
	if msg, _, ok := r.Peek(2); !ok || msg != 1 {
		t.Fatalf("peek(2) should be oldest (1), got %d %v", msg, ok)
	}
	if _, _, ok := r.Peek(3); ok {
		t.Fatal("peek(3) should be out of range for 3 queued pairs")
	}
}

func TestDispatchOnEmptyRing(t *testing.T) {
	r := New(1)
	if _, _, ok := r.Dispatch(); ok {
		t.Fatal("dispatch on a ring with nothing pending should fail")
	}
}

func TestClearHistoryLeavesCursorsAlone(t *testing.T) {
	r := New(3)
	r.Push(1, 0)
	r.Push(2, 0)
	r.Dispatch()

	r.ClearHistory()
	if r.Count() != 0 {
		t.Fatalf("expected count 0 after ClearHistory, got %d", r.Count())
	}
	if !r.Pending() {
		t.Fatal("ClearHistory must not affect the dispatch cursor: entry 2 is still unsent")
	}
	if msg, _, ok := r.Dispatch(); !ok || msg != 2 {
		t.Fatalf("dispatch after ClearHistory should still see the not-yet-sent entry, got %d %v", msg, ok)
	}
}

func TestCapacityIsUsableNotPhysicalSize(t *testing.T) {
	r := New(5)
	if r.Cap() != 5 {
		t.Fatalf("expected usable capacity 5, got %d", r.Cap())
	}
	for i := 0; i < 5; i++ {
		r.Push(uint32(i), 0)
	}
	if r.Count() != 5 {
		t.Fatalf("expected count to reach capacity 5, got %d", r.Count())
	}
	if dropped := r.Push(99, 0); !dropped {
		t.Fatal("expected the 6th push to overflow a capacity-5 ring with nothing dispatched")
	}
}
