package emergency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEMFifoPushDispatchOrder(t *testing.T) {
	f := newEMFifo(4)
	f.push(1, 100)
	f.push(2, 200)

	msg, info, ok := f.dispatch()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), msg)
	assert.Equal(t, uint32(100), info)

	msg, info, ok = f.dispatch()
	assert.True(t, ok)
	assert.Equal(t, uint32(2), msg)
	assert.Equal(t, uint32(200), info)

	assert.False(t, f.pending())
}

func TestEMFifoDispatchDoesNotClearHistory(t *testing.T) {
	f := newEMFifo(4)
	f.push(1, 100)
	f.push(2, 200)

	f.dispatch()
	f.dispatch()

	assert.False(t, f.pending())
	assert.Equal(t, 2, f.ring.Count(), "dispatching for transmission must not drop history visible to 0x1003")
}

func TestEMFifoOverflowRaisedOnDrop(t *testing.T) {
	f := newEMFifo(2)
	f.push(1, 0)
	f.push(2, 0)
	assert.Equal(t, overflowNone, f.overflow)

	f.push(3, 0)
	assert.Equal(t, overflowRaised, f.overflow)
}

func TestEMFifoClearHistoryLeavesOverflowAndCursorsAlone(t *testing.T) {
	f := newEMFifo(1)
	f.push(1, 0)
	f.push(2, 0)
	assert.Equal(t, overflowRaised, f.overflow)

	f.clearHistory()
	assert.Equal(t, overflowRaised, f.overflow, "clearing 0x1003 history is not the same as draining the dispatch backlog")
	assert.True(t, f.pending(), "clearHistory must not touch the dispatch cursor")
	assert.Equal(t, 0, f.ring.Count())
}
