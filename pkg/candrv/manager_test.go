package candrv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingListener struct {
	frames []Frame
}

func (r *recordingListener) Handle(frame Frame) {
	r.frames = append(r.frames, frame)
}

func TestBusManagerDispatchesToMatchingSubscriberOnly(t *testing.T) {
	bm := NewBusManager(nil)

	matched := &recordingListener{}
	other := &recordingListener{}

	_, err := bm.Subscribe(0x100, 0x7FF, false, matched)
	assert.NoError(t, err)
	_, err = bm.Subscribe(0x200, 0x7FF, false, other)
	assert.NoError(t, err)

	bm.Handle(Frame{ID: 0x100, DLC: 3})

	assert.Len(t, matched.frames, 1)
	assert.Len(t, other.frames, 0)
}

func TestBusManagerCancelStopsDelivery(t *testing.T) {
	bm := NewBusManager(nil)
	listener := &recordingListener{}

	cancel, err := bm.Subscribe(0x123, 0x7FF, false, listener)
	assert.NoError(t, err)

	bm.Handle(Frame{ID: 0x123, DLC: 1})
	assert.Len(t, listener.frames, 1)

	cancel()
	bm.Handle(Frame{ID: 0x123, DLC: 1})
	assert.Len(t, listener.frames, 1, "no further delivery after cancel")
}

func TestBusManagerUnsubscribeByCallback(t *testing.T) {
	bm := NewBusManager(nil)
	listener := &recordingListener{}

	_, err := bm.Subscribe(0x50, 0x7FF, false, listener)
	assert.NoError(t, err)

	assert.NoError(t, bm.Unsubscribe(0x50, false, listener))
	assert.Error(t, bm.Unsubscribe(0x50, false, listener), "second unsubscribe finds no match")

	bm.Handle(Frame{ID: 0x50, DLC: 1})
	assert.Len(t, listener.frames, 0)
}

func TestBusManagerRejectsExtendedIdentifiers(t *testing.T) {
	bm := NewBusManager(nil)
	_, err := bm.Subscribe(MaxCanId+1, 0x7FF, false, &recordingListener{})
	assert.Error(t, err)
}

func TestBusManagerErrorStatusDefaultsToZero(t *testing.T) {
	bm := NewBusManager(nil)
	assert.Equal(t, uint16(0), bm.Error())
}
