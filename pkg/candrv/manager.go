package candrv

import (
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// LookupArraySize covers every standard 11-bit CAN ID, doubled so RTR frames
// get their own slot range alongside data frames.
const LookupArraySize = (MaxCanId + 1) * 2

type subscriber struct {
	id       uint64
	rtr      bool
	callback FrameListener
}

// BusManager wraps a Bus and fans received frames out to per-CAN-ID
// subscribers, tracking the last observed bus error status.
type BusManager struct {
	logger    *logrus.Logger
	bus       Bus
	listeners [LookupArraySize][]subscriber
	nextSubID uint64
	errStatus uint16
}

func NewBusManager(bus Bus) *BusManager {
	return &BusManager{
		bus:    bus,
		logger: logrus.StandardLogger(),
	}
}

// Handle implements FrameListener: it is installed as the Bus's single
// receive callback and dispatches to whichever subscribers match frame.ID.
func (bm *BusManager) Handle(frame Frame) {
	canID := uint32(frame.ID) & unix.CAN_SFF_MASK
	if canID >= LookupArraySize {
		return
	}
	for _, sub := range bm.listeners[canID] {
		sub.callback.Handle(frame)
	}
}

func (bm *BusManager) SetBus(bus Bus) { bm.bus = bus }

func (bm *BusManager) Bus() Bus { return bm.bus }

func (bm *BusManager) Send(frame Frame) error {
	err := bm.bus.Send(frame)
	if err != nil {
		bm.logger.WithError(err).Warn("candrv: error sending frame")
	}
	return err
}

// Process is a no-op: it does not poll the Bus, and the cached error status
// returned by Error changes only through setError.
func (bm *BusManager) Process() error {
	return nil
}

func (bm *BusManager) slot(ident uint32, rtr bool) (uint32, error) {
	if ident >= MaxCanId+1 {
		return 0, errors.New("candrv: array-based manager only supports standard 11-bit IDs")
	}
	idx := ident
	if rtr {
		idx += MaxCanId + 1
	}
	return idx, nil
}

// Subscribe registers callback for frames matching ident (mask is accepted
// for interface parity with mask-capable backends but is not applied here;
// this manager dispatches by exact ID only). Returns a cancel func.
func (bm *BusManager) Subscribe(ident uint32, mask uint32, rtr bool, callback FrameListener) (cancel func(), err error) {
	idx, err := bm.slot(ident, rtr)
	if err != nil {
		return nil, err
	}

	bm.nextSubID++
	subID := bm.nextSubID
	bm.listeners[idx] = append(bm.listeners[idx], subscriber{id: subID, rtr: rtr, callback: callback})

	cancel = func() {
		subs := bm.listeners[idx]
		for i, sub := range subs {
			if sub.id == subID {
				bm.listeners[idx] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
	return cancel, nil
}

// Unsubscribe removes the first subscriber registered for (ident, rtr) whose
// callback equals the one given; further subscribers with the same callback
// stay registered. Prefer the cancel func returned by
// Subscribe; this exists for callers that only kept the identifiers.
func (bm *BusManager) Unsubscribe(ident uint32, rtr bool, callback FrameListener) error {
	idx, err := bm.slot(ident, rtr)
	if err != nil {
		return err
	}

	subs := bm.listeners[idx]
	for i, sub := range subs {
		if sub.callback == callback {
			bm.listeners[idx] = append(subs[:i], subs[i+1:]...)
			return nil
		}
	}
	return errors.New("candrv: no matching subscriber for id")
}

// Error returns the last observed CAN bus error status bitmap.
func (bm *BusManager) Error() uint16 {
	return bm.errStatus
}

// setError replaces the cached error status bitmap. It is unexported and
// nothing in this module calls it, so Error keeps reporting 0.
func (bm *BusManager) setError(status uint16) {
	bm.errStatus = status
}
