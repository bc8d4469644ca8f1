package emergency

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowmach/canod/pkg/candrv"
	"github.com/flowmach/canod/pkg/candrv/virtual"
	"github.com/flowmach/canod/pkg/od"
)

func buildEMCYCatalog(t *testing.T, capacity int) *od.Catalog {
	t.Helper()
	cobID := make([]byte, 4)
	cobID[0] = byte(ServiceID + 1)

	inhibit := make([]byte, 2)

	predefSubs := make([]*od.Sub, capacity+1)
	predefSubs[0] = od.NewSub(0, "number of errors", od.UNSIGNED8, od.AttributeSdoRw, []byte{0})
	for i := 1; i <= capacity; i++ {
		predefSubs[i] = od.NewSub(uint8(i), "standard error field", od.UNSIGNED32, od.AttributeSdoR, make([]byte, 4))
	}

	entries := []*od.Entry{
		od.NewVarEntry(0x1001, "error register", od.NewSub(0, "error register", od.UNSIGNED8, od.AttributeSdoR, []byte{0}), false),
		od.NewVarEntry(0x1014, "COB-ID EMCY", od.NewSub(0, "cob id", od.UNSIGNED32, od.AttributeSdoRw, cobID), true),
		od.NewVarEntry(0x1015, "inhibit time EMCY", od.NewSub(0, "inhibit time", od.UNSIGNED16, od.AttributeSdoRw, inhibit), true),
		od.NewRecordEntry(0x1003, "predefined error field", predefSubs, true),
		od.NewVarEntry(0x2100, "manufacturer status bits", od.NewSub(0, "status bits", od.OCTET_STRING, od.AttributeSdoRw, make([]byte, EmergencyErrorStatusBits/8)), true),
	}
	cat, err := od.Build(entries)
	assert.NoError(t, err)
	return cat
}

func newTestEMCY(t *testing.T, capacity int) (*EMCY, *candrv.BusManager) {
	t.Helper()
	cat := buildEMCYCatalog(t, capacity)

	bus, err := virtual.NewVirtualBus(t.Name())
	assert.NoError(t, err)
	assert.NoError(t, bus.Connect())
	t.Cleanup(func() { _ = bus.Disconnect() })

	bm := candrv.NewBusManager(bus)
	assert.NoError(t, bus.Subscribe(bm))

	em, err := NewEMCY(bm, cat, nil, 1, 0x1001, 0x1014, 0x1015, 0x1003, 0x2100)
	assert.NoError(t, err)
	return em, bm
}

func TestErrorReportIsIdempotent(t *testing.T) {
	em, _ := newTestEMCY(t, 4)

	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)
	assert.True(t, em.IsError(EmCANTxBusOff))
	assert.True(t, em.fifo.pending())

	em.fifo.dispatch() // simulate Process having sent the first report
	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)
	assert.False(t, em.fifo.pending(), "reporting an already-raised bit must not enqueue a second message")
}

func TestErrorResetClearsBit(t *testing.T) {
	em, _ := newTestEMCY(t, 4)
	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)
	em.fifo.dispatch()

	em.ErrorReset(EmCANTxBusOff, ErrCommunication)
	assert.False(t, em.IsError(EmCANTxBusOff))
	assert.True(t, em.fifo.pending())
}

func TestOutOfRangeBitRedirectsToWrongErrorReport(t *testing.T) {
	em, _ := newTestEMCY(t, 4)
	em.ErrorReport(200, ErrGenericError, 0)
	assert.True(t, em.IsError(EmWrongErrorReport))
}

func TestFIFOBoundedWithOverflow(t *testing.T) {
	em, _ := newTestEMCY(t, 2)

	em.ErrorReport(1, 0x1001, 0)
	em.ErrorReport(2, 0x1002, 0)
	em.ErrorReport(3, 0x1003, 0)

	assert.LessOrEqual(t, em.fifo.ring.Count(), 2)
	assert.Equal(t, overflowRaised, em.fifo.overflow)
}

func TestPredefinedErrorFieldHistorySurvivesDispatch(t *testing.T) {
	em, _ := newTestEMCY(t, 4)
	em.inhibitTimeUs = 0

	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)
	var nextUs uint32
	assert.NoError(t, em.Process(true, 1000, &nextUs))

	assert.False(t, em.fifo.pending(), "the message was dispatched, nothing left to send")
	assert.Equal(t, 1, em.fifo.ring.Count(), "dispatch must not remove the message from 0x1003 history")

	var countRead uint16
	buf := make([]byte, 1)
	assert.Equal(t, od.ErrNo, readEntry1003(&od.Stream{Object: em, Subindex: 0}, buf, &countRead))
	assert.Equal(t, byte(1), buf[0], "0x1003 sub 0 must still report the dispatched emergency")
}

func TestProcessSendsQueuedEmergencyAfterInhibit(t *testing.T) {
	em, _ := newTestEMCY(t, 4)
	em.inhibitTimeUs = 0

	var received []uint16
	em.SetCallback(func(ident, errorCode uint16, errorRegister, errorBit byte, infoCode uint32) {
		received = append(received, errorCode)
	})

	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)
	var nextUs uint32
	assert.NoError(t, em.Process(true, 1000, &nextUs))

	assert.Contains(t, received, ErrCommunication)
	assert.False(t, em.fifo.pending())
}

func TestProcessRespectsInhibitPacing(t *testing.T) {
	em, _ := newTestEMCY(t, 4)
	em.inhibitTimeUs = 1_000_000

	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)
	var nextUs uint32
	assert.NoError(t, em.Process(true, 10, &nextUs))

	assert.True(t, em.fifo.pending(), "message should still be queued before the inhibit time elapses")
	assert.Greater(t, nextUs, uint32(0))
}

func TestSetPreSignalFiresOnEnqueueOnly(t *testing.T) {
	em, _ := newTestEMCY(t, 4)

	var signalled int
	em.SetPreSignal(em, func(object any) {
		signalled++
		assert.Same(t, em, object)
	})

	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)
	assert.Equal(t, 1, signalled, "pre-signal fires once for the rising edge")

	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)
	assert.Equal(t, 1, signalled, "repeating an already-raised bit does not enqueue, so no signal")

	em.ErrorReset(EmCANTxBusOff, ErrCommunication)
	assert.Equal(t, 2, signalled, "clearing a raised bit enqueues the reset and signals again")
}

func TestErrorRegisterReflectsActiveBits(t *testing.T) {
	em, _ := newTestEMCY(t, 4)
	em.ErrorReport(EmCANTxBusOff, ErrCommunication, 0)

	var nextUs uint32
	assert.NoError(t, em.Process(true, 0, &nextUs))
	assert.Equal(t, ErrRegCommunication, em.ErrorRegister())
}
