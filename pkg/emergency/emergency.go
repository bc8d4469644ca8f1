// Package emergency implements the CANopen emergency (EMCY) producer and
// consumer: an application reports fault conditions via Error/ErrorReport/
// ErrorReset, the producer paces them onto the bus respecting an inhibit
// time, and a consumer callback receives both the node's own emergencies
// and those heard from peers.
package emergency

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/flowmach/canod/pkg/candrv"
	"github.com/flowmach/canod/pkg/od"
)

// EMCYRxCallback receives every emergency the consumer observes: ident==0
// marks the node's own emergency, delivered locally when Process dispatches
// it from the FIFO, regardless of whether the frame is actually put on the
// bus.
type EMCYRxCallback func(ident uint16, errorCode uint16, errorRegister byte, errorBit byte, infoCode uint32)

// EMCY is one node's emergency producer/consumer state.
type EMCY struct {
	bm     *candrv.BusManager
	logger *logrus.Logger

	mu               sync.Mutex
	nodeID           uint8
	errorStatusBits  []byte
	errorRegisterSub *od.Sub
	canErrorOld      uint16
	fifo             *emFifo

	producerEnabled bool
	producerIdent   uint16
	inhibitTimeUs   uint32
	inhibitTimer    uint32

	rxCallback EMCYRxCallback
	cancelSub  func()

	preSignalObject any
	preSignal       func(object any)
}

// NewEMCYForLogging builds an EMCY with no bus and no object dictionary,
// for host-side tooling that only wants to record/replay error reports
// (e.g. log analysis) without driving real CAN traffic.
func NewEMCYForLogging(logger *logrus.Logger) *EMCY {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EMCY{
		logger:          logger,
		errorStatusBits: make([]byte, EmergencyErrorStatusBits/8),
		fifo:            newEMFifo(8),
	}
}

// NewEMCY builds a fully wired EMCY: it borrows the error register byte
// from the object dictionary, sizes the FIFO from the predefined error
// field's array length, installs the four emergency OD extensions, and
// subscribes to incoming EMCY traffic on the bus.
//
// idxErrorRegister, idxCobID, idxInhibitTime, idxPredefinedError and
// idxStatusBits name the catalog entries for OD 0x1001, 0x1014, 0x1015,
// 0x1003 and the manufacturer status-bits entry respectively.
func NewEMCY(bm *candrv.BusManager, cat *od.Catalog, logger *logrus.Logger, nodeID uint8,
	idxErrorRegister, idxCobID, idxInhibitTime, idxPredefinedError, idxStatusBits uint16) (*EMCY, error) {

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	errRegEntry, ok := cat.Find(idxErrorRegister)
	if !ok {
		return nil, fmt.Errorf("emergency: error register entry 0x%04X not found", idxErrorRegister)
	}
	errRegSub, odr := errRegEntry.GetSub(0)
	if odr != od.ErrNo {
		return nil, fmt.Errorf("emergency: error register sub 0 not found: %w", odr)
	}

	predefEntry, ok := cat.Find(idxPredefinedError)
	if !ok {
		return nil, fmt.Errorf("emergency: predefined error field entry 0x%04X not found", idxPredefinedError)
	}
	capacity := predefEntry.SubCount() - 1
	if capacity < 1 {
		capacity = 1
	}

	statusEntry, ok := cat.Find(idxStatusBits)
	if !ok {
		return nil, fmt.Errorf("emergency: status bits entry 0x%04X not found", idxStatusBits)
	}
	statusSub, odr := statusEntry.GetSub(0)
	if odr != od.ErrNo {
		return nil, fmt.Errorf("emergency: status bits sub 0 not found: %w", odr)
	}

	em := &EMCY{
		bm:               bm,
		logger:           logger,
		nodeID:           nodeID,
		errorStatusBits:  statusSub.RawBytes(),
		errorRegisterSub: errRegSub,
		fifo:             newEMFifo(capacity),
		producerIdent:    ServiceID + uint16(nodeID),
		producerEnabled:  true,
	}

	cobEntry, ok := cat.Find(idxCobID)
	if !ok {
		return nil, fmt.Errorf("emergency: COB-ID entry 0x%04X not found", idxCobID)
	}
	cobID, odr := od.GetUint32(cat, idxCobID, 0)
	if odr != od.ErrNo {
		return nil, fmt.Errorf("emergency: reading COB-ID: %w", odr)
	}
	if err := em.configureCobID(cobID); err != nil {
		return nil, err
	}

	inhibit, odr := od.GetUint16(cat, idxInhibitTime, 0)
	if odr != od.ErrNo {
		return nil, fmt.Errorf("emergency: reading inhibit time: %w", odr)
	}
	em.inhibitTimeUs = uint32(inhibit) * 100

	if odr := od.InstallExtension(cat, cobEntry, 0, em, readEntry1014, writeEntry1014); odr != od.ErrNo {
		return nil, fmt.Errorf("emergency: installing 0x%04X extension: %w", idxCobID, odr)
	}
	inhibitEntry, _ := cat.Find(idxInhibitTime)
	if odr := od.InstallExtension(cat, inhibitEntry, 0, em, od.ReadEntryDefault, writeEntry1015); odr != od.ErrNo {
		return nil, fmt.Errorf("emergency: installing 0x%04X extension: %w", idxInhibitTime, odr)
	}
	for sub := uint8(0); sub < uint8(predefEntry.SubCount()); sub++ {
		if odr := od.InstallExtension(cat, predefEntry, sub, em, readEntry1003, writeEntry1003); odr != od.ErrNo {
			return nil, fmt.Errorf("emergency: installing 0x%04X:%d extension: %w", idxPredefinedError, sub, odr)
		}
	}
	if odr := od.InstallExtension(cat, statusEntry, 0, em, readEntryStatusBits, writeEntryStatusBits); odr != od.ErrNo {
		return nil, fmt.Errorf("emergency: installing status bits extension: %w", odr)
	}

	// The bus manager dispatches by exact CAN-ID only, so subscribe to every
	// emergency COB-ID (ServiceID+1 .. ServiceID+0x7F) individually.
	var cancels []func()
	for id := uint32(ServiceID) + 1; id <= uint32(ServiceID)+0x7F; id++ {
		cancel, err := bm.Subscribe(id, 0x7FF, false, em)
		if err != nil {
			for _, c := range cancels {
				c()
			}
			return nil, fmt.Errorf("emergency: subscribing: %w", err)
		}
		cancels = append(cancels, cancel)
	}
	em.cancelSub = func() {
		for _, c := range cancels {
			c()
		}
	}

	return em, nil
}

// Handle implements candrv.FrameListener: it is the consumer path for
// emergency frames heard from other nodes.
func (em *EMCY) Handle(frame candrv.Frame) {
	if frame.ID == uint32(ServiceID) || frame.DLC != 8 {
		return
	}
	errorCode := uint16(frame.Data[0]) | uint16(frame.Data[1])<<8
	errorRegister := frame.Data[2]
	errorBit := frame.Data[3]
	infoCode := uint32(frame.Data[4]) | uint32(frame.Data[5])<<8 | uint32(frame.Data[6])<<16 | uint32(frame.Data[7])<<24

	em.mu.Lock()
	cb := em.rxCallback
	em.mu.Unlock()
	if cb != nil {
		cb(uint16(frame.ID), errorCode, errorRegister, errorBit, infoCode)
	}
}

// SetCallback installs the consumer callback invoked for every emergency,
// own or peer.
func (em *EMCY) SetCallback(cb EMCYRxCallback) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.rxCallback = cb
}

// SetPreSignal registers a "work pending" signal invoked after Error
// enqueues a new emergency message, so a cooperative scheduler can wake the
// task that calls Process instead of waiting for the next poll tick.
func (em *EMCY) SetPreSignal(object any, fn func(object any)) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.preSignalObject = object
	em.preSignal = fn
}

// driverErrorEdges pairs a candrv error-status bit with the error status
// bit/code this module reports when that condition changes.
var driverErrorEdges = []struct {
	canMask   uint16
	statusBit byte
	errorCode uint16
}{
	{candrv.ErrorTxWarning | candrv.ErrorRxWarning, EmCANBusWarning, ErrNoError},
	{candrv.ErrorTxPassive, EmCANTxBusPassive, ErrCANPassiveMode},
	{candrv.ErrorTxBusOff, EmCANTxBusOff, ErrBusOffRecovered},
	{candrv.ErrorTxOverflow, EmCANTxOverflow, ErrCANOverrun},
	{candrv.ErrorPdoLate, EmPDOLate, ErrCommunication},
	{candrv.ErrorRxPassive, EmCANRxBusPassive, ErrCANPassiveMode},
	{candrv.ErrorRxOverflow, EmCANRxBusOverflow, ErrCANOverrun},
}

// Process advances the producer: it raises/clears edge-triggered driver
// errors, recomputes the error register, and (if a message is pending and
// the inhibit timer allows) sends one emergency frame. timerNextUs is
// updated with a recommendation for when Process should next be called.
func (em *EMCY) Process(nmtIsPreOrOperational bool, timeDifferenceUs uint32, timerNextUs *uint32) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.bm != nil {
		canErr := em.bm.Error()
		diff := canErr ^ em.canErrorOld
		for _, edge := range driverErrorEdges {
			if diff&edge.canMask == 0 {
				continue
			}
			set := canErr&edge.canMask != 0
			em.errorLocked(set, edge.statusBit, edge.errorCode, 0)
		}
		em.canErrorOld = canErr
	}

	// Categorize active status bits the way the teacher's table comments
	// group them (0x00..0x1F communication, 0x20..0x2F generic, 0x30+
	// manufacturer) instead of folding every active bit into "generic".
	var register byte
	for bit := byte(0); bit < EmergencyErrorStatusBits; bit++ {
		idx, mask := bit/8, byte(1)<<(bit%8)
		if int(idx) >= len(em.errorStatusBits) || em.errorStatusBits[idx]&mask == 0 {
			continue
		}
		switch {
		case bit < 0x20:
			register |= ErrRegCommunication
		case bit < 0x30:
			register |= ErrRegGeneric
		default:
			register |= ErrRegManufacturer
		}
	}
	if em.errorRegisterSub != nil {
		em.errorRegisterSub.SetLocked([]byte{register})
	}

	em.inhibitTimer += timeDifferenceUs

	if em.fifo.pending() && em.producerEnabled && em.inhibitTimer >= em.inhibitTimeUs {
		msg, info, ok := em.fifo.dispatch()
		if ok {
			errorCode := uint16(msg)
			errorBit := byte(msg >> 24)
			frame := candrv.NewFrame(uint32(em.producerIdent), 0, 8)
			frame.Data[0] = byte(errorCode)
			frame.Data[1] = byte(errorCode >> 8)
			frame.Data[2] = register
			frame.Data[3] = errorBit
			frame.Data[4] = byte(info)
			frame.Data[5] = byte(info >> 8)
			frame.Data[6] = byte(info >> 16)
			frame.Data[7] = byte(info >> 24)

			if nmtIsPreOrOperational && em.bm != nil {
				if err := em.bm.Send(frame); err != nil {
					em.logger.WithError(err).Warn("emergency: failed to send EMCY frame")
				}
			}
			if cb := em.rxCallback; cb != nil {
				cb(0, errorCode, register, errorBit, info)
			}
			em.inhibitTimer = 0
		}
	}

	// Emergency buffer full is raised the Process cycle after the FIFO first
	// drops a record, and cleared only once the backlog has fully drained
	// (spec.md §4.2 step 3); this runs every cycle, independent of whether a
	// message was sent above. "Drained" means the dispatch cursor has caught
	// up with the write cursor, not that history was cleared via OD 0x1003.
	switch em.fifo.overflow {
	case overflowRaised:
		em.fifo.overflow = overflowClearing
		em.errorLocked(true, EmBufferFull, ErrGenericError, 0)
	case overflowClearing:
		if !em.fifo.pending() {
			em.fifo.overflow = overflowNone
			em.errorLocked(false, EmBufferFull, ErrNoError, 0)
		}
	}

	if timerNextUs != nil {
		if em.inhibitTimer < em.inhibitTimeUs {
			*timerNextUs = em.inhibitTimeUs - em.inhibitTimer
		} else {
			*timerNextUs = 0
		}
	}
	return nil
}

// Error reports or clears errorBit, enqueuing a new emergency message only
// when the bit actually changes state (idempotent reporting). If the report
// enqueues a message, the registered pre-signal (SetPreSignal) is invoked
// after the emergency lock is released.
func (em *EMCY) Error(setError bool, errorBit byte, errorCode uint16, infoCode uint32) {
	em.mu.Lock()
	enqueued := em.errorLocked(setError, errorBit, errorCode, infoCode)
	signal, obj := em.preSignal, em.preSignalObject
	em.mu.Unlock()

	if enqueued && signal != nil {
		signal(obj)
	}
}

// errorLocked must be called with em.mu held. It returns true if a new
// emergency message was enqueued.
func (em *EMCY) errorLocked(setError bool, errorBit byte, errorCode uint16, infoCode uint32) bool {
	idx, mask := int(errorBit)/8, byte(1)<<(errorBit%8)
	if idx >= len(em.errorStatusBits) {
		infoCode = uint32(errorBit)
		errorBit = EmWrongErrorReport
		errorCode = ErrSoftwareInternal
		idx, mask = int(errorBit)/8, byte(1)<<(errorBit%8)
	}

	current := em.errorStatusBits[idx]&mask != 0
	if current == setError {
		return false
	}

	if setError {
		em.errorStatusBits[idx] |= mask
	} else {
		em.errorStatusBits[idx] &^= mask
	}

	msg := uint32(errorBit)<<24 | uint32(errorCode)
	em.fifo.push(msg, infoCode)
	return true
}

// ErrorReport is shorthand for Error(true, ...).
func (em *EMCY) ErrorReport(errorBit byte, errorCode uint16, infoCode uint32) {
	em.logger.WithFields(logrus.Fields{"bit": errorBit, "code": errorCode}).Debug("emergency: error reported")
	em.Error(true, errorBit, errorCode, infoCode)
}

// ErrorReset is shorthand for Error(false, ...).
func (em *EMCY) ErrorReset(errorBit byte, errorCode uint16) {
	em.logger.WithFields(logrus.Fields{"bit": errorBit, "code": errorCode}).Debug("emergency: error reset")
	em.Error(false, errorBit, errorCode, 0)
}

// IsError reports whether errorBit is currently raised.
func (em *EMCY) IsError(errorBit byte) bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	idx, mask := int(errorBit)/8, byte(1)<<(errorBit%8)
	if idx >= len(em.errorStatusBits) {
		return false
	}
	return em.errorStatusBits[idx]&mask != 0
}

// ErrorRegister returns the current value of OD 0x1001.
func (em *EMCY) ErrorRegister() byte {
	if em.errorRegisterSub == nil {
		return 0
	}
	b := em.errorRegisterSub.GetLocked()
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// ProducerEnabled reports whether the EMCY producer is currently enabled
// (COB-ID bit 31 clear).
func (em *EMCY) ProducerEnabled() bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.producerEnabled
}
