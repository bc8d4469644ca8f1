package emergency

import (
	"encoding/binary"
	"fmt"

	"github.com/flowmach/canod/pkg/od"
)

// isIDRestricted reports whether canID falls in a CAN-ID range CiA 301
// reserves for other predefined services (NMT, SYNC, SDO, ...), grounded
// on the teacher's misc.go isIDRestricted.
func isIDRestricted(canID uint16) bool {
	switch {
	case canID <= 0x7F:
		return true
	case canID >= 0x101 && canID <= 0x180:
		return true
	case canID >= 0x581 && canID <= 0x5FF:
		return true
	case canID >= 0x601 && canID <= 0x67F:
		return true
	case canID >= 0x6E0 && canID <= 0x6FF:
		return true
	case canID >= 0x701:
		return true
	default:
		return false
	}
}

// configureCobID applies a freshly read or written COB-ID value: bit 31
// disables the producer, bits 11..30 are reserved and must be zero (this
// also rejects a 29-bit extended identifier, since bit 29 falls inside
// that reserved span), and the low 11 bits are the CAN ID.
func (em *EMCY) configureCobID(cobID uint32) error {
	if cobID&0x7FFFF800 != 0 {
		return fmt.Errorf("emergency: reserved bits set in COB-ID 0x%08X", cobID)
	}
	canID := uint16(cobID & 0x7FF)
	enabled := cobID&0x80000000 == 0
	if enabled && isIDRestricted(canID) {
		return fmt.Errorf("emergency: COB-ID 0x%03X is reserved for another service", canID)
	}
	em.producerIdent = canID
	em.producerEnabled = enabled
	return nil
}

func readEntryStatusBits(stream *od.Stream, read []byte, countRead *uint16) error {
	em := stream.Object.(*EMCY)
	em.mu.Lock()
	defer em.mu.Unlock()
	return od.ReadEntryDefault(stream, read, countRead)
}

func writeEntryStatusBits(stream *od.Stream, toWrite []byte, countWritten *uint16) error {
	em := stream.Object.(*EMCY)
	em.mu.Lock()
	defer em.mu.Unlock()
	return od.WriteEntryDefault(stream, toWrite, countWritten)
}

// readEntry1003 services OD 0x1003 (predefined error field): sub-index 0
// is the number of queued errors, sub-index k returns the k-th most
// recently queued error (1 = newest), per spec.md §4.2 P8.
func readEntry1003(stream *od.Stream, read []byte, countRead *uint16) error {
	em := stream.Object.(*EMCY)
	em.mu.Lock()
	defer em.mu.Unlock()

	if stream.Subindex == 0 {
		if len(read) < 1 {
			return od.ErrTypeMismatch
		}
		read[0] = byte(em.fifo.ring.Count())
		*countRead = 1
		return od.ErrNo
	}

	k := int(stream.Subindex) - 1
	msg, _, ok := em.fifo.ring.Peek(k)
	if !ok {
		*countRead = 0
		return od.ErrNoData
	}
	if len(read) < 4 {
		return od.ErrTypeMismatch
	}
	binary.LittleEndian.PutUint32(read, msg)
	*countRead = 4
	return od.ErrNo
}

// writeEntry1003 accepts only a write of 0 to sub-index 0, which clears
// the predefined error field (CiA 301 semantics); anything else is
// ErrInvalidValue / ErrUnsuppAccess.
func writeEntry1003(stream *od.Stream, toWrite []byte, countWritten *uint16) error {
	em := stream.Object.(*EMCY)
	em.mu.Lock()
	defer em.mu.Unlock()

	if stream.Subindex != 0 {
		*countWritten = 0
		return od.ErrUnsuppAccess
	}
	value := uint32(0)
	for i, b := range toWrite {
		value |= uint32(b) << (8 * i)
	}
	if value != 0 {
		*countWritten = uint16(len(toWrite))
		return od.ErrInvalidValue
	}
	em.fifo.clearHistory()
	*countWritten = uint16(len(toWrite))
	return od.ErrNo
}

func readEntry1014(stream *od.Stream, read []byte, countRead *uint16) error {
	em := stream.Object.(*EMCY)
	em.mu.Lock()
	defer em.mu.Unlock()

	cobID := uint32(em.producerIdent)
	if em.producerIdent == ServiceID {
		cobID = uint32(ServiceID) + uint32(em.nodeID)
	}
	if !em.producerEnabled {
		cobID |= 0x80000000
	}
	if len(read) < 4 {
		return od.ErrTypeMismatch
	}
	binary.LittleEndian.PutUint32(read, cobID)
	*countRead = 4
	return od.ErrNo
}

// writeEntry1014 validates and applies a new EMCY COB-ID, then writes
// through to the OD's backing storage so a plain read of 0x1014 sees the
// new value too, grounded on the teacher's od_extensions.go writeEntry1014.
func writeEntry1014(stream *od.Stream, toWrite []byte, countWritten *uint16) error {
	em := stream.Object.(*EMCY)
	em.mu.Lock()

	if len(toWrite) != 4 {
		em.mu.Unlock()
		*countWritten = 0
		return od.ErrTypeMismatch
	}
	cobID := binary.LittleEndian.Uint32(toWrite)
	newCanID := uint16(cobID & 0x7FF)
	nowEnabled := cobID&0x80000000 == 0

	// The CAN-ID cannot change while the producer stays enabled across the
	// write; a rewrite of the same ID, or any write while disabling or
	// re-enabling, is fine.
	if em.producerEnabled && nowEnabled && newCanID != em.producerIdent {
		em.mu.Unlock()
		*countWritten = 0
		return od.ErrInvalidValue
	}

	if err := em.configureCobID(cobID); err != nil {
		em.mu.Unlock()
		*countWritten = 0
		return od.ErrInvalidValue
	}
	em.mu.Unlock()

	return od.WriteEntryDefault(stream, toWrite, countWritten)
}

func writeEntry1015(stream *od.Stream, toWrite []byte, countWritten *uint16) error {
	em := stream.Object.(*EMCY)
	var n uint16
	err := od.WriteEntryDefault(stream, toWrite, &n)
	*countWritten = n
	if err != nil {
		return err
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	if len(toWrite) == 2 {
		em.inhibitTimeUs = uint32(binary.LittleEndian.Uint16(toWrite)) * 100
		em.inhibitTimer = 0
	}
	return od.ErrNo
}
