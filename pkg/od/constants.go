package od

// CiA 301 data types, as used in EDS files and the object dictionary.
const (
	BOOLEAN         uint8 = 0x01
	INTEGER8        uint8 = 0x02
	INTEGER16       uint8 = 0x03
	INTEGER32       uint8 = 0x04
	UNSIGNED8       uint8 = 0x05
	UNSIGNED16      uint8 = 0x06
	UNSIGNED32      uint8 = 0x07
	REAL32          uint8 = 0x08
	VISIBLE_STRING  uint8 = 0x09
	OCTET_STRING    uint8 = 0x0A
	UNICODE_STRING  uint8 = 0x0B
	TIME_OF_DAY     uint8 = 0x0C
	TIME_DIFFERENCE uint8 = 0x0D
	DOMAIN          uint8 = 0x0F
	INTEGER24       uint8 = 0x10
	REAL64          uint8 = 0x11
	INTEGER40       uint8 = 0x12
	INTEGER48       uint8 = 0x13
	INTEGER56       uint8 = 0x14
	INTEGER64       uint8 = 0x15
	UNSIGNED24      uint8 = 0x16
	UNSIGNED40      uint8 = 0x18
	UNSIGNED48      uint8 = 0x19
	UNSIGNED56      uint8 = 0x1A
	UNSIGNED64      uint8 = 0x1B
)

// Attribute bitmask: SDO/PDO accessibility of a sub-entry.
const (
	AttributeSdoR    uint8 = 0x01
	AttributeSdoW    uint8 = 0x02
	AttributeSdoRw   uint8 = AttributeSdoR | AttributeSdoW
	AttributeTpdo    uint8 = 0x04
	AttributeRpdo    uint8 = 0x08
	AttributeTrpdo   uint8 = AttributeTpdo | AttributeRpdo
	AttributeTsrdo   uint8 = 0x10
	AttributeRsrdo   uint8 = 0x20
	AttributeTrsrdo  uint8 = AttributeTsrdo | AttributeRsrdo
	AttributeMb      uint8 = 0x40 // multi-byte (endianness matters on the wire)
	AttributeStr     uint8 = 0x80 // string-like, length can be shorter than DataLength
)

// FlagsPDOSize is the byte width of a per-entry PDO-mapping flag vector
// (256 bits, one per node in the worst case fan-out the teacher budgets for).
const FlagsPDOSize = 32

// EntryKind tags the three shapes of object dictionary entries.
type EntryKind uint8

const (
	KindVar EntryKind = iota
	KindArray
	KindRecord
)

// Standard communication-profile entry indices relevant to the emergency
// subsystem (CiA 301 §7.5, CiA 301 Table 70/71/72).
const (
	EntryErrorRegister   uint16 = 0x1001
	EntryPredefinedError uint16 = 0x1003
	EntryCobIdEMCY       uint16 = 0x1014
	EntryInhibitTimeEMCY uint16 = 0x1015
)
