package od

import "fmt"

// ODR is the object dictionary result code returned by every access-layer
// operation. The zero value, ErrNo, means success.
type ODR int8

const (
	ErrPartial ODR = -1
	ErrNo      ODR = 0

	ErrOutOfMem     ODR = 1
	ErrUnsuppAccess ODR = 2
	ErrWriteOnly    ODR = 3
	ErrReadonly     ODR = 4
	ErrIdxNotExist  ODR = 5
	ErrNoMap        ODR = 6
	ErrMapLen       ODR = 7
	ErrParIncompat  ODR = 8
	ErrDevIncompat  ODR = 9
	ErrHw           ODR = 10
	ErrTypeMismatch ODR = 11
	ErrDataLong     ODR = 12
	ErrDataShort    ODR = 13
	ErrSubNotExist  ODR = 14
	ErrInvalidValue ODR = 15
	ErrValueHigh    ODR = 16
	ErrValueLow     ODR = 17
	ErrMaxLessMin   ODR = 18
	ErrNoRessource  ODR = 19
	ErrGeneral      ODR = 20
	ErrDataTransf   ODR = 21
	ErrDataLocCtrl  ODR = 22
	ErrDataDevState ODR = 23
	ErrOdMissing    ODR = 24
	ErrNoData       ODR = 25
	ErrCount        ODR = 26
)

var errorDescriptionMap = map[ODR]string{
	ErrPartial:      "segmented transfer incomplete, more data follows",
	ErrNo:           "no error",
	ErrOutOfMem:     "out of memory",
	ErrUnsuppAccess: "unsupported access to an object",
	ErrWriteOnly:    "attempt to read a write only object",
	ErrReadonly:     "attempt to write a read only object",
	ErrIdxNotExist:  "object does not exist in the object dictionary",
	ErrNoMap:        "object cannot be mapped to the PDO",
	ErrMapLen:       "number and length of mapped objects exceeds PDO length",
	ErrParIncompat:  "general parameter incompatibility reason",
	ErrDevIncompat:  "general internal incompatibility in the device",
	ErrHw:           "access failed due to a hardware error",
	ErrTypeMismatch: "data type does not match, length of service parameter does not match",
	ErrDataLong:     "data type does not match, length of service parameter too high",
	ErrDataShort:    "data type does not match, length of service parameter too low",
	ErrSubNotExist:  "sub-index does not exist",
	ErrInvalidValue: "invalid value for parameter",
	ErrValueHigh:    "value of parameter written too high",
	ErrValueLow:     "value of parameter written too low",
	ErrMaxLessMin:   "maximum value is less than minimum value",
	ErrNoRessource:  "resource not available: SDO connection",
	ErrGeneral:      "general error",
	ErrDataTransf:   "data cannot be transferred or stored to the application",
	ErrDataLocCtrl:  "data cannot be transferred because of local control",
	ErrDataDevState: "data cannot be transferred because of the present device state",
	ErrOdMissing:    "object dictionary dynamic generation fails or no object dictionary present",
	ErrNoData:       "no data available",
}

func (odr ODR) Error() string {
	if s, ok := errorDescriptionMap[odr]; ok {
		return s
	}
	return fmt.Sprintf("od: unknown result code %d", int8(odr))
}

// sdoAbortCode returns the CiA 301 SDO abort code for an ODR value, per the
// fixed mapping table. ErrDataDevState and ErrOdMissing both sit near the
// standard's "state" abort code; this mirrors that ambiguity rather than
// picking one, since the standard itself does not disambiguate them.
var sdoAbortCode = map[ODR]uint32{
	ErrOutOfMem:     0x05040005,
	ErrUnsuppAccess: 0x06010000,
	ErrWriteOnly:    0x06010001,
	ErrReadonly:     0x06010002,
	ErrIdxNotExist:  0x06020000,
	ErrNoMap:        0x06040041,
	ErrMapLen:       0x06040042,
	ErrParIncompat:  0x06040043,
	ErrDevIncompat:  0x06040047,
	ErrHw:           0x06060000,
	ErrTypeMismatch: 0x06070010,
	ErrDataLong:     0x06070012,
	ErrDataShort:    0x06070013,
	ErrSubNotExist:  0x06090011,
	ErrInvalidValue: 0x06090030,
	ErrValueHigh:    0x06090031,
	ErrValueLow:     0x06090032,
	ErrMaxLessMin:   0x06090036,
	ErrNoRessource:  0x060A0023,
	ErrGeneral:      0x08000000,
	ErrDataTransf:   0x08000020,
	ErrDataLocCtrl:  0x08000021,
	ErrDataDevState: 0x08000022,
	ErrOdMissing:    0x08000023,
	ErrNoData:       0x08000024,
}

// SDOAbortCode returns the CiA 301 abort code for a given ODR, and false if
// the code has no abort-code mapping (e.g. ErrNo, ErrPartial).
func SDOAbortCode(odr ODR) (uint32, bool) {
	code, ok := sdoAbortCode[odr]
	return code, ok
}
