package emergency

// ServiceID is the CANopen function code for the emergency service; the
// wire COB-ID is ServiceID + nodeID for the default, unconfigured case.
const ServiceID uint16 = 0x80

// EmergencyErrorStatusBits is the number of bits in the manufacturer error
// status bitmap (spec.md §4.2: N >= 48, multiple of 8; 80 matches the
// teacher's default device profile allocation).
const EmergencyErrorStatusBits = 80

// Error register bits (CiA 301 object 0x1001).
const (
	ErrRegGeneric      byte = 0x01
	ErrRegCurrent      byte = 0x02
	ErrRegVoltage      byte = 0x04
	ErrRegTemperature  byte = 0x08
	ErrRegCommunication byte = 0x10
	ErrRegDeviceProfile byte = 0x20
	ErrRegReserved     byte = 0x40
	ErrRegManufacturer byte = 0x80
)

// Error codes (a subset of the CiA 301 emergency error codes; Process itself
// raises only the ones listed in driverErrorEdges plus ErrGenericError).
const (
	ErrNoError             uint16 = 0x0000
	ErrGenericError        uint16 = 0x1000
	ErrCurrent             uint16 = 0x2000
	ErrVoltage             uint16 = 0x3000
	ErrTemperature         uint16 = 0x4000
	ErrCommunication       uint16 = 0x8000
	ErrCANOverrun          uint16 = 0x8110
	ErrCANPassiveMode      uint16 = 0x8120
	ErrHeartbeat           uint16 = 0x8130
	ErrBusOffRecovered     uint16 = 0x8140
	ErrCANIDCollision      uint16 = 0x8150
	ErrPDOLengthExceeded   uint16 = 0x8210
	ErrPDOLengthTooShort   uint16 = 0x8220
	ErrDAMMPDONotProcessed uint16 = 0x8230
	ErrSyncDataLength      uint16 = 0x8240
	ErrRPDOTimeout         uint16 = 0x8250
	ErrDeviceSoftware      uint16 = 0x6000
	ErrSoftwareInternal    uint16 = 0x6100
)

// Error status bits, numbered exactly as the teacher's emergency.go table
// (CO_EM_*) so bit values agree across the wire with any peer built from
// the same reference.
const (
	EmNoError                      byte = 0x00
	EmCANBusWarning                byte = 0x01
	EmRxMsgWrongLength             byte = 0x02
	EmRxMsgOverflow                byte = 0x03
	EmRPDOWrongLength              byte = 0x04
	EmRPDOOverflow                 byte = 0x05
	EmCANRxBusPassive              byte = 0x06
	EmCANTxBusPassive              byte = 0x07
	EmNMTWrongCommand              byte = 0x08
	EmTimeTimeout                  byte = 0x09
	EmCANTxBusOff                  byte = 0x12
	EmCANRxBusOverflow             byte = 0x13
	EmCANTxOverflow                byte = 0x14
	EmPDOLate                      byte = 0x15
	EmRPDOTimeout                  byte = 0x17
	EmSyncTimeout                  byte = 0x18
	EmSyncLength                   byte = 0x19
	EmPDOWrongMapping              byte = 0x1A
	EmHeartbeatConsumer            byte = 0x1B
	EmHeartbeatConsumerRemoteReset byte = 0x1C
	// EmBufferFull is raised by Process when it finds the emergency FIFO's
	// overflow flag in the "raised" tri-state (moving the flag to
	// "clearing") and cleared once the backlog has fully drained.
	EmBufferFull                  byte = 0x20
	EmMicrocontrollerReset         byte = 0x22
	EmNonVolatileAutoSave          byte = 0x27
	EmWrongErrorReport             byte = 0x28
	EmISRTimerOverflow             byte = 0x29
	EmMemoryAllocationError        byte = 0x2A
	EmGenericError                 byte = 0x2B
	EmGenericSoftwareError         byte = 0x2C
	EmInconsistentObjectDict       byte = 0x2D
	EmCalculationOfParameters      byte = 0x2E
	EmNonVolatileMemory            byte = 0x2F
	EmManufacturerStart            byte = 0x30
	EmManufacturerEnd              byte = EmergencyErrorStatusBits - 1
)
