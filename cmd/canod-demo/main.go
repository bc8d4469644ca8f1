// Command canod-demo wires a small hand-built object dictionary and an
// emergency producer/consumer onto a loopback virtual CAN bus, then drives
// Process on a ticker while injecting a couple of fault reports. It exists
// to exercise the wiring end to end, the way the teacher's examples/
// programs exercised theirs.
package main

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flowmach/canod/pkg/candrv"
	"github.com/flowmach/canod/pkg/candrv/virtual"
	"github.com/flowmach/canod/pkg/emergency"
	"github.com/flowmach/canod/pkg/od"
)

const demoNodeID = 0x10

func buildCatalog() *od.Catalog {
	const errorFieldDepth = 8

	predefSubs := make([]*od.Sub, errorFieldDepth+1)
	predefSubs[0] = od.NewSub(0, "number of errors", od.UNSIGNED8, od.AttributeSdoRw, []byte{0})
	for i := 1; i <= errorFieldDepth; i++ {
		predefSubs[i] = od.NewSub(uint8(i), "standard error field", od.UNSIGNED32, od.AttributeSdoR, make([]byte, 4))
	}

	cobID := make([]byte, 4)
	cobID[0] = byte(emergency.ServiceID + demoNodeID)

	inhibit := make([]byte, 2)
	inhibit[0] = 10 // 1ms, in units of 100us

	entries := []*od.Entry{
		od.NewVarEntry(0x1001, "error register", od.NewSub(0, "error register", od.UNSIGNED8, od.AttributeSdoR, []byte{0}), false),
		od.NewVarEntry(0x1014, "COB-ID EMCY", od.NewSub(0, "cob id", od.UNSIGNED32, od.AttributeSdoRw, cobID), true),
		od.NewVarEntry(0x1015, "inhibit time EMCY", od.NewSub(0, "inhibit time", od.UNSIGNED16, od.AttributeSdoRw, inhibit), true),
		od.NewRecordEntry(0x1003, "predefined error field", predefSubs, true),
		od.NewVarEntry(0x2100, "manufacturer status bits", od.NewSub(0, "status bits", od.OCTET_STRING, od.AttributeSdoRw, make([]byte, emergency.EmergencyErrorStatusBits/8)), true),
	}

	cat, err := od.Build(entries)
	if err != nil {
		logrus.WithError(err).Fatal("building object dictionary")
	}
	cat.SetPersistent(0x1001, true)
	cat.SetPersistent(0x1014, true)
	cat.SetPersistent(0x1015, true)
	return cat
}

func main() {
	logger := logrus.StandardLogger()
	logger.SetLevel(logrus.DebugLevel)

	cat := buildCatalog()

	bus, err := virtual.NewVirtualBus("canod-demo")
	if err != nil {
		logger.WithError(err).Fatal("creating virtual bus")
	}
	if err := bus.Connect(); err != nil {
		logger.WithError(err).Fatal("connecting virtual bus")
	}
	defer bus.Disconnect()

	bm := candrv.NewBusManager(bus)
	if err := bus.Subscribe(bm); err != nil {
		logger.WithError(err).Fatal("subscribing bus manager")
	}

	em, err := emergency.NewEMCY(bm, cat, logger, demoNodeID, 0x1001, 0x1014, 0x1015, 0x1003, 0x2100)
	if err != nil {
		logger.WithError(err).Fatal("building emergency module")
	}
	em.SetCallback(func(ident, errorCode uint16, errorRegister, errorBit byte, infoCode uint32) {
		logger.WithFields(logrus.Fields{
			"ident":    ident,
			"code":     errorCode,
			"register": errorRegister,
			"bit":      errorBit,
			"info":     infoCode,
		}).Info("emergency observed")
	})

	em.ErrorReport(emergency.EmCANTxBusOff, emergency.ErrCommunication, 0)

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	resetAt := time.Now().Add(20 * time.Millisecond)
	resetDone := false

	deadline := time.Now().Add(100 * time.Millisecond)
	last := time.Now()
	for time.Now().Before(deadline) {
		<-ticker.C
		now := time.Now()
		elapsedUs := uint32(now.Sub(last).Microseconds())
		last = now

		var nextUs uint32
		if err := em.Process(true, elapsedUs, &nextUs); err != nil {
			logger.WithError(err).Warn("emergency process")
		}

		if !resetDone && now.After(resetAt) {
			em.ErrorReset(emergency.EmCANTxBusOff, emergency.ErrCommunication)
			resetDone = true
		}
	}
}
