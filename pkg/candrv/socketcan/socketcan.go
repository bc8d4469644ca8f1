// Package socketcan wraps github.com/brutella/can to provide a candrv.Bus
// backed by a real Linux SocketCAN interface.
package socketcan

import (
	sockcan "github.com/brutella/can"

	"github.com/flowmach/canod/pkg/candrv"
)

func init() {
	candrv.RegisterInterface("socketcan", NewSocketCanBus)
}

type Bus struct {
	bus        *sockcan.Bus
	rxCallback candrv.FrameListener
}

func NewSocketCanBus(name string) (candrv.Bus, error) {
	bus, err := sockcan.NewBusForInterfaceWithName(name)
	if err != nil {
		return nil, err
	}
	return &Bus{bus: bus}, nil
}

func (b *Bus) Connect(...any) error {
	go b.bus.ConnectAndPublish()
	return nil
}

func (b *Bus) Disconnect() error {
	return b.bus.Disconnect()
}

func (b *Bus) Send(frame candrv.Frame) error {
	return b.bus.Publish(sockcan.Frame{
		ID:     frame.ID,
		Length: frame.DLC,
		Flags:  frame.Flags,
		Data:   frame.Data,
	})
}

func (b *Bus) Subscribe(rxCallback candrv.FrameListener) error {
	b.rxCallback = rxCallback
	b.bus.Subscribe(b)
	return nil
}

// Handle satisfies brutella/can's own Handle-based subscriber contract; it
// translates into a candrv.Frame and forwards to the registered listener.
func (b *Bus) Handle(frame sockcan.Frame) {
	b.rxCallback.Handle(candrv.Frame{ID: frame.ID, DLC: frame.Length, Flags: frame.Flags, Data: frame.Data})
}
