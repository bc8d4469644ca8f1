// Package virtual provides an in-process candrv.Bus used by tests and the
// demo command. Buses sharing the same channel name form a broadcast bus:
// every frame sent by one is delivered to every other subscriber on that
// channel, with no real framing or network involved.
package virtual

import (
	"sync"

	"github.com/flowmach/canod/pkg/candrv"
)

func init() {
	candrv.RegisterInterface("virtual", NewVirtualBus)
	candrv.RegisterInterface("virtualcan", NewVirtualBus)
}

type broadcaster struct {
	mu      sync.Mutex
	members []*Bus
}

func (br *broadcaster) join(b *Bus) {
	br.mu.Lock()
	defer br.mu.Unlock()
	br.members = append(br.members, b)
}

func (br *broadcaster) leave(b *Bus) {
	br.mu.Lock()
	defer br.mu.Unlock()
	for i, m := range br.members {
		if m == b {
			br.members = append(br.members[:i], br.members[i+1:]...)
			return
		}
	}
}

func (br *broadcaster) publish(from *Bus, frame candrv.Frame) {
	br.mu.Lock()
	members := append([]*Bus(nil), br.members...)
	br.mu.Unlock()

	for _, m := range members {
		if m == from && !m.receiveOwn {
			continue
		}
		m.deliver(frame)
	}
}

var (
	registryMu sync.Mutex
	registry   = make(map[string]*broadcaster)
)

func channelBroadcaster(channel string) *broadcaster {
	registryMu.Lock()
	defer registryMu.Unlock()
	br, ok := registry[channel]
	if !ok {
		br = &broadcaster{}
		registry[channel] = br
	}
	return br
}

// Bus is a loopback candrv.Bus: frames sent on a channel are fanned out to
// every other Bus instance connected to the same channel name.
type Bus struct {
	channel    string
	br         *broadcaster
	mu         sync.Mutex
	connected  bool
	receiveOwn bool
	handler    candrv.FrameListener
}

func NewVirtualBus(channel string) (candrv.Bus, error) {
	return &Bus{channel: channel, br: channelBroadcaster(channel)}, nil
}

func (b *Bus) Connect(...any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		return nil
	}
	b.connected = true
	b.br.join(b)
	return nil
}

func (b *Bus) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil
	}
	b.connected = false
	b.br.leave(b)
	return nil
}

func (b *Bus) Send(frame candrv.Frame) error {
	b.br.publish(b, frame)
	return nil
}

func (b *Bus) Subscribe(handler candrv.FrameListener) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
	return nil
}

// SetReceiveOwn controls whether frames this Bus sends are also delivered
// back to its own subscriber, grounded on the teacher's receiveOwn loopback
// flag used in NMT/SYNC self-test scenarios.
func (b *Bus) SetReceiveOwn(receiveOwn bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receiveOwn = receiveOwn
}

func (b *Bus) deliver(frame candrv.Frame) {
	b.mu.Lock()
	handler := b.handler
	b.mu.Unlock()
	if handler != nil {
		handler.Handle(frame)
	}
}
