package core

import (
	"testing"
	"time"

	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/radio"
	"github.com/loralayer2/ll2/radio/radiotest"
	"github.com/loralayer2/ll2/state"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	*Router
	drv   *radiotest.Driver
	clock *radiotest.Clock
}

func testParams() radio.Params {
	p := radio.DefaultParams()
	p.SpreadingFactor = 7
	return p
}

func newTestNode(t *testing.T, addr string, opts ...func(*state.NodeCfg)) *testNode {
	t.Helper()
	cfg := state.NodeCfg{Name: "n" + addr, Address: protocol.MustParseAddress(addr)}
	for _, o := range opts {
		o(&cfg)
	}
	drv := radiotest.NewDriver()
	clock := radiotest.NewClock(time.Second)
	l1 := radio.NewLayer1(drv, testParams(), clock, 0, nil)
	r, err := NewRouter(cfg, nil, l1, nil)
	require.NoError(t, err)
	require.NoError(t, r.Init())
	return &testNode{Router: r, drv: drv, clock: clock}
}

func reactive(cfg *state.NodeCfg) {
	var zero time.Duration
	cfg.Interval = &zero
}

func addr(s string) protocol.Address {
	return protocol.MustParseAddress(s)
}

// hear feeds p to the node as if the radio had just received it.
func (n *testNode) hear(t *testing.T, p protocol.Packet) (bool, error) {
	t.Helper()
	frame, err := p.MarshalBinary()
	require.NoError(t, err)
	n.lora1.RxBuffer.Write(frame)
	return n.receive(n.clock.Now())
}

// queued drains the transmit queue without going through the radio.
func (n *testNode) queued(t *testing.T) []protocol.Packet {
	t.Helper()
	out := make([]protocol.Packet, 0)
	for {
		frame := n.lora1.TxBuffer.Read()
		if len(frame) == 0 {
			return out
		}
		p, err := protocol.UnmarshalPacket(frame)
		require.NoError(t, err)
		out = append(out, p)
	}
}

// step advances the clock and runs the daemon once.
func (n *testNode) step(t *testing.T, d time.Duration) Tick {
	t.Helper()
	n.clock.Advance(d)
	tick, err := n.Daemon()
	require.NoError(t, err)
	return tick
}

// deliver moves every frame n put on air into the receive path of each peer.
func (n *testNode) deliver(peers ...*testNode) int {
	frames := n.drv.Sent()
	for _, f := range frames {
		for _, p := range peers {
			p.drv.Inject(f)
		}
	}
	if len(frames) > 0 {
		n.drv.CompleteTransmit()
	}
	return len(frames)
}

func datagramPacket(from, to, receiver protocol.Address, seq uint8, msg string) protocol.Packet {
	d := protocol.Datagram{Destination: to, Type: 'c', Message: []byte(msg)}
	data, _ := d.MarshalBinary()
	return protocol.Packet{
		TTL:         protocol.DefaultTTL,
		TotalLength: protocol.HeaderLength + len(data),
		Sender:      from,
		Receiver:    receiver,
		Sequence:    seq,
		Source:      from,
		Data:        data,
	}
}

func advertPacket(from protocol.Address, seq uint8, records ...protocol.RouteRecord) protocol.Packet {
	data := make([]byte, 0)
	for _, rec := range records {
		data = rec.AppendBinary(data)
	}
	return protocol.Packet{
		TTL:         1,
		TotalLength: protocol.HeaderLength + len(data),
		Sender:      from,
		Receiver:    protocol.Routing,
		Sequence:    seq,
		Source:      from,
		Data:        data,
	}
}
