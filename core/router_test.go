package core

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketLoss(t *testing.T) {
	tests := []struct {
		name        string
		entry       NeighborEntry
		seq         uint8
		loss        uint8
		wantSuccess uint8
	}{
		{"first contact", NeighborEntry{reset: true, LastSequence: 40}, 90, 0, 255},
		{"same sequence resets", NeighborEntry{LastSequence: 10, Success: 100}, 10, 0, 255},
		{"next sequence", NeighborEntry{LastSequence: 10, Success: 100}, 11, 0, 100},
		{"gap of five", NeighborEntry{LastSequence: 10, Success: 100}, 15, 80, 100},
		{"wraps around", NeighborEntry{LastSequence: 250, Success: 100}, 2, 128, 100},
		{"gap of sixteen", NeighborEntry{LastSequence: 10, Success: 100}, 26, 255, 100},
		{"old sequence", NeighborEntry{LastSequence: 10, Success: 100}, 9, 255, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.entry
			assert.Equal(t, tt.loss, packetLoss(&e, tt.seq))
			assert.Equal(t, tt.wantSuccess, e.Success)
			assert.False(t, e.reset)
		})
	}
}

func TestNeighbourQuality(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	a := addr("00000001")

	expect := func(seq, metric uint8) {
		t.Helper()
		_, err := b.hear(t, advertPacket(a, seq))
		require.NoError(t, err)
		n, ok := b.Neighbor(a)
		require.True(t, ok)
		assert.Equal(t, metric, n.Metric)
		assert.Equal(t, seq, n.LastSequence)
		r, ok := b.Route(a)
		require.True(t, ok)
		assert.Equal(t, RouteEntry{Destination: a, NextHop: a, Distance: 1, LastSequence: seq, Metric: metric}, r)
	}
	expect(0, 255)
	expect(1, 255)
	expect(6, 175)
	// success saturates instead of wrapping
	expect(22, 0)
	expect(23, 0)
	assert.Equal(t, 1, b.NeighborCount())
	assert.Equal(t, 1, b.RouteCount())
}

func TestNeighbourWeight(t *testing.T) {
	b := newTestNode(t, "00000002", reactive, func(cfg *state.NodeCfg) { cfg.Weight = 0.5 })
	_, err := b.hear(t, advertPacket(addr("00000001"), 0))
	require.NoError(t, err)
	n, _ := b.Neighbor(addr("00000001"))
	assert.Equal(t, uint8(127), n.Metric)
}

func TestRouteTieBreak(t *testing.T) {
	local := addr("00000001")
	d, x, y := addr("00000009"), addr("0000000a"), addr("0000000b")

	var rt RouteTable
	idx, err := rt.check(local, RouteEntry{Destination: d, NextHop: x, Distance: 2, Metric: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	rt.update(RouteEntry{Destination: d, NextHop: x, Distance: 2, Metric: 100}, idx)

	// distance dominates metric
	idx, err = rt.check(local, RouteEntry{Destination: d, NextHop: y, Distance: 3, Metric: 255})
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	// equal metric at equal distance keeps the existing route
	idx, _ = rt.check(local, RouteEntry{Destination: d, NextHop: y, Distance: 2, Metric: 100})
	assert.Equal(t, -1, idx)

	// larger metric at equal distance wins
	idx, _ = rt.check(local, RouteEntry{Destination: d, NextHop: y, Distance: 2, Metric: 150})
	assert.Equal(t, 0, idx)
	rt.update(RouteEntry{Destination: d, NextHop: y, Distance: 2, Metric: 150}, idx)

	// the current next hop may always refresh its route, even when worse
	idx, _ = rt.check(local, RouteEntry{Destination: d, NextHop: y, Distance: 5, Metric: 1})
	assert.Equal(t, 0, idx)

	// shorter distance wins regardless of metric
	idx, _ = rt.check(local, RouteEntry{Destination: d, NextHop: x, Distance: 1, Metric: 0})
	assert.Equal(t, 0, idx)

	got, ok := rt.Get(d)
	require.True(t, ok)
	assert.Equal(t, y, got.NextHop)
	assert.Equal(t, 1, rt.Len())
}

func TestCheckRouteLocal(t *testing.T) {
	local := addr("00000001")
	var rt RouteTable
	idx, err := rt.check(local, RouteEntry{Destination: local, NextHop: addr("00000002"), Distance: 1})
	assert.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestRouteTableFull(t *testing.T) {
	local := addr("00000001")
	var rt RouteTable
	for i := 0; i < state.TableCapacity; i++ {
		dst := protocol.Address{0x0a, 0, byte(i >> 8), byte(i)}
		idx, err := rt.check(local, RouteEntry{Destination: dst, NextHop: dst, Distance: 1})
		require.NoError(t, err)
		require.Equal(t, i, idx)
		rt.update(RouteEntry{Destination: dst, NextHop: dst, Distance: 1}, idx)
	}
	assert.Equal(t, state.TableCapacity, rt.Len())

	_, err := rt.check(local, RouteEntry{Destination: addr("0b000000"), Distance: 1})
	assert.ErrorIs(t, err, ErrTableFull)

	// known destinations still update
	dst := protocol.Address{0x0a, 0, 0, 7}
	idx, err := rt.check(local, RouteEntry{Destination: dst, NextHop: dst, Distance: 1, Metric: 9})
	require.NoError(t, err)
	assert.Equal(t, 7, idx)
}

func TestRouterTableFull(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	for i := 0; i < state.TableCapacity; i++ {
		b.routes.update(RouteEntry{Destination: protocol.Address{0x0a, 0, 0, byte(i)}, Distance: 1}, i)
	}
	_, err := b.hear(t, advertPacket(addr("00000001"), 0))
	assert.ErrorIs(t, err, ErrTableFull)
	// the neighbour is still tracked
	assert.Equal(t, 1, b.NeighborCount())
}

func TestLearnFromDataPacket(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	a, c, d, s := addr("00000001"), addr("00000003"), addr("00000004"), addr("00000005")

	p := datagramPacket(a, d, c, 0, "relayed")
	p.Source = s
	p.HopCount = 2
	p.Metric = 100
	delivered, err := b.hear(t, p)
	require.NoError(t, err)
	assert.False(t, delivered)

	want := []RouteEntry{
		{Destination: a, NextHop: a, Distance: 1, Metric: 255},
		{Destination: c, NextHop: a, Distance: 2, Metric: 0},
		{Destination: s, NextHop: a, Distance: 3, Metric: 151},
		{Destination: d, NextHop: a, Distance: state.Unreachable, Metric: 0},
	}
	assert.Empty(t, cmp.Diff(want, b.Routes(), cmpopts.IgnoreFields(RouteEntry{}, "LastSequence")))
	assert.Empty(t, b.queued(t))
}

func TestAdvertisementRoundTrip(t *testing.T) {
	a := newTestNode(t, "00000001", reactive)
	b := newTestNode(t, "000000b0", reactive)
	via := addr("0000000a")
	for i := 1; i <= 5; i++ {
		require.NoError(t, a.upsertRoute(RouteEntry{
			Destination: protocol.Address{0, 0, 0, byte(0x10 + i)},
			NextHop:     via,
			Distance:    uint8(i),
			Metric:      200,
		}))
	}

	p := a.buildRoutingPacket(a.clock.Now())
	assert.Equal(t, protocol.Routing, p.Receiver)
	assert.Equal(t, uint8(1), p.TTL)
	assert.Zero(t, p.HopCount)
	assert.Equal(t, a.LocalAddress(), p.Source)
	assert.Equal(t, protocol.HeaderLength+5*protocol.RecordLength, p.TotalLength)

	_, err := b.hear(t, p)
	require.NoError(t, err)
	assert.Equal(t, 6, b.RouteCount())

	metrics := []uint8{227, 218, 213, 211, 209}
	for i := 1; i <= 5; i++ {
		r, ok := b.Route(protocol.Address{0, 0, 0, byte(0x10 + i)})
		require.True(t, ok)
		assert.Equal(t, uint8(i+1), r.Distance)
		assert.Equal(t, a.LocalAddress(), r.NextHop)
		assert.Equal(t, metrics[i-1], r.Metric)
	}
	// advertisements are neither delivered nor relayed
	_, ok := b.ReadData()
	assert.False(t, ok)
	assert.Empty(t, b.queued(t))
}

func TestAdvertisementRotation(t *testing.T) {
	a := newTestNode(t, "00000001", reactive)
	for i := 0; i < 30; i++ {
		dst := protocol.Address{0x0a, 0, 0, byte(i)}
		require.NoError(t, a.upsertRoute(RouteEntry{Destination: dst, NextHop: dst, Distance: 1}))
	}
	dests := func(p protocol.Packet) []byte {
		recs, err := protocol.ParseRecords(p.Data)
		require.NoError(t, err)
		out := make([]byte, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.Destination[3])
		}
		return out
	}
	seq := func(from, n int) []byte {
		out := make([]byte, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, byte((from+i)%30))
		}
		return out
	}

	first := a.buildRoutingPacket(a.clock.Now())
	assert.Equal(t, seq(0, 23), dests(first))
	assert.Equal(t, protocol.HeaderLength+protocol.MaxRoutesPerPacket*protocol.RecordLength, first.TotalLength)
	assert.Equal(t, seq(23, 23), dests(a.buildRoutingPacket(a.clock.Now())))
	assert.Equal(t, seq(16, 23), dests(a.buildRoutingPacket(a.clock.Now())))
}

func TestAdvertisementTimestamp(t *testing.T) {
	synced := func(cfg *state.NodeCfg) {
		cfg.TimeSync = true
		cfg.Timestamps = true
	}
	a := newTestNode(t, "00000001", reactive, synced)
	b := newTestNode(t, "00000002", reactive, synced)
	for i := 0; i < 30; i++ {
		dst := protocol.Address{0x0a, 0, 0, byte(i)}
		require.NoError(t, a.upsertRoute(RouteEntry{Destination: dst, NextHop: dst, Distance: 1}))
	}

	a.SetTimestamp(1_000_000, a.clock.Now())
	a.clock.Advance(500 * time.Millisecond)
	p := a.buildRoutingPacket(a.clock.Now())
	ts, ok := protocol.ParseTimestamp(p.Data)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000_500), ts)
	assert.Equal(t, protocol.HeaderLength+protocol.TimestampSize+22*protocol.RecordLength, p.TotalLength)

	_, err := b.hear(t, p)
	require.NoError(t, err)
	assert.Equal(t, 23, b.RouteCount())
	b.clock.Advance(250 * time.Millisecond)
	assert.Equal(t, uint64(1_000_750), b.Timestamp(b.clock.Now()))
}

func TestTimestampIgnoredWithoutSync(t *testing.T) {
	a := newTestNode(t, "00000001", reactive)
	assert.Zero(t, a.Timestamp(a.clock.Now()))
	a.SetTimestamp(42, a.clock.Now())
	assert.Zero(t, a.Timestamp(a.clock.Now()))

	a.SetTimeSync(true)
	a.SetTimestamp(42, a.clock.Now())
	a.clock.Advance(time.Second)
	assert.Equal(t, uint64(1042), a.Timestamp(a.clock.Now()))
}

func TestWithdrawal(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	a, d := addr("00000001"), addr("00000009")

	_, err := b.hear(t, advertPacket(a, 0, protocol.RouteRecord{Destination: d, Distance: 1, Metric: 255, NextHop: d}))
	require.NoError(t, err)
	r, _ := b.Route(d)
	assert.Equal(t, uint8(2), r.Distance)

	_, err = b.hear(t, advertPacket(a, 1, protocol.RouteRecord{Destination: d, Distance: 255, Metric: 0, NextHop: d}))
	require.NoError(t, err)
	r, _ = b.Route(d)
	assert.Equal(t, RouteEntry{Destination: d, NextHop: a, Distance: 255, LastSequence: 1, Metric: 0}, r)

	// a far route with a live metric only saturates its distance
	_, err = b.hear(t, advertPacket(a, 2, protocol.RouteRecord{Destination: d, Distance: 255, Metric: 77, NextHop: d}))
	require.NoError(t, err)
	r, _ = b.Route(d)
	assert.Equal(t, a, r.NextHop)
	assert.Equal(t, state.Unreachable, r.Distance)
	assert.Positive(t, r.Metric)
}

func TestPoisonedRoute(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	a, n := addr("00000001"), addr("0000000a")
	// n is still a neighbour but its direct route was lost
	_, _, err := b.neighbors.slot(n)
	require.NoError(t, err)

	_, err = b.hear(t, advertPacket(a, 0, protocol.RouteRecord{Destination: n, Distance: 1, Metric: 200, NextHop: b.LocalAddress()}))
	require.NoError(t, err)
	r, ok := b.Route(n)
	require.True(t, ok)
	assert.Equal(t, b.LocalAddress(), r.NextHop)
	assert.Equal(t, state.Unreachable, r.Distance)
	assert.Zero(t, r.Metric)

	_, err = b.WriteData(protocol.Datagram{Destination: n, Type: 'c', Message: []byte("x")})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestRouteThroughUsToStranger(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	a, s, e := addr("00000001"), addr("00000005"), addr("0000000e")

	// e is not our neighbour, so the record is an ordinary route via a
	_, err := b.hear(t, advertPacket(a, 0, protocol.RouteRecord{Destination: e, Distance: 1, Metric: 200, NextHop: b.LocalAddress()}))
	require.NoError(t, err)
	r, ok := b.Route(e)
	require.True(t, ok)
	assert.Equal(t, a, r.NextHop)
	assert.Equal(t, uint8(2), r.Distance)

	_, err = b.hear(t, datagramPacket(s, e, addr("00000006"), 0, "relayed"))
	require.NoError(t, err)
	r, _ = b.Route(e)
	assert.Equal(t, a, r.NextHop)

	_, err = b.WriteData(protocol.Datagram{Destination: e, Type: 'c', Message: []byte("x")})
	assert.NoError(t, err)
}

func TestRelayDropsExhaustedTTL(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	a, c := addr("00000001"), addr("00000003")
	_, err := b.hear(t, advertPacket(c, 0))
	require.NoError(t, err)

	p := datagramPacket(a, c, b.LocalAddress(), 0, "ping")
	p.TTL = 1
	delivered, err := b.hear(t, p)
	assert.False(t, delivered)
	assert.ErrorIs(t, err, ErrTTLExhausted)
	assert.Empty(t, b.queued(t))

	p.TTL = 0
	p.Sequence = 1
	_, err = b.hear(t, p)
	assert.ErrorIs(t, err, ErrTTLExhausted)
	assert.Empty(t, b.queued(t))

	p.TTL = 2
	p.Sequence = 2
	_, err = b.hear(t, p)
	require.NoError(t, err)
	out := b.queued(t)
	require.Len(t, out, 1)
	assert.Equal(t, uint8(1), out[0].TTL)
	assert.Equal(t, uint8(1), out[0].HopCount)
	assert.Equal(t, c, out[0].Receiver)
	assert.Equal(t, b.LocalAddress(), out[0].Sender)
	assert.Equal(t, a, out[0].Source)
	assert.Equal(t, uint8(255), out[0].Metric)
	assert.Equal(t, p.Data, out[0].Data)
}

func TestRelayOverPoisonedRoute(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	c := addr("00000003")
	require.NoError(t, b.upsertRoute(RouteEntry{Destination: c, NextHop: b.LocalAddress(), Distance: state.Unreachable}))
	p := datagramPacket(addr("00000001"), c, b.LocalAddress(), 0, "ping")
	_, err := b.hear(t, p)
	assert.ErrorIs(t, err, ErrNoRoute)
	assert.ErrorIs(t, err, ErrNotSent)
}

func TestBroadcastNotRebroadcast(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	p := datagramPacket(addr("00000001"), protocol.Broadcast, protocol.Broadcast, 0, "hello all")
	delivered, err := b.hear(t, p)
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Empty(t, b.queued(t))

	got, ok := b.ReadData()
	require.True(t, ok)
	assert.Equal(t, "hello all", string(got.Datagram().Message))
}

func TestSelfHeard(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	delivered, err := b.hear(t, datagramPacket(b.LocalAddress(), protocol.Broadcast, protocol.Broadcast, 0, "echo"))
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Zero(t, b.NeighborCount())
	assert.Zero(t, b.RouteCount())
	_, ok := b.ReadData()
	assert.False(t, ok)
}

func TestRouteErrors(t *testing.T) {
	a := newTestNode(t, "00000001", reactive)
	msg := []byte("x")

	_, err := a.WriteData(protocol.Datagram{Destination: protocol.Loopback, Message: msg})
	assert.ErrorIs(t, err, ErrLoopback)
	_, err = a.WriteData(protocol.Datagram{Destination: addr("00000009"), Message: msg})
	assert.ErrorIs(t, err, ErrNoRoute)
	_, err = a.WriteData(protocol.Datagram{Destination: protocol.Broadcast, Message: make([]byte, protocol.MessageLength+1)})
	assert.ErrorIs(t, err, protocol.ErrMessageTooLong)

	bcast, _ := protocol.Datagram{Destination: protocol.Broadcast, Message: msg}.MarshalBinary()
	_, err = a.route(protocol.DefaultTTL, a.LocalAddress(), 0, bcast, false)
	assert.ErrorIs(t, err, ErrBroadcastNotPermitted)
	_, err = a.route(0, a.LocalAddress(), 0, bcast, true)
	assert.ErrorIs(t, err, ErrTTLExhausted)

	for _, e := range []error{ErrLoopback, ErrNoRoute, ErrBroadcastNotPermitted, ErrTTLExhausted} {
		assert.True(t, errors.Is(e, ErrNotSent), e.Error())
	}
	assert.Empty(t, a.queued(t))

	pos, err := a.WriteData(protocol.Datagram{Destination: protocol.Broadcast, Message: msg})
	require.NoError(t, err)
	assert.Zero(t, pos)
	pos, _ = a.WriteData(protocol.Datagram{Destination: protocol.Broadcast, Message: msg})
	assert.Equal(t, 1, pos)
}

func TestEndToEndBroadcast(t *testing.T) {
	a := newTestNode(t, "00000001", reactive)
	b := newTestNode(t, "00000002", reactive)

	pos, err := a.WriteData(protocol.Datagram{Destination: protocol.Broadcast, Type: 'c', Message: []byte("hi")})
	require.NoError(t, err)
	assert.Zero(t, pos)

	tick := a.step(t, time.Millisecond)
	assert.Equal(t, protocol.HeaderLength+protocol.DatagramHeader+2, tick.Transmitted)
	assert.Equal(t, uint8(1), a.MessageCount())
	require.Equal(t, 1, a.deliver(b))

	tick = b.step(t, time.Millisecond)
	assert.True(t, tick.Received)
	assert.True(t, tick.Delivered)

	n, ok := b.Neighbor(a.LocalAddress())
	require.True(t, ok)
	assert.Equal(t, uint8(255), n.Metric)
	r, ok := b.Route(a.LocalAddress())
	require.True(t, ok)
	assert.Equal(t, uint8(1), r.Distance)
	assert.Equal(t, a.LocalAddress(), r.NextHop)

	p, ok := b.ReadData()
	require.True(t, ok)
	assert.Equal(t, "hi", string(p.Datagram().Message))
	assert.Equal(t, a.LocalAddress(), p.Source)
	assert.Zero(t, p.Sequence)

	// the sender sees its transmission complete
	tick = a.step(t, time.Millisecond)
	assert.False(t, tick.Received)
}

func TestEndToEndUnicastRelay(t *testing.T) {
	// a - b - c, a and c out of range of each other
	a := newTestNode(t, "00000001", reactive)
	b := newTestNode(t, "00000002", reactive)
	c := newTestNode(t, "00000003", reactive)

	// c introduces itself to b, b advertises to a
	_, err := b.hear(t, advertPacket(c.LocalAddress(), 0))
	require.NoError(t, err)
	_, err = a.hear(t, b.buildRoutingPacket(b.clock.Now()))
	require.NoError(t, err)
	r, ok := a.Route(c.LocalAddress())
	require.True(t, ok)
	assert.Equal(t, uint8(2), r.Distance)

	_, err = a.WriteData(protocol.Datagram{Destination: c.LocalAddress(), Type: 'c', Message: []byte("via b")})
	require.NoError(t, err)
	a.step(t, time.Millisecond)
	require.Equal(t, 1, a.deliver(b))
	tick := b.step(t, time.Millisecond)
	assert.True(t, tick.Received)
	assert.False(t, tick.Delivered)

	b.step(t, time.Millisecond)
	require.Equal(t, 1, b.deliver(c))
	tick = c.step(t, time.Millisecond)
	assert.True(t, tick.Delivered)
	p, ok := c.ReadData()
	require.True(t, ok)
	assert.Equal(t, "via b", string(p.Datagram().Message))
	assert.Equal(t, a.LocalAddress(), p.Source)
	assert.Equal(t, uint8(1), p.HopCount)
	assert.Equal(t, uint8(protocol.DefaultTTL-1), p.TTL)

	// c learned a route back to a through b
	back, ok := c.Route(a.LocalAddress())
	require.True(t, ok)
	assert.Equal(t, b.LocalAddress(), back.NextHop)
	assert.Equal(t, uint8(2), back.Distance)
}

func TestDutyGate(t *testing.T) {
	a := newTestNode(t, "00000001", reactive, func(cfg *state.NodeCfg) { cfg.DutyCycle = 0.01 })
	for range 2 {
		_, err := a.WriteData(protocol.Datagram{Destination: protocol.Broadcast, Message: []byte("hi")})
		require.NoError(t, err)
	}

	assert.Equal(t, 24, a.step(t, time.Millisecond).Transmitted)
	assert.Equal(t, 4916*time.Millisecond, a.DutyInterval())

	assert.Zero(t, a.step(t, 4000*time.Millisecond).Transmitted)
	// the gate opens strictly after the interval
	assert.Zero(t, a.step(t, 916*time.Millisecond).Transmitted)
	assert.Equal(t, 24, a.step(t, time.Millisecond).Transmitted)
	assert.Equal(t, uint8(2), a.MessageCount())
}

func TestPeriodicAdvertisement(t *testing.T) {
	a := newTestNode(t, "00000001", func(cfg *state.NodeCfg) {
		interval := 5 * time.Second
		cfg.Interval = &interval
	})
	assert.False(t, a.Reactive())

	tick := a.step(t, 5*time.Second)
	assert.False(t, tick.Advertised)

	tick = a.step(t, time.Millisecond)
	assert.True(t, tick.Advertised)
	assert.Equal(t, protocol.HeaderLength, tick.Transmitted)
	sent := a.drv.Sent()
	require.Len(t, sent, 1)
	p, err := protocol.UnmarshalPacket(sent[0])
	require.NoError(t, err)
	assert.Equal(t, protocol.Routing, p.Receiver)

	assert.Equal(t, 5*time.Second, a.SetInterval(0))
	assert.True(t, a.Reactive())
	tick = a.step(t, time.Minute)
	assert.False(t, tick.Advertised)
	assert.Equal(t, 7*time.Second, a.SetInterval(7*time.Second))
}

func TestSetDutyCycle(t *testing.T) {
	a := newTestNode(t, "00000001", reactive)
	assert.NoError(t, a.SetDutyCycle(0.1))
	assert.ErrorIs(t, a.SetDutyCycle(0), ErrInvalidDuty)
	assert.ErrorIs(t, a.SetDutyCycle(1.01), ErrInvalidDuty)
}

func TestConsolef(t *testing.T) {
	a := newTestNode(t, "00000001", reactive)
	a.Consolef("boot %d", 3)
	a.Consolef("%s", strings.Repeat("x", 300))

	p, ok := a.ReadData()
	require.True(t, ok)
	assert.Equal(t, uint8(protocol.DefaultTTL), p.TTL)
	assert.Equal(t, protocol.Loopback, p.Sender)
	assert.Equal(t, protocol.Loopback, p.Receiver)
	assert.Equal(t, protocol.Loopback, p.Source)
	d := p.Datagram()
	assert.Equal(t, protocol.Broadcast, d.Destination)
	assert.Equal(t, protocol.TypeConsole, d.Type)
	assert.Equal(t, "boot 3", string(d.Message))

	p, ok = a.ReadData()
	require.True(t, ok)
	assert.Len(t, p.Datagram().Message, protocol.MessageLength)
	assert.Equal(t, protocol.PacketLength, p.TotalLength)

	// truncation keeps whole runes
	a.Consolef("x%s", strings.Repeat("\u20ac", 100))
	p, ok = a.ReadData()
	require.True(t, ok)
	msg := p.Datagram().Message
	assert.Len(t, msg, protocol.MessageLength-2)
	assert.True(t, utf8.Valid(msg))

	_, ok = a.ReadData()
	assert.False(t, ok)
}

func TestClearTables(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	a := addr("00000001")
	_, err := b.hear(t, advertPacket(a, 5, protocol.RouteRecord{Destination: addr("00000009"), Distance: 1, Metric: 255, NextHop: addr("00000009")}))
	require.NoError(t, err)
	b.messageCount = 9

	b.ClearTables()
	assert.Equal(t, 1, b.NeighborCount())
	assert.Equal(t, 2, b.RouteCount())
	assert.Zero(t, b.MessageCount())
	n, _ := b.Neighbor(a)
	assert.Equal(t, NeighborEntry{Address: a, reset: true}, n)
	for _, r := range b.Routes() {
		assert.Equal(t, state.Unreachable, r.Distance)
		assert.Zero(t, r.Metric)
		assert.Zero(t, r.LastSequence)
	}

	// the next packet is first contact again
	_, err = b.hear(t, advertPacket(a, 77))
	require.NoError(t, err)
	n, _ = b.Neighbor(a)
	assert.Equal(t, uint8(255), n.Metric)
	r, _ := b.Route(a)
	assert.Equal(t, uint8(1), r.Distance)
}

func TestTableStrings(t *testing.T) {
	b := newTestNode(t, "00000002", reactive)
	_, err := b.hear(t, advertPacket(addr("00000001"), 0, protocol.RouteRecord{Destination: addr("00000009"), Distance: 1, Metric: 100, NextHop: addr("00000009")}))
	require.NoError(t, err)

	assert.Equal(t, "Neighbor Table:\n00000001 255 \n", b.NeighborTableString())
	assert.Equal(t, "Routing Table: total routes 2\n"+
		"1 hops from 00000001 via 00000001 metric 255 \n"+
		"2 hops from 00000009 via 00000001 metric 177 \n", b.RouteTableString())
}

func TestNewRouterValidation(t *testing.T) {
	_, err := NewRouter(state.NodeCfg{Address: addr("00000001")}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoRadio)
}

func TestAirtime(t *testing.T) {
	assert.InDelta(t, 44.032, Airtime(20, 7, true, false, 5, 125), 1e-9)
	assert.InDelta(t, 49.152, Airtime(24, 7, true, false, 5, 125), 1e-9)
	// payload symbols never go negative
	assert.InDelta(t, 8*4096/125.0, Airtime(0, 12, true, true, 5, 125), 1e-9)

	assert.Equal(t, 4404*time.Millisecond, DutyInterval(44.032, 0.01))
	assert.Equal(t, 45*time.Millisecond, DutyInterval(44.032, 1))
}

func TestMetricHelpers(t *testing.T) {
	assert.Equal(t, uint8(0), subSat(10, 200))
	assert.Equal(t, uint8(255), addSat(255, 1))
	assert.Equal(t, uint8(3), addSat(2, 1))
	assert.Equal(t, uint8(255), linkMetric(200, 4))
	assert.Equal(t, uint8(0), linkMetric(200, -1))
	assert.Equal(t, uint8(90), blendMetric(90, 0, 1))
	assert.Equal(t, uint8(127), blendMetric(255, 0, 2))
}
