package core

import (
	"fmt"
	"time"

	"github.com/loralayer2/ll2/perf"
	"github.com/loralayer2/ll2/protocol"
)

// route sends a datagram towards its destination and returns the position of
// the packet in the transmit queue. Broadcasts are only sent when
// allowBroadcast is set, so received broadcasts are never re-broadcast.
func (r *Router) route(ttl uint8, source protocol.Address, hopCount uint8, data []byte, allowBroadcast bool) (int, error) {
	if ttl == 0 {
		return -1, ErrTTLExhausted
	}
	var metric uint8
	if source != r.local {
		if src, ok := r.routes.Get(source); ok {
			metric = src.Metric
		}
	}

	dst := protocol.ParseDatagram(data).Destination
	switch {
	case dst.IsLoopback():
		return -1, ErrLoopback
	case dst.IsBroadcast():
		if !allowBroadcast {
			return -1, ErrBroadcastNotPermitted
		}
		return r.enqueue(r.buildPacket(ttl, protocol.Broadcast, source, hopCount, metric, data))
	}

	e, ok := r.routes.Get(dst)
	if !ok || !e.usable(r.local) {
		return -1, fmt.Errorf("%w: %s", ErrNoRoute, dst)
	}
	return r.enqueue(r.buildPacket(ttl, e.NextHop, source, hopCount, metric, data))
}

func (r *Router) enqueue(p protocol.Packet) (int, error) {
	frame, err := p.MarshalBinary()
	if err != nil {
		return -1, err
	}
	return r.lora1.TxBuffer.Write(frame), nil
}

// receive handles the next frame in the radio receive queue: it learns routes
// from it, then delivers it locally, relays it, or drops it.
func (r *Router) receive(now time.Duration) (delivered bool, err error) {
	frame := r.lora1.RxBuffer.Read()
	if len(frame) == 0 {
		return false, nil
	}
	p, err := protocol.UnmarshalPacket(frame)
	if err != nil {
		r.Log(MalformedPacket, "from radio", "err", err, "len", len(frame))
		return false, err
	}
	perf.RecvPacketPerSecond.Add(1)
	perf.RecvBytesPerSecond.Add(float64(len(frame)))

	if p.Sender == r.local {
		// our own transmission heard through a repeater or the second radio
		return false, nil
	}
	r.emit(TraceReceive, p, nil)
	err = r.parseForRoutes(p, now)
	if p.Receiver == protocol.Routing {
		return false, err
	}

	dg := p.Datagram()
	switch {
	case dg.Destination == r.local || p.Receiver.IsBroadcast():
		r.rx.Write(frame)
		perf.DeliveredPerSecond.Add(1)
		r.Log(PacketDelivered, "", "from", p.Source, "len", p.TotalLength)
		r.emit(TraceDeliver, p, nil)
		return true, err
	case p.Receiver == r.local:
		if p.TTL == 0 {
			return false, r.drop(p, ErrTTLExhausted)
		}
		ttl := p.TTL - 1
		hopCount := addSat(p.HopCount, 1)
		if _, rerr := r.route(ttl, p.Source, hopCount, p.Data, false); rerr != nil {
			return false, r.drop(p, rerr)
		}
		r.Log(PacketRelayed, "", "src", p.Source, "dst", dg.Destination, "ttl", ttl)
		r.emit(TraceRelay, p, nil)
	}
	return false, err
}

func (r *Router) drop(p protocol.Packet, err error) error {
	perf.DroppedPerSecond.Add(1)
	r.Log(PacketDropped, "", "src", p.Source, "dst", p.Datagram().Destination, "err", err)
	r.emit(TraceDrop, p, err)
	return err
}
