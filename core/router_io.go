package core

import (
	"errors"
	"time"

	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/state"
)

// buildPacket stamps a packet with the local address and transmit counter.
func (r *Router) buildPacket(ttl uint8, nextHop, source protocol.Address, hopCount, metric uint8, data []byte) protocol.Packet {
	return protocol.Packet{
		TTL:         ttl,
		TotalLength: protocol.HeaderLength + len(data),
		Sender:      r.local,
		Receiver:    nextHop,
		Sequence:    r.messageCount,
		Source:      source,
		HopCount:    hopCount,
		Metric:      metric,
		Data:        data,
	}
}

// buildRoutingPacket advertises as many routes as fit in one packet. Tables
// larger than that are advertised in turns across successive packets.
func (r *Router) buildRoutingPacket(now time.Duration) protocol.Packet {
	data := make([]byte, 0, protocol.DataLength)
	budget := protocol.MaxRoutesPerPacket
	if r.clock.stamp {
		data = protocol.AppendTimestamp(data, r.Timestamp(now))
		budget--
	}

	routes := r.routes.entries[:r.routes.count]
	n := min(len(routes), budget)
	if len(routes) > 0 {
		start := r.advertCursor % len(routes)
		for i := 0; i < n; i++ {
			e := routes[(start+i)%len(routes)]
			rec := protocol.RouteRecord{
				Destination: e.Destination,
				Distance:    e.Distance,
				Metric:      e.Metric,
				NextHop:     e.NextHop,
			}
			data = rec.AppendBinary(data)
		}
		r.advertCursor = (start + n) % len(routes)
	}
	return r.buildPacket(1, protocol.Routing, r.local, 0, 0, data)
}

// upsertRoute applies the replacement rules to a candidate and stores it.
func (r *Router) upsertRoute(route RouteEntry) error {
	if route.Destination.Class() != "unicast" {
		return nil
	}
	idx, err := r.routes.check(r.local, route)
	if err != nil {
		r.Log(TableFull, "route dropped", "dst", route.Destination, "via", route.NextHop)
		return err
	}
	if idx < 0 {
		return nil
	}
	if state.DBG_log_router {
		switch {
		case idx == r.routes.count:
			r.Log(RouteAdded, "", "dst", route.Destination, "via", route.NextHop, "distance", route.Distance, "metric", route.Metric)
		case route.Distance == state.Unreachable:
			r.Log(RouteWithdrawn, "", "dst", route.Destination, "via", route.NextHop)
		case r.routes.entries[idx].NextHop != route.NextHop:
			r.Log(RouteImproved, "", "dst", route.Destination, "via", route.NextHop, "distance", route.Distance, "metric", route.Metric)
		default:
			r.Log(RouteRefreshed, "", "dst", route.Destination, "metric", route.Metric)
		}
	}
	r.routes.update(route, idx)
	return nil
}

// parseNeighbor updates link quality for the sender of p and refreshes the
// direct route to it.
func (r *Router) parseNeighbor(p protocol.Packet) (NeighborEntry, error) {
	idx, added, err := r.neighbors.slot(p.Sender)
	if err != nil {
		r.Log(TableFull, "neighbour dropped", "addr", p.Sender)
		return NeighborEntry{Address: p.Sender}, err
	}
	if added {
		r.Log(NeighbourAdded, "", "addr", p.Sender)
	}
	n := &r.neighbors.entries[idx]
	loss := packetLoss(n, p.Sequence)
	n.Success = subSat(n.Success, loss)
	n.LastSequence = p.Sequence
	n.Metric = linkMetric(n.Success, r.weight)

	err = r.upsertRoute(RouteEntry{
		Destination:  p.Sender,
		NextHop:      p.Sender,
		Distance:     1,
		LastSequence: p.Sequence,
		Metric:       n.Metric,
	})
	return *n, err
}

// parseRoutingTable learns the routes advertised by a neighbor. It returns the
// number of records read and stops early when the route table is full.
func (r *Router) parseRoutingTable(p protocol.Packet, neigh NeighborEntry) (int, error) {
	data := p.Data
	if r.clock.stamp {
		if len(data) < protocol.TimestampSize {
			return 0, protocol.ErrShortPacket
		}
		data = data[protocol.TimestampSize:]
	}
	var errMalformed error
	if extra := len(data) % protocol.RecordLength; extra != 0 {
		errMalformed = protocol.ErrMalformedRecord
		r.Log(MalformedPacket, "trailing bytes in advertisement", "from", p.Sender, "bytes", extra)
		data = data[:len(data)-extra]
	}
	records, _ := protocol.ParseRecords(data)

	for i, rec := range records {
		route := RouteEntry{
			Destination:  rec.Destination,
			NextHop:      p.Sender,
			Distance:     addSat(rec.Distance, 1),
			LastSequence: p.Sequence,
		}
		route.Metric = blendMetric(neigh.Metric, rec.Metric, route.Distance)
		switch {
		case rec.Distance == state.Unreachable && rec.Metric == 0:
			// withdrawn further away
			route.Metric = 0
			route.Distance = state.Unreachable
		case rec.NextHop == r.local && r.neighbors.find(rec.Destination) >= 0:
			// the neighbor reaches our own neighbor through us
			route.NextHop = r.local
			route.Metric = 0
			route.Distance = state.Unreachable
		}
		if err := r.upsertRoute(route); errors.Is(err, ErrTableFull) {
			return i, err
		}
	}
	return len(records), errMalformed
}

// parseForRoutes learns everything p reveals about the topology. Every packet
// heard updates the neighbor table; data packets also reveal their receiver,
// source and destination.
func (r *Router) parseForRoutes(p protocol.Packet, now time.Duration) error {
	neigh, firstErr := r.parseNeighbor(p)
	record := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if p.Receiver == protocol.Routing {
		if r.clock.stamp {
			if ts, ok := protocol.ParseTimestamp(p.Data); ok && ts != 0 {
				r.SetTimestamp(ts, now)
			}
		}
		_, err := r.parseRoutingTable(p, neigh)
		record(err)
		return firstErr
	}

	if p.Receiver != r.local && !p.Receiver.IsBroadcast() {
		// the sender relays to the receiver, so it is probably two hops away
		record(r.upsertRoute(RouteEntry{
			Destination:  p.Receiver,
			NextHop:      p.Sender,
			Distance:     2,
			LastSequence: p.Sequence,
		}))
	}

	if p.Sender != p.Source {
		distance := addSat(p.HopCount, 1)
		record(r.upsertRoute(RouteEntry{
			Destination:  p.Source,
			NextHop:      p.Sender,
			Distance:     distance,
			LastSequence: p.Sequence,
			Metric:       blendMetric(neigh.Metric, p.Metric, distance),
		}))
	}

	dst := p.Datagram().Destination
	if dst != r.local && dst != p.Receiver && !dst.IsBroadcast() {
		// reachability unknown until we hear from the destination
		record(r.upsertRoute(RouteEntry{
			Destination:  dst,
			NextHop:      p.Sender,
			Distance:     state.Unreachable,
			LastSequence: p.Sequence,
		}))
	}
	return firstErr
}
