package core

import (
	"fmt"
	"math"

	"github.com/loralayer2/ll2/state"
)

type RouterEvent int

// trace events

const (
	RouteAdded RouterEvent = iota
	RouteImproved
	RouteRefreshed
	RouteWithdrawn
	NeighbourAdded
	PacketDelivered
	PacketRelayed
)

// warn events

const (
	TableFull RouterEvent = iota + 1000
	MalformedPacket
	RadioError
	PacketDropped
)

func (e RouterEvent) String() string {
	switch e {
	case RouteAdded:
		return "RouteAdded"
	case RouteImproved:
		return "RouteImproved"
	case RouteRefreshed:
		return "RouteRefreshed"
	case RouteWithdrawn:
		return "RouteWithdrawn"
	case NeighbourAdded:
		return "NeighbourAdded"
	case PacketDelivered:
		return "PacketDelivered"
	case PacketRelayed:
		return "PacketRelayed"
	case TableFull:
		return "TableFull"
	case MalformedPacket:
		return "MalformedPacket"
	case RadioError:
		return "RadioError"
	case PacketDropped:
		return "PacketDropped"
	}
	return fmt.Sprintf("RouterEvent(%d)", int(e))
}

func (e RouterEvent) IsWarning() bool {
	return e >= TableFull
}

// packetLoss estimates how many packets from a neighbor went missing given the
// sequence number just received. A first contact restores full success.
func packetLoss(n *NeighborEntry, seq uint8) uint8 {
	if n.reset {
		n.reset = false
		n.Success = state.MaxSuccess
		return 0
	}
	diff := seq - n.LastSequence
	switch {
	case diff == 0:
		n.Success = state.MaxSuccess
		return 0
	case diff == 1:
		return 0
	case diff < state.LossGapLimit:
		return state.LossPerGap * diff
	}
	// a gap this long is total loss
	return 255
}

func subSat(a, b uint8) uint8 {
	if b > a {
		return 0
	}
	return a - b
}

func addSat(a, b uint8) uint8 {
	if a > 255-b {
		return 255
	}
	return a + b
}

func clampMetric(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// linkMetric weights the packet success of a neighbor.
func linkMetric(success uint8, weight float64) uint8 {
	return clampMetric(float64(success) * weight)
}

// blendMetric averages the metric of the first hop with the metric of the rest
// of the path, weighting the first hop by 1/distance.
func blendMetric(neigh, path, distance uint8) uint8 {
	if distance == 0 {
		return neigh
	}
	hopRatio := 1 / float64(distance)
	return clampMetric(float64(neigh)*hopRatio + float64(path)*(1-hopRatio))
}
