package state

import "time"

const (
	// TableCapacity is the number of slots in both the neighbor and the route table.
	TableCapacity = 255
	// Unreachable is the distance of a destination that is known but cannot be reached.
	Unreachable = uint8(255)
	// MaxSuccess is the packet success score of a perfect link.
	MaxSuccess = uint8(255)
	// LossGapLimit is the first sequence gap that is treated as total loss.
	LossGapLimit = 16
	// LossPerGap is the success penalty for each missed sequence number below LossGapLimit.
	LossPerGap = 16
)

var (
	RoutingInterval     = time.Second * 15
	DutyCycle           = 1.0
	QueueDepth          = 16
	PacketSuccessWeight = 1.0

	// how often a simulated node runs its daemon
	TickInterval = time.Millisecond * 5

	// simulator defaults
	SimDuration = time.Second * 60
)
