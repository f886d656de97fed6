package core

import (
	"github.com/dustin/go-broadcast"
	"github.com/loralayer2/ll2/protocol"
)

type TraceKind int

const (
	TraceTransmit TraceKind = iota
	TraceReceive
	TraceDeliver
	TraceRelay
	TraceDrop
	TraceAdvertise
)

func (k TraceKind) String() string {
	switch k {
	case TraceTransmit:
		return "tx"
	case TraceReceive:
		return "rx"
	case TraceDeliver:
		return "deliver"
	case TraceRelay:
		return "relay"
	case TraceDrop:
		return "drop"
	case TraceAdvertise:
		return "advertise"
	}
	return "unknown"
}

// TraceEvent is a packet observed by a router.
type TraceEvent struct {
	Node   protocol.Address
	Kind   TraceKind
	Length int
	Packet protocol.Packet
	Err    error
}

// Trace fans packet events from any number of routers out to listeners.
type Trace struct {
	broadcast.Broadcaster
}

func NewTrace() *Trace {
	return &Trace{Broadcaster: broadcast.NewBroadcaster(1024)}
}

// Listen calls fn for every event until the returned function is called.
func (t *Trace) Listen(fn func(TraceEvent)) (stop func()) {
	ch := make(chan interface{}, 64)
	done := make(chan struct{})
	t.Register(ch)
	go func() {
		defer close(done)
		for ev := range ch {
			if e, ok := ev.(TraceEvent); ok {
				fn(e)
			}
		}
	}()
	return func() {
		t.Unregister(ch)
		close(ch)
		<-done
	}
}

func (r *Router) emit(kind TraceKind, p protocol.Packet, err error) {
	if r.trace == nil {
		return
	}
	r.trace.Submit(TraceEvent{Node: r.local, Kind: kind, Length: p.TotalLength, Packet: p, Err: err})
}
