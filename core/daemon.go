package core

import (
	"time"

	"github.com/loralayer2/ll2/perf"
	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/radio"
)

// Tick summarizes one pass of the daemon.
type Tick struct {
	Advertised  bool
	Transmitted int // length of the frame put on air
	Received    bool
	Delivered   bool
}

// Daemon advertises routes when due, transmits one queued packet when the duty
// cycle allows, and handles a pending reception. It never blocks. The first
// error seen is returned for logging; none of them stop the node.
func (r *Router) Daemon() (Tick, error) {
	var tick Tick
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	start := time.Now()
	defer func() {
		perf.DaemonLatency.Add(float64(time.Since(start).Microseconds()))
	}()

	now := r.lora1.Now()
	if !r.reactive && now-r.lastRouting > r.routingInterval {
		p := r.buildRoutingPacket(now)
		_, err := r.enqueue(p)
		record(err)
		r.lastRouting = now
		tick.Advertised = err == nil
		perf.AdvertsPerSecond.Add(1)
		r.emit(TraceAdvertise, p, err)
		r.dbgPrintRouteTable()
	}

	if now-r.lastTransmit > r.dutyInterval {
		n, err := r.lora1.Transmit()
		if err != nil {
			perf.RadioErrorsPerSecond.Add(1)
			r.Log(RadioError, "transmit", "err", err)
			record(err)
		}
		if n > 0 {
			r.lastTransmit = now
			airtime := Airtime(n, r.lora1.SpreadingFactor(), true, false, r.lora1.CodingRate(), r.lora1.Bandwidth())
			r.dutyInterval = DutyInterval(airtime, r.dutyCycle)
			r.messageCount++
			tick.Transmitted = n
			perf.SentPacketPerSecond.Add(1)
			perf.SentBytesPerSecond.Add(float64(n))
			perf.Airtime.Add(airtime)
			r.emit(TraceTransmit, protocol.Packet{TotalLength: n}, nil)
		}
	}

	ev, err := r.lora1.Receive()
	if err != nil {
		perf.RadioErrorsPerSecond.Add(1)
		r.Log(RadioError, "receive", "err", err)
		record(err)
	}
	if ev.Kind == radio.EventReceived {
		tick.Received = true
		delivered, err := r.receive(now)
		tick.Delivered = delivered
		record(err)
	}
	return tick, firstErr
}
