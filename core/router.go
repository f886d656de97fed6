package core

import (
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/radio"
	"github.com/loralayer2/ll2/state"
)

// Router is the link layer of one node. It owns the neighbor and route tables
// and is driven by calling Daemon from a single goroutine.
type Router struct {
	local protocol.Address
	log   *slog.Logger
	trace *Trace

	lora1 *radio.Layer1
	lora2 *radio.Layer1
	// inbound queue drained by ReadData
	rx *radio.Buffer

	neighbors NeighborTable
	routes    RouteTable

	messageCount uint8
	weight       float64

	routingInterval time.Duration
	reactive        bool
	dutyCycle       float64
	dutyInterval    time.Duration
	lastRouting     time.Duration
	lastTransmit    time.Duration
	// first route of the next advertisement
	advertCursor int

	clock clockSync
}

// NewRouter builds the link layer on top of one or two radios. Only the first
// radio carries traffic.
func NewRouter(cfg state.NodeCfg, log *slog.Logger, lora1, lora2 *radio.Layer1) (*Router, error) {
	if lora1 == nil {
		return nil, ErrNoRadio
	}
	state.ExpandNodeConfig(&cfg)
	if err := state.AddressValidator(cfg.Address); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Router{
		local:           cfg.Address,
		log:             log,
		lora1:           lora1,
		lora2:           lora2,
		rx:              radio.NewBuffer(cfg.QueueDepth),
		weight:          cfg.Weight,
		routingInterval: state.RoutingInterval,
	}
	r.SetInterval(cfg.RoutingInterval())
	if err := r.SetDutyCycle(cfg.DutyCycle); err != nil {
		return nil, err
	}
	r.SetTimeSync(cfg.TimeSync)
	r.SetTimestamps(cfg.Timestamps)
	return r, nil
}

// Init arms the radios and starts the advertisement and duty-cycle timers.
func (r *Router) Init() error {
	if err := r.lora1.Init(); err != nil {
		return err
	}
	if r.lora2 != nil {
		if err := r.lora2.Init(); err != nil {
			return err
		}
	}
	now := r.lora1.Now()
	r.lastRouting = now
	r.lastTransmit = now
	r.log.Info("link layer initialized", "address", r.local, "interval", r.routingInterval, "reactive", r.reactive, "duty", r.dutyCycle)
	return nil
}

// SetInterval sets the advertisement interval. Zero disables periodic
// advertisements and keeps the previous interval. It returns the interval in effect.
func (r *Router) SetInterval(interval time.Duration) time.Duration {
	if interval == 0 {
		r.reactive = true
	} else {
		r.reactive = false
		r.routingInterval = interval
	}
	return r.routingInterval
}

func (r *Router) SetDutyCycle(duty float64) error {
	if duty <= 0 || duty > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidDuty, duty)
	}
	r.dutyCycle = duty
	return nil
}

func (r *Router) SetTrace(t *Trace) { r.trace = t }

func (r *Router) Log(event RouterEvent, desc string, args ...any) {
	msg := fmt.Sprintf("%s %s", event.String(), desc)
	if event.IsWarning() {
		r.log.Warn(msg, args...)
		return
	}
	if state.DBG_log_router {
		r.log.Debug(msg, args...)
	}
}

// WriteData routes a datagram originated by this node. It returns the position
// of the packet in the transmit queue.
func (r *Router) WriteData(d protocol.Datagram) (int, error) {
	data, err := d.MarshalBinary()
	if err != nil {
		return -1, err
	}
	return r.route(protocol.DefaultTTL, r.local, 0, data, true)
}

// ReadData returns the next packet delivered to this node, if any.
func (r *Router) ReadData() (protocol.Packet, bool) {
	for {
		frame := r.rx.Read()
		if len(frame) == 0 {
			return protocol.Packet{}, false
		}
		p, err := protocol.UnmarshalPacket(frame)
		if err != nil {
			r.Log(MalformedPacket, "in inbound queue", "err", err)
			continue
		}
		return p, true
	}
}

// Consolef places a diagnostic message in the inbound queue as if it had been
// broadcast to this node.
func (r *Router) Consolef(format string, args ...any) {
	msg := []byte(fmt.Sprintf(format, args...))
	if len(msg) > protocol.MessageLength {
		cut := protocol.MessageLength
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	d := protocol.Datagram{Destination: protocol.Broadcast, Type: protocol.TypeConsole, Message: msg}
	data, _ := d.MarshalBinary()
	p := protocol.Packet{TTL: protocol.DefaultTTL, Data: data}
	r.rx.Write(p.AppendBinary(nil))
}

// ClearTables resets link quality and distances without forgetting any
// neighbor or destination.
func (r *Router) ClearTables() {
	r.neighbors.clear()
	r.routes.clear()
	r.messageCount = 0
	r.advertCursor = 0
}

func (r *Router) LocalAddress() protocol.Address { return r.local }
func (r *Router) MessageCount() uint8            { return r.messageCount }
func (r *Router) RouteCount() int                { return r.routes.Len() }
func (r *Router) NeighborCount() int             { return r.neighbors.Len() }
func (r *Router) Routes() []RouteEntry           { return r.routes.Entries() }
func (r *Router) Neighbors() []NeighborEntry     { return r.neighbors.Entries() }
func (r *Router) Interval() time.Duration        { return r.routingInterval }
func (r *Router) Reactive() bool                 { return r.reactive }
func (r *Router) DutyInterval() time.Duration    { return r.dutyInterval }

func (r *Router) Route(dst protocol.Address) (RouteEntry, bool) {
	return r.routes.Get(dst)
}

func (r *Router) Neighbor(addr protocol.Address) (NeighborEntry, bool) {
	return r.neighbors.Get(addr)
}

// Pending is the number of packets waiting in the inbound queue.
func (r *Router) Pending() int { return r.rx.Len() }
