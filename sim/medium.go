package sim

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/loralayer2/ll2/core"
	"github.com/loralayer2/ll2/state"
)

// frame is a transmission on air.
type frame struct {
	from string
	data []byte
}

// Medium is the shared radio channel of a simulated network. A frame stays on
// air for its airtime and then reaches every node linked to the sender that is
// listening at that moment.
type Medium struct {
	mu      sync.Mutex
	log     *slog.Logger
	drivers map[string]*Driver
	links   map[state.Pair[string, string]]float64
	rng     *rand.Rand
	seq     uint64

	air         *ttlcache.Cache[uint64, frame]
	unsubscribe func()
	closeOnce   sync.Once
}

func NewMedium(log *slog.Logger, seed uint64) *Medium {
	if log == nil {
		log = slog.Default()
	}
	m := &Medium{
		log:     log,
		drivers: make(map[string]*Driver),
		links:   make(map[state.Pair[string, string]]float64),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		air: ttlcache.New[uint64, frame](
			ttlcache.WithDisableTouchOnHit[uint64, frame](),
		),
	}
	m.unsubscribe = m.air.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[uint64, frame]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}
		m.land(item.Value())
	})
	go m.air.Start()
	return m
}

// Attach creates the transceiver of a node.
func (m *Medium) Attach(name string) *Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &Driver{name: name, medium: m}
	m.drivers[name] = d
	return d
}

// Link puts a and b in range of each other. loss is the probability that a
// frame is not received on this link.
func (m *Medium) Link(a, b string, loss float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[state.MakeSortedPair(a, b)] = loss
}

// InFlight is the number of frames currently on air.
func (m *Medium) InFlight() int {
	return m.air.Len()
}

func (m *Medium) transmit(d *Driver, data []byte) {
	p, _ := d.Params()
	airtime := core.Airtime(len(data), p.SpreadingFactor, true, false, p.CodingRate, p.Bandwidth)
	ttl := time.Duration(airtime * float64(time.Millisecond))

	m.mu.Lock()
	m.seq++
	key := m.seq
	m.mu.Unlock()

	if state.DBG_log_packets {
		m.log.Debug("on air", "from", d.name, "len", len(data), "airtime", ttl)
	}
	m.air.Set(key, frame{from: d.name, data: data}, ttl)
}

// land ends a transmission: the sender is told it completed, and every
// listening neighbor that does not lose the frame receives it.
func (m *Medium) land(f frame) {
	m.mu.Lock()
	sender := m.drivers[f.from]
	receivers := make([]*Driver, 0)
	for name, d := range m.drivers {
		if name == f.from {
			continue
		}
		loss, ok := m.links[state.MakeSortedPair(f.from, name)]
		if !ok {
			continue
		}
		if loss > 0 && m.rng.Float64() < loss {
			if state.DBG_log_packets {
				m.log.Debug("lost", "from", f.from, "to", name)
			}
			continue
		}
		receivers = append(receivers, d)
	}
	m.mu.Unlock()

	if sender != nil {
		sender.completeTransmit()
	}
	for _, d := range receivers {
		if !d.deliver(f.data) && state.DBG_log_packets {
			m.log.Debug("missed while transmitting", "from", f.from, "to", d.name)
		}
	}
}

// Close stops the channel. Frames still on air are never delivered.
func (m *Medium) Close() {
	m.closeOnce.Do(func() {
		m.air.Stop()
		m.unsubscribe()
	})
}
