package sim

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/loralayer2/ll2/core"
	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/radio"
	"github.com/loralayer2/ll2/state"
)

// Message is a datagram delivered to a simulated node.
type Message struct {
	At     time.Duration
	Source protocol.Address
	Hops   uint8
	Type   byte
	Text   string
}

type scripted struct {
	at       time.Duration
	datagram protocol.Datagram
}

// Node is one simulated LoRa node: a router on top of a simulated radio, and
// the scripted application that writes to it.
type Node struct {
	Name   string
	Router *core.Router
	Driver *Driver
	log    *slog.Logger
	clock  radio.Clock

	script []scripted

	mu    sync.Mutex
	inbox []Message
	ticks int
}

func newNode(cfg state.NodeCfg, params radio.Params, drv *Driver, clock radio.Clock, log *slog.Logger) (*Node, error) {
	l1 := radio.NewLayer1(drv, params, clock, cfg.QueueDepth, log)
	r, err := core.NewRouter(cfg, log, l1, nil)
	if err != nil {
		return nil, err
	}
	return &Node{
		Name:   cfg.Name,
		Router: r,
		Driver: drv,
		log:    log,
		clock:  clock,
	}, nil
}

func (n *Node) schedule(at time.Duration, d protocol.Datagram) {
	n.script = append(n.script, scripted{at: at, datagram: d})
	slices.SortStableFunc(n.script, func(a, b scripted) int {
		return cmp.Compare(a.at, b.at)
	})
}

// tick runs after every daemon pass on the node goroutine.
func (n *Node) tick(t core.Tick) {
	now := n.clock.Now()
	for len(n.script) > 0 && n.script[0].at <= now {
		s := n.script[0]
		n.script = n.script[1:]
		pos, err := n.Router.WriteData(s.datagram)
		if err != nil {
			n.log.Warn("message not sent", "dst", s.datagram.Destination, "err", err)
		} else {
			n.log.Info("message queued", "dst", s.datagram.Destination, "position", pos)
		}
	}

	received := make([]Message, 0)
	for {
		p, ok := n.Router.ReadData()
		if !ok {
			break
		}
		d := p.Datagram()
		msg := Message{At: now, Source: p.Source, Hops: p.HopCount, Type: d.Type, Text: string(d.Message)}
		n.log.Info("received", "src", msg.Source, "hops", msg.Hops, "type", string(msg.Type), "text", msg.Text)
		received = append(received, msg)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.ticks++
	n.inbox = append(n.inbox, received...)
}

// Inbox returns the datagrams delivered to the node so far.
func (n *Node) Inbox() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.inbox)
}

func (n *Node) Ticks() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ticks
}
