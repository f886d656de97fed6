package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/loralayer2/ll2/core"
	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/radio"
	"github.com/loralayer2/ll2/state"
)

type Options struct {
	// Console receives the log output of every node. Defaults to stderr.
	Console io.Writer
	Level   slog.Level
	// Trace, when set, receives the packet events of every router.
	Trace *core.Trace
	// Seed of the link loss generator.
	Seed uint64
}

// Network is a simulated LoRa network built from a SimCfg.
type Network struct {
	Cfg    *state.SimCfg
	Medium *Medium
	Nodes  []*Node
	Clock  radio.Clock

	log     *slog.Logger
	closers []io.Closer
	cancel  context.CancelCauseFunc
	wg      sync.WaitGroup
	started bool
}

// NodeLogPath derives the log file of a node from the configured log path.
func NodeLogPath(logPath, name string) string {
	if logPath == "" {
		return ""
	}
	ext := filepath.Ext(logPath)
	return strings.TrimSuffix(logPath, ext) + "." + name + ext
}

// New wires every node of cfg to a shared medium. Nothing runs until Start.
func New(cfg *state.SimCfg, opts Options) (*Network, error) {
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	log, closer, err := core.NewLogger(opts.Console, "medium", opts.Level, NodeLogPath(cfg.LogPath, "medium"))
	if err != nil {
		return nil, err
	}
	n := &Network{
		Cfg:     cfg,
		Medium:  NewMedium(log, opts.Seed),
		Clock:   radio.NewSystemClock(),
		log:     log,
		closers: []io.Closer{closer},
	}

	edges, err := cfg.Edges()
	if err != nil {
		n.release()
		return nil, err
	}
	for _, e := range edges {
		n.Medium.Link(e.V1, e.V2, cfg.LinkLoss(e.V1, e.V2))
	}

	params := cfg.Radio.ToParams()
	for _, nc := range cfg.Nodes {
		nlog, closer, err := core.NewLogger(opts.Console, nc.Name, opts.Level, NodeLogPath(cfg.LogPath, nc.Name))
		if err != nil {
			n.release()
			return nil, err
		}
		n.closers = append(n.closers, closer)
		node, err := newNode(nc, params, n.Medium.Attach(nc.Name), n.Clock, nlog)
		if err != nil {
			n.release()
			return nil, fmt.Errorf("node %s: %w", nc.Name, err)
		}
		if opts.Trace != nil {
			node.Router.SetTrace(opts.Trace)
		}
		n.Nodes = append(n.Nodes, node)
	}

	for _, m := range cfg.Messages {
		node := n.Node(m.From)
		if node == nil {
			n.release()
			return nil, fmt.Errorf("message from unknown node %s", m.From)
		}
		dst, err := cfg.Resolve(m.To)
		if err != nil {
			n.release()
			return nil, err
		}
		node.schedule(m.At, protocol.Datagram{Destination: dst, Type: 'c', Message: []byte(m.Text)})
	}
	return n, nil
}

func (n *Network) Node(name string) *Node {
	for _, node := range n.Nodes {
		if node.Name == name {
			return node
		}
	}
	return nil
}

// Start initializes every router and runs each node on its own goroutine.
func (n *Network) Start(ctx context.Context) error {
	if n.started {
		return errors.New("network already started")
	}
	for _, node := range n.Nodes {
		if err := node.Router.Init(); err != nil {
			return fmt.Errorf("node %s: %w", node.Name, err)
		}
	}
	ctx, n.cancel = context.WithCancelCause(ctx)
	n.started = true

	// scripted times are measured from here
	offset := n.Clock.Now()
	for _, node := range n.Nodes {
		for i := range node.script {
			node.script[i].at += offset
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			labels := pprof.Labels("ll2 node", node.Name)
			pprof.Do(ctx, labels, func(ctx context.Context) {
				if err := core.Run(ctx, node.Router, n.Cfg.Tick, node.tick); err != nil {
					node.log.Error("node stopped", "err", err)
				}
			})
		}()
	}
	n.log.Info("simulation started", "nodes", len(n.Nodes), "duration", n.Cfg.Duration)
	return nil
}

// Wait blocks until the configured duration has elapsed or ctx is done.
func (n *Network) Wait(ctx context.Context) error {
	select {
	case <-time.After(n.Cfg.Duration):
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Close stops every node, then the medium, and releases the log files.
func (n *Network) Close() error {
	if n.cancel != nil {
		n.cancel(errors.New("simulation stopped"))
	}
	n.wg.Wait()
	return n.release()
}

func (n *Network) release() error {
	n.Medium.Close()
	var errs []error
	for _, c := range n.closers {
		errs = append(errs, c.Close())
	}
	n.closers = nil
	return errors.Join(errs...)
}
