package core

import (
	"slices"

	"github.com/gaissmai/bart"
	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/state"
)

type NeighborEntry struct {
	Address      protocol.Address
	LastSequence uint8
	Success      uint8
	Metric       uint8

	// the next packet from this neighbor is treated as first contact
	reset bool
}

// NeighborTable holds one entry per address heard directly. Entries are
// updated in place and never removed.
type NeighborTable struct {
	entries [state.TableCapacity]NeighborEntry
	count   int
}

func (t *NeighborTable) Len() int { return t.count }

func (t *NeighborTable) Entries() []NeighborEntry {
	return slices.Clone(t.entries[:t.count])
}

func (t *NeighborTable) find(addr protocol.Address) int {
	for i := 0; i < t.count; i++ {
		if t.entries[i].Address == addr {
			return i
		}
	}
	return -1
}

func (t *NeighborTable) Get(addr protocol.Address) (NeighborEntry, bool) {
	idx := t.find(addr)
	if idx < 0 {
		return NeighborEntry{}, false
	}
	return t.entries[idx], true
}

// slot returns the index for addr, appending a first-contact entry when the
// address is new.
func (t *NeighborTable) slot(addr protocol.Address) (idx int, added bool, err error) {
	if idx := t.find(addr); idx >= 0 {
		return idx, false, nil
	}
	if t.count == len(t.entries) {
		return -1, false, ErrTableFull
	}
	t.entries[t.count] = NeighborEntry{Address: addr, reset: true}
	t.count++
	return t.count - 1, true, nil
}

func (t *NeighborTable) clear() {
	for i := 0; i < t.count; i++ {
		e := &t.entries[i]
		e.Success = 0
		e.Metric = 0
		e.LastSequence = 0
		e.reset = true
	}
}

type RouteEntry struct {
	Destination  protocol.Address
	NextHop      protocol.Address
	Distance     uint8 // hops, state.Unreachable when withdrawn
	LastSequence uint8
	Metric       uint8
}

// usable reports whether packets may be forwarded along the entry. Poisoned
// entries point back at the local node.
func (e RouteEntry) usable(local protocol.Address) bool {
	return e.NextHop != local
}

// RouteTable is a fixed arena of routes, one per destination, indexed by
// destination for lookups.
type RouteTable struct {
	entries [state.TableCapacity]RouteEntry
	count   int
	index   bart.Table[int]
}

func (t *RouteTable) Len() int { return t.count }

func (t *RouteTable) Entries() []RouteEntry {
	return slices.Clone(t.entries[:t.count])
}

func (t *RouteTable) lookup(dst protocol.Address) int {
	idx, ok := t.index.Get(dst.Prefix())
	if !ok {
		return -1
	}
	return idx
}

func (t *RouteTable) Get(dst protocol.Address) (RouteEntry, bool) {
	idx := t.lookup(dst)
	if idx < 0 {
		return RouteEntry{}, false
	}
	return t.entries[idx], true
}

// check decides where a candidate route goes. It returns -1 when the candidate
// must be ignored and ErrTableFull when a new destination does not fit.
func (t *RouteTable) check(local protocol.Address, route RouteEntry) (int, error) {
	if route.Destination == local {
		return -1, nil
	}
	idx := t.lookup(route.Destination)
	if idx < 0 {
		if t.count == len(t.entries) {
			return -1, ErrTableFull
		}
		return t.count, nil
	}
	cur := t.entries[idx]
	switch {
	case cur.NextHop == route.NextHop:
		return idx, nil
	case route.Distance < cur.Distance:
		return idx, nil
	case route.Distance == cur.Distance && route.Metric > cur.Metric:
		return idx, nil
	}
	return -1, nil
}

// update writes route at idx, growing the table when idx is the next free slot.
func (t *RouteTable) update(route RouteEntry, idx int) {
	t.entries[idx] = route
	if idx == t.count {
		t.count++
		t.index.Insert(route.Destination.Prefix(), idx)
	}
}

func (t *RouteTable) clear() {
	for i := 0; i < t.count; i++ {
		e := &t.entries[i]
		e.Distance = state.Unreachable
		e.Metric = 0
		e.LastSequence = 0
	}
}
