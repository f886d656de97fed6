package core

import (
	"fmt"
	"strings"

	"github.com/loralayer2/ll2/state"
)

func (r *Router) NeighborTableString() string {
	sb := strings.Builder{}
	sb.WriteString("Neighbor Table:\n")
	for _, n := range r.neighbors.Entries() {
		sb.WriteString(fmt.Sprintf("%s %3d \n", n.Address, n.Metric))
	}
	return sb.String()
}

func (r *Router) RouteTableString() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Routing Table: total routes %d\n", r.routes.Len()))
	for _, e := range r.routes.Entries() {
		sb.WriteString(fmt.Sprintf("%d hops from %s via %s metric %3d \n", e.Distance, e.Destination, e.NextHop, e.Metric))
	}
	return sb.String()
}

func (r *Router) dbgPrintRouteTable() {
	if state.DBG_log_route_table {
		r.log.Info("route table\n" + r.RouteTableString())
	}
}
