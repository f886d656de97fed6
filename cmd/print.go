package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/loralayer2/ll2/core"
	"github.com/loralayer2/ll2/sim"
	"github.com/pterm/pterm"
)

const DefaultSimConfigPath = "sim.yaml"

func printTraceEvent(ev core.TraceEvent) {
	p := ev.Packet
	switch ev.Kind {
	case core.TraceTransmit:
		pterm.Printfln("%s %-9s len=%d", ev.Node, ev.Kind, ev.Length)
	case core.TraceDrop:
		pterm.Printfln("%s %-9s %s -> %s src=%s err=%v", ev.Node, ev.Kind, p.Sender, p.Receiver, p.Source, ev.Err)
	default:
		pterm.Printfln("%s %-9s %s -> %s src=%s len=%d", ev.Node, ev.Kind, p.Sender, p.Receiver, p.Source, ev.Length)
	}
}

func printNode(node *sim.Node, raw bool) error {
	r := node.Router
	pterm.DefaultSection.Printfln("%s (%s) sent %d packets", node.Name, r.LocalAddress(), r.MessageCount())
	if raw {
		fmt.Print(r.NeighborTableString())
		fmt.Print(r.RouteTableString())
		return nil
	}

	neighbors := pterm.TableData{{"Neighbor", "Last Seq", "Success", "Metric"}}
	for _, n := range r.Neighbors() {
		neighbors = append(neighbors, []string{
			n.Address.String(),
			strconv.Itoa(int(n.LastSequence)),
			strconv.Itoa(int(n.Success)),
			strconv.Itoa(int(n.Metric)),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(neighbors).Render(); err != nil {
		return err
	}

	routes := pterm.TableData{{"Destination", "Next Hop", "Hops", "Metric"}}
	for _, e := range r.Routes() {
		routes = append(routes, []string{
			e.Destination.String(),
			e.NextHop.String(),
			strconv.Itoa(int(e.Distance)),
			strconv.Itoa(int(e.Metric)),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(routes).Render(); err != nil {
		return err
	}

	inbox := node.Inbox()
	if len(inbox) == 0 {
		return nil
	}
	received := pterm.TableData{{"At", "Source", "Hops", "Type", "Message"}}
	for _, m := range inbox {
		received = append(received, []string{
			m.At.Round(time.Millisecond).String(),
			m.Source.String(),
			strconv.Itoa(int(m.Hops)),
			string(m.Type),
			m.Text,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(received).Render()
}
