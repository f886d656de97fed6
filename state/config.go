package state

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/radio"
)

// NodeCfg is the link layer configuration of a single node.
type NodeCfg struct {
	Name    string
	Address protocol.Address
	// Interval between route advertisements. Unset uses RoutingInterval, zero
	// switches the node to reactive mode.
	Interval   *time.Duration `yaml:"interval,omitempty"`
	DutyCycle  float64        `yaml:"duty_cycle,omitempty"`  // fraction of airtime, (0, 1]
	TimeSync   bool           `yaml:"time_sync,omitempty"`   // accept timestamps from advertisements
	Timestamps bool           `yaml:"timestamps,omitempty"`  // prepend our timestamp to advertisements
	QueueDepth int            `yaml:"queue_depth,omitempty"` // frames held by each radio queue
	Weight     float64        `yaml:"weight,omitempty"`      // packet success weight
}

// RoutingInterval returns the advertisement interval, zero in reactive mode.
func (n *NodeCfg) RoutingInterval() time.Duration {
	if n.Interval == nil {
		return RoutingInterval
	}
	return *n.Interval
}

type RadioCfg struct {
	Frequency       uint32  `yaml:"frequency,omitempty"`
	SpreadingFactor uint8   `yaml:"spreading_factor,omitempty"`
	Bandwidth       float64 `yaml:"bandwidth,omitempty"` // kHz
	CodingRate      uint8   `yaml:"coding_rate,omitempty"`
	TxPower         int     `yaml:"tx_power,omitempty"`
}

// ToParams fills unset fields from radio.DefaultParams.
func (r RadioCfg) ToParams() radio.Params {
	p := radio.DefaultParams()
	if r.Frequency != 0 {
		p.Frequency = r.Frequency
	}
	if r.SpreadingFactor != 0 {
		p.SpreadingFactor = r.SpreadingFactor
	}
	if r.Bandwidth != 0 {
		p.Bandwidth = r.Bandwidth
	}
	if r.CodingRate != 0 {
		p.CodingRate = r.CodingRate
	}
	if r.TxPower != 0 {
		p.TxPower = r.TxPower
	}
	return p
}

// LinkCfg overrides the properties of a link declared in the graph.
type LinkCfg struct {
	From string
	To   string
	Loss float64 // probability that a frame on this link is lost
}

// MessageCfg is a datagram a simulated node writes at a fixed offset into the run.
type MessageCfg struct {
	From string
	To   string // node name, 8 hex digit address, or "broadcast"
	At   time.Duration
	Text string
}

// SimCfg describes a simulated network.
type SimCfg struct {
	Radio    RadioCfg `yaml:"radio,omitempty"`
	Nodes    []NodeCfg
	Graph    []string
	Links    []LinkCfg    `yaml:"links,omitempty"`
	Messages []MessageCfg `yaml:"messages,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
	Tick     time.Duration `yaml:"tick,omitempty"`
	LogPath  string        `yaml:"log_path,omitempty"` // if not empty, logs are also written to this file
}

func (c *SimCfg) NodeNames() []string {
	names := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		names = append(names, n.Name)
	}
	return names
}

func (c *SimCfg) GetNode(name string) *NodeCfg {
	for i := range c.Nodes {
		if c.Nodes[i].Name == name {
			return &c.Nodes[i]
		}
	}
	return nil
}

// Edges evaluates the topology graph into sorted node pairs.
func (c *SimCfg) Edges() ([]Pair[string, string], error) {
	return ParseGraph(c.Graph, c.NodeNames())
}

// LinkLoss returns the configured loss of the link between a and b.
func (c *SimCfg) LinkLoss(a, b string) float64 {
	for _, l := range c.Links {
		if MakeSortedPair(l.From, l.To) == MakeSortedPair(a, b) {
			return l.Loss
		}
	}
	return 0
}

// Resolve turns the destination of a scripted message into an address.
func (c *SimCfg) Resolve(to string) (protocol.Address, error) {
	to = strings.TrimSpace(to)
	if strings.EqualFold(to, "broadcast") {
		return protocol.Broadcast, nil
	}
	if n := c.GetNode(to); n != nil {
		return n.Address, nil
	}
	addr, err := protocol.ParseAddress(to)
	if err != nil {
		return addr, fmt.Errorf("%s is neither a node nor an address: %w", to, err)
	}
	return addr, nil
}

// ExpandSimConfig fills defaults into every unset field.
func ExpandSimConfig(cfg *SimCfg) {
	if cfg.Duration == 0 {
		cfg.Duration = SimDuration
	}
	if cfg.Tick == 0 {
		cfg.Tick = TickInterval
	}
	for i := range cfg.Nodes {
		ExpandNodeConfig(&cfg.Nodes[i])
	}
	for i := range cfg.Links {
		cfg.Links[i].From = strings.ToLower(strings.TrimSpace(cfg.Links[i].From))
		cfg.Links[i].To = strings.ToLower(strings.TrimSpace(cfg.Links[i].To))
	}
}

func ExpandNodeConfig(node *NodeCfg) {
	if node.DutyCycle == 0 {
		node.DutyCycle = DutyCycle
	}
	if node.QueueDepth == 0 {
		node.QueueDepth = QueueDepth
	}
	if node.Weight == 0 {
		node.Weight = PacketSuccessWeight
	}
}

// ParseSimConfig decodes, expands and validates a simulation config.
func ParseSimConfig(data []byte) (*SimCfg, error) {
	cfg := &SimCfg{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode sim config: %w", err)
	}
	ExpandSimConfig(cfg)
	if err := SimConfigValidator(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadSimConfig(path string) (*SimCfg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSimConfig(data)
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	line := make([]string, 0)
	for _, sym := range strings.Split(strings.TrimSpace(s), ",") {
		x := strings.TrimSpace(sym)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf(`%s is not a valid node/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`node/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}

/*
ParseGraph evaluates a topology written as lines of the form:

	Group1 = node1, node2, node3
	Group1, node4 // every member of Group1 hears node4, members do not hear each other
	Group1, Group1 // every member hears every other member
	node5, node6 // node5 and node6 are in range of each other

The result is the set of unique node pairs that are in radio range.
*/
func ParseGraph(graph []string, nodes []string) ([]Pair[string, string], error) {
	parsed := make([]Pair[string, string], 0)
	groups := make(map[string][]string)
	symbols := slices.Clone(nodes)

	// collect group names first so lines may reference groups defined later
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if !strings.Contains(line, "=") {
			continue
		}
		spl := strings.Split(line, "=")
		if len(spl) != 2 {
			return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
		}
		grp := strings.TrimSpace(spl[0])
		if slices.Contains(nodes, grp) {
			return nil, fmt.Errorf("group name must not be a node name: %s", grp)
		}
		symbols = append(symbols, grp)
	}
	slices.Sort(symbols)
	symbols = slices.Compact(symbols)

	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			grp := strings.TrimSpace(spl[0])
			if _, ok := groups[grp]; ok {
				return nil, fmt.Errorf("duplicate group name: %s", grp)
			}
			lst, err := parseSymbolList(spl[1], symbols)
			if err != nil {
				return nil, err
			}
			groups[grp] = slices.Compact(lst)
			continue
		}
		names, err := parseSymbolList(line, symbols)
		if err != nil {
			return nil, err
		}
		if len(names) < 2 {
			return nil, fmt.Errorf("invalid pairing, %v", names)
		}
		for i, a := range names {
			for _, b := range names[i+1:] {
				parsed = append(parsed, MakeSortedPair(a, b))
			}
		}
	}

	expansion, err := expandGroups(groups, nodes)
	if err != nil {
		return nil, err
	}

	members := func(sym string) []string {
		if slices.Contains(nodes, sym) {
			return []string{sym}
		}
		return expansion[sym]
	}
	pairings := make([]Pair[string, string], 0)
	for _, pair := range parsed {
		for _, x := range members(pair.V1) {
			for _, y := range members(pair.V2) {
				if x != y {
					pairings = append(pairings, MakeSortedPair(x, y))
				}
			}
		}
	}
	SortPairs(pairings)
	return slices.Compact(pairings), nil
}

// expandGroups resolves every group to the nodes it contains, in topological order.
func expandGroups(groups map[string][]string, nodes []string) (map[string][]string, error) {
	deps := make(map[string][]string)
	expansion := make(map[string][]string)
	for grp, lst := range groups {
		deps[grp] = make([]string, 0)
		expansion[grp] = make([]string, 0)
		for _, sym := range lst {
			if slices.Contains(nodes, sym) {
				expansion[grp] = append(expansion[grp], sym)
			} else {
				deps[grp] = append(deps[grp], sym)
			}
		}
	}

	for len(deps) > 0 {
		var free string
		for grp, d := range deps {
			if len(d) == 0 {
				free = grp
				break
			}
		}
		if free == "" {
			cycle := make([]string, 0, len(deps))
			for grp := range deps {
				cycle = append(cycle, grp)
			}
			slices.Sort(cycle)
			return nil, fmt.Errorf("cycle detected in graph: %v", cycle)
		}
		delete(deps, free)

		for grp, d := range deps {
			if !slices.Contains(d, free) {
				continue
			}
			expansion[grp] = append(expansion[grp], expansion[free]...)
			slices.Sort(expansion[grp])
			expansion[grp] = slices.Compact(expansion[grp])
			deps[grp] = slices.DeleteFunc(d, func(s string) bool { return s == free })
		}
	}
	return expansion, nil
}
