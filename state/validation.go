package state

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/loralayer2/ll2/protocol"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

func PathValidator(s string) error {
	_, err := os.Stat(path.Dir(s))
	if err != nil {
		return err
	}
	_, err = filepath.Abs(s)
	return err
}

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

// AddressValidator rejects the reserved addresses, none of which may identify a node.
func AddressValidator(a protocol.Address) error {
	if class := a.Class(); class != "unicast" {
		return fmt.Errorf("%s is the %s address and cannot be assigned to a node", a, class)
	}
	return nil
}

func DutyCycleValidator(d float64) error {
	if d <= 0 || d > 1 {
		return fmt.Errorf("duty cycle %v must be in (0, 1]", d)
	}
	return nil
}

func NodeConfigValidator(node *NodeCfg) error {
	if err := NameValidator(node.Name); err != nil {
		return err
	}
	if err := AddressValidator(node.Address); err != nil {
		return fmt.Errorf("node %s: %w", node.Name, err)
	}
	if err := DutyCycleValidator(node.DutyCycle); err != nil {
		return fmt.Errorf("node %s: %w", node.Name, err)
	}
	if node.Interval != nil && *node.Interval < 0 {
		return fmt.Errorf("node %s: interval must not be negative", node.Name)
	}
	if node.QueueDepth < 1 {
		return fmt.Errorf("node %s: queue depth must be positive", node.Name)
	}
	if node.Weight < 0 {
		return fmt.Errorf("node %s: weight must not be negative", node.Name)
	}
	return nil
}

func RadioConfigValidator(r RadioCfg) error {
	p := r.ToParams()
	if p.SpreadingFactor < 6 || p.SpreadingFactor > 12 {
		return fmt.Errorf("spreading factor %d must be within 6-12", p.SpreadingFactor)
	}
	if p.CodingRate < 5 || p.CodingRate > 8 {
		return fmt.Errorf("coding rate 4/%d must be within 4/5-4/8", p.CodingRate)
	}
	if p.Bandwidth <= 0 {
		return errors.New("bandwidth must be positive")
	}
	return nil
}

func SimConfigValidator(cfg *SimCfg) error {
	if len(cfg.Nodes) == 0 {
		return errors.New("no nodes defined")
	}
	if err := RadioConfigValidator(cfg.Radio); err != nil {
		return err
	}
	stamps := cfg.Nodes[0].Timestamps
	names := make([]string, 0, len(cfg.Nodes))
	addrs := make([]protocol.Address, 0, len(cfg.Nodes))
	for i := range cfg.Nodes {
		node := &cfg.Nodes[i]
		if err := NodeConfigValidator(node); err != nil {
			return err
		}
		if slices.Contains(names, node.Name) {
			return fmt.Errorf("duplicate node name: %s", node.Name)
		}
		if slices.Contains(addrs, node.Address) {
			return fmt.Errorf("duplicate node address: %s", node.Address)
		}
		if node.Timestamps != stamps {
			// advertisements are only parsed correctly when every node agrees
			return fmt.Errorf("node %s: timestamps must be enabled on every node or none", node.Name)
		}
		names = append(names, node.Name)
		addrs = append(addrs, node.Address)
	}

	edges, err := cfg.Edges()
	if err != nil {
		return err
	}
	for _, link := range cfg.Links {
		if !slices.Contains(edges, MakeSortedPair(link.From, link.To)) {
			return fmt.Errorf("link %s, %s is not in the graph", link.From, link.To)
		}
		if link.Loss < 0 || link.Loss > 1 {
			return fmt.Errorf("link %s, %s: loss %v must be within [0, 1]", link.From, link.To, link.Loss)
		}
	}

	for _, msg := range cfg.Messages {
		if cfg.GetNode(msg.From) == nil {
			return fmt.Errorf("message sender %s not defined", msg.From)
		}
		if _, err := cfg.Resolve(msg.To); err != nil {
			return err
		}
		if len(msg.Text) > protocol.MessageLength {
			return fmt.Errorf("message from %s: %w", msg.From, protocol.ErrMessageTooLong)
		}
		if msg.At < 0 || msg.At >= cfg.Duration {
			return fmt.Errorf("message from %s at %v is outside the run", msg.From, msg.At)
		}
	}

	if cfg.Tick <= 0 {
		return errors.New("tick must be positive")
	}
	if cfg.LogPath != "" {
		if err := PathValidator(cfg.LogPath); err != nil {
			return fmt.Errorf("log path: %w", err)
		}
	}
	return nil
}
