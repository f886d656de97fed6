package protocol

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"
)

const AddrLength = 4

// Address identifies a node on the mesh.
type Address [AddrLength]byte

var (
	Broadcast = Address{0xff, 0xff, 0xff, 0xff}
	Loopback  = Address{0x00, 0x00, 0x00, 0x00}
	// Routing is the receiver of route advertisements.
	Routing = Address{0xaf, 0xff, 0xff, 0xff}
)

// ParseAddress parses two hex digits per address byte, e.g. "c0ffee01".
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if len(s) != 2*AddrLength {
		return a, fmt.Errorf("address %q must be %d hex digits", s, 2*AddrLength)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("address %q: %w", s, err)
	}
	copy(a[:], b)
	return a, nil
}

func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsBroadcast() bool { return a == Broadcast }
func (a Address) IsLoopback() bool  { return a == Loopback }
func (a Address) IsRouting() bool   { return a == Routing }

// Class names the reserved role of an address, or "unicast".
func (a Address) Class() string {
	switch a {
	case Broadcast:
		return "broadcast"
	case Loopback:
		return "loopback"
	case Routing:
		return "routing"
	}
	return "unicast"
}

// Prefix maps the address onto an IPv4 host prefix so it can key prefix tables.
func (a Address) Prefix() netip.Prefix {
	return netip.PrefixFrom(netip.AddrFrom4(a), 32)
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
