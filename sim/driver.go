package sim

import (
	"fmt"
	"sync"

	"github.com/loralayer2/ll2/protocol"
	"github.com/loralayer2/ll2/radio"
)

// Driver is a half-duplex transceiver attached to a Medium. It implements
// radio.Driver.
type Driver struct {
	name   string
	medium *Medium

	mu           sync.Mutex
	params       radio.Params
	begun        bool
	action       func()
	transmitting bool
	receiving    bool
	rx           []byte
}

var _ radio.Driver = (*Driver)(nil)

func (d *Driver) Begin(p radio.Params) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params = p
	d.begun = true
	return nil
}

func (d *Driver) Params() (radio.Params, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params, d.begun
}

func (d *Driver) SetAction(action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.action = action
}

func (d *Driver) StartTransmit(frame []byte) error {
	if len(frame) > protocol.PacketLength {
		return radio.ErrPacketTooLong
	}
	d.mu.Lock()
	if !d.begun {
		d.mu.Unlock()
		return radio.ErrNotReady
	}
	if d.transmitting {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s is still on air", radio.ErrTxTimeout, d.name)
	}
	d.transmitting = true
	d.receiving = false
	d.mu.Unlock()

	d.medium.transmit(d, append([]byte(nil), frame...))
	return nil
}

func (d *Driver) StartReceive() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receiving = true
	return nil
}

func (d *Driver) PacketLength() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rx)
}

func (d *Driver) ReadData(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := copy(buf, d.rx)
	d.rx = nil
	return n, nil
}

func (d *Driver) completeTransmit() {
	d.mu.Lock()
	d.transmitting = false
	action := d.action
	d.mu.Unlock()
	if action != nil {
		action()
	}
}

// deliver places data in the receive register and raises the interrupt. A
// frame arriving while the radio is not listening is missed.
func (d *Driver) deliver(data []byte) bool {
	d.mu.Lock()
	if !d.receiving || d.transmitting {
		d.mu.Unlock()
		return false
	}
	d.rx = data
	action := d.action
	d.mu.Unlock()
	if action != nil {
		action()
	}
	return true
}
