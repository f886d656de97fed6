// Package radiotest provides an in-memory transceiver and a manual clock for
// exercising the link layer without hardware.
package radiotest

import (
	"sync"
	"time"

	"github.com/loralayer2/ll2/radio"
)

// Driver records transmitted frames and delivers injected ones.
type Driver struct {
	mu        sync.Mutex
	action    func()
	params    radio.Params
	begun     bool
	receiving bool
	rx        []byte
	rxErr     error
	sent      [][]byte

	// TxErr, when set, is returned by the next StartTransmit.
	TxErr error
}

func NewDriver() *Driver { return &Driver{} }

func (d *Driver) Begin(p radio.Params) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params = p
	d.begun = true
	return nil
}

func (d *Driver) SetAction(action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.action = action
}

func (d *Driver) StartTransmit(frame []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.TxErr != nil {
		err := d.TxErr
		d.TxErr = nil
		return err
	}
	d.sent = append(d.sent, append([]byte(nil), frame...))
	d.receiving = false
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
	if d.rxErr != nil {
		err := d.rxErr
		d.rxErr = nil
		return 0, err
	}
	n := copy(buf, d.rx)
	d.rx = nil
	return n, nil
}

// Inject places frame in the receive register and raises the interrupt.
func (d *Driver) Inject(frame []byte) {
	d.mu.Lock()
	d.rx = append([]byte(nil), frame...)
	action := d.action
	d.mu.Unlock()
	if action != nil {
		action()
	}
}

// InjectError raises the interrupt for a reception that fails with err.
func (d *Driver) InjectError(frame []byte, err error) {
	d.mu.Lock()
	d.rx = append([]byte(nil), frame...)
	d.rxErr = err
	action := d.action
	d.mu.Unlock()
	if action != nil {
		action()
	}
}

// CompleteTransmit raises the interrupt the way a finished transmission does.
func (d *Driver) CompleteTransmit() {
	d.mu.Lock()
	action := d.action
	d.mu.Unlock()
	if action != nil {
		action()
	}
}

// Sent drains the frames transmitted so far.
func (d *Driver) Sent() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.sent
	d.sent = nil
	return out
}

func (d *Driver) Receiving() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.receiving
}

func (d *Driver) Begun() (radio.Params, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params, d.begun
}

// Clock is advanced by hand.
type Clock struct {
	mu  sync.Mutex
	now time.Duration
}

func NewClock(start time.Duration) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}
