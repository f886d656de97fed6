package radio

import (
	"errors"
	"time"
)

var (
	ErrPacketTooLong = errors.New("radio: packet too long")
	ErrTxTimeout     = errors.New("radio: transmit timeout")
	ErrTxFailed      = errors.New("radio: transmit failed")
	ErrCRCMismatch   = errors.New("radio: crc mismatch")
	ErrRxFailed      = errors.New("radio: receive failed")
	ErrFrameTooLong  = errors.New("radio: received frame exceeds maximum packet length")
	ErrNotReady      = errors.New("radio: not initialized")
)

// Params are the static modulation settings of a transceiver.
type Params struct {
	Frequency       uint32  // Hz
	SpreadingFactor uint8   // 6-12
	Bandwidth       float64 // kHz
	CodingRate      uint8   // denominator of 4/x, 5-8
	TxPower         int     // dBm
	SyncWord        uint8
	PreambleLength  uint16
}

func DefaultParams() Params {
	return Params{
		Frequency:       915_000_000,
		SpreadingFactor: 9,
		Bandwidth:       125,
		CodingRate:      5,
		TxPower:         17,
		SyncWord:        0x12,
		PreambleLength:  8,
	}
}

// Driver is the transceiver. Transmit and receive are asynchronous: completion
// of either is signalled by calling the action installed with SetAction, which
// may happen on any goroutine.
type Driver interface {
	Begin(p Params) error
	SetAction(action func())
	// StartTransmit returns ErrPacketTooLong, ErrTxTimeout or another error
	// when the frame could not be put on air.
	StartTransmit(frame []byte) error
	StartReceive() error
	PacketLength() int
	// ReadData copies the last received frame into buf. It returns
	// ErrCRCMismatch for a corrupted frame.
	ReadData(buf []byte) (int, error)
}

// Clock is the platform monotonic clock, measured from boot.
type Clock interface {
	Now() time.Duration
}

type SystemClock struct {
	boot time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

func (c *SystemClock) Now() time.Duration {
	return time.Since(c.boot)
}
