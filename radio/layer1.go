package radio

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loralayer2/ll2/protocol"
)

type EventKind int

const (
	EventNone EventKind = iota
	EventTransmitted
	EventReceived
)

func (k EventKind) String() string {
	switch k {
	case EventTransmitted:
		return "transmitted"
	case EventReceived:
		return "received"
	}
	return "none"
}

type Event struct {
	Kind   EventKind
	Length int
}

// Layer1 wraps a Driver with the transmit and receive queues the link layer
// polls. Transmit and Receive must be called from a single goroutine.
type Layer1 struct {
	TxBuffer *Buffer
	RxBuffer *Buffer

	driver       Driver
	params       Params
	clock        Clock
	log          *slog.Logger
	event        EventFlag
	transmitting bool
	ready        bool
	frame        [protocol.PacketLength]byte
}

func NewLayer1(driver Driver, params Params, clock Clock, depth int, log *slog.Logger) *Layer1 {
	if clock == nil {
		clock = NewSystemClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Layer1{
		TxBuffer: NewBuffer(depth),
		RxBuffer: NewBuffer(depth),
		driver:   driver,
		params:   params,
		clock:    clock,
		log:      log,
	}
}

// Init configures the transceiver and arms it for reception.
func (l *Layer1) Init() error {
	if err := l.driver.Begin(l.params); err != nil {
		return fmt.Errorf("radio begin: %w", err)
	}
	l.driver.SetAction(l.event.Raise)
	if err := l.driver.StartReceive(); err != nil {
		return fmt.Errorf("radio start receive: %w", err)
	}
	l.ready = true
	return nil
}

func (l *Layer1) Ready() bool { return l.ready }

func (l *Layer1) Now() time.Duration { return l.clock.Now() }

func (l *Layer1) SpreadingFactor() uint8 { return l.params.SpreadingFactor }
func (l *Layer1) CodingRate() uint8      { return l.params.CodingRate }
func (l *Layer1) Bandwidth() float64     { return l.params.Bandwidth }

// Transmit hands the oldest queued frame to the driver. It returns the frame
// length, or 0 when nothing was queued. A frame the driver rejects is dropped.
func (l *Layer1) Transmit() (int, error) {
	if !l.ready {
		return 0, ErrNotReady
	}
	frame := l.TxBuffer.Read()
	if len(frame) == 0 {
		return 0, nil
	}
	err := l.driver.StartTransmit(frame)
	if err != nil {
		switch {
		case errors.Is(err, ErrPacketTooLong), errors.Is(err, ErrTxTimeout):
			return 0, err
		default:
			return 0, fmt.Errorf("%w: %w", ErrTxFailed, err)
		}
	}
	l.transmitting = true
	l.log.Debug("frame on air", "len", len(frame))
	return len(frame), nil
}

// Receive consumes a pending completion event. A transmit completion rearms the
// receiver; a reception copies the frame into RxBuffer.
func (l *Layer1) Receive() (Event, error) {
	if !l.ready || !l.event.Take() {
		return Event{}, nil
	}
	if l.transmitting {
		l.transmitting = false
		l.log.Debug("transmit complete")
		return Event{Kind: EventTransmitted}, l.driver.StartReceive()
	}

	l.event.Disable()
	defer func() {
		if err := l.driver.StartReceive(); err != nil {
			l.log.Warn("failed to rearm receiver", "err", err)
		}
		l.event.Enable()
	}()

	n := l.driver.PacketLength()
	if n > len(l.frame) {
		return Event{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, n)
	}
	n, err := l.driver.ReadData(l.frame[:n])
	if err != nil {
		if errors.Is(err, ErrCRCMismatch) {
			return Event{}, err
		}
		return Event{}, fmt.Errorf("%w: %w", ErrRxFailed, err)
	}
	if n == 0 {
		return Event{}, nil
	}
	l.RxBuffer.Write(l.frame[:n])
	return Event{Kind: EventReceived, Length: n}, nil
}
