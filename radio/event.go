package radio

import "sync/atomic"

// EventFlag records a completion interrupt raised by the radio from an
// asynchronous context. The poller consumes it with Take; while disabled,
// raised interrupts are ignored.
type EventFlag struct {
	pending  atomic.Bool
	disabled atomic.Bool
}

// Raise is the interrupt handler handed to the driver.
func (f *EventFlag) Raise() {
	if f.disabled.Load() {
		return
	}
	f.pending.Store(true)
}

// Take clears the pending event and reports whether there was one.
func (f *EventFlag) Take() bool {
	return f.pending.CompareAndSwap(true, false)
}

func (f *EventFlag) Disable() { f.disabled.Store(true) }
func (f *EventFlag) Enable()  { f.disabled.Store(false) }
