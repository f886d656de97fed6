package core

import (
	"errors"
	"fmt"
)

// ErrNotSent is wrapped by every reason the forwarder declines a datagram.
var ErrNotSent = errors.New("datagram not sent")

var (
	ErrTTLExhausted          = fmt.Errorf("%w: ttl exhausted", ErrNotSent)
	ErrNoRoute               = fmt.Errorf("%w: no route to destination", ErrNotSent)
	ErrBroadcastNotPermitted = fmt.Errorf("%w: broadcast not permitted", ErrNotSent)
	ErrLoopback              = fmt.Errorf("%w: loopback is not re-injected", ErrNotSent)
)

var (
	ErrTableFull   = errors.New("table capacity exhausted")
	ErrNoRadio     = errors.New("no radio attached")
	ErrInvalidDuty = errors.New("duty cycle must be in (0, 1]")
)
