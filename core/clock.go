package core

import "time"

// clockSync aligns a shared logical clock (milliseconds) across nodes using
// the timestamps carried by advertisements.
type clockSync struct {
	// accept timestamps from neighbors
	sync bool
	// prepend our timestamp to advertisements
	stamp bool

	timestamp uint64
	// local time at which timestamp was observed
	observed time.Duration
}

func (r *Router) SetTimeSync(on bool)   { r.clock.sync = on }
func (r *Router) SetTimestamps(on bool) { r.clock.stamp = on }

// SetTimestamp records the shared clock value ts as observed at local time now.
// It is ignored unless time sync is enabled.
func (r *Router) SetTimestamp(ts uint64, now time.Duration) {
	if !r.clock.sync {
		return
	}
	r.clock.timestamp = ts
	r.clock.observed = now
}

// Timestamp extrapolates the shared clock to local time now, or 0 when no
// timestamp was ever set.
func (r *Router) Timestamp(now time.Duration) uint64 {
	if r.clock.timestamp == 0 || r.clock.observed <= 0 {
		return 0
	}
	if now < r.clock.observed {
		return r.clock.timestamp
	}
	return r.clock.timestamp + uint64((now - r.clock.observed).Milliseconds())
}
