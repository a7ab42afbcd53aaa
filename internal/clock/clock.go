// Package clock provides the wrapping millisecond time source used for
// measurement windows and debouncing.
//
// Millis values are only meaningful as differences. Callers compute elapsed
// time as now-start in uint32 arithmetic, which stays correct across the
// 2^32 ms wrap as long as the interval itself is shorter than ~49.7 days.
package clock

import "time"

type Clock interface {
	// Millis returns a monotonic millisecond count that wraps at 2^32.
	Millis() uint32

	// Sleep blocks the caller for d.
	Sleep(d time.Duration)
}

// Elapsed returns now-start in milliseconds, correct across wraparound.
func Elapsed(start, now uint32) uint32 {
	return now - start
}

// System is the process clock: milliseconds since construction plus an
// optional starting offset, truncated to 32 bits.
type System struct {
	origin time.Time
	offset uint32
}

func NewSystem() *System {
	return &System{origin: time.Now()}
}

// NewSystemAt starts the counter at start instead of zero. Useful for soak
// runs that need to cross the wrap point quickly.
func NewSystemAt(start uint32) *System {
	return &System{origin: time.Now(), offset: start}
}

func (s *System) Millis() uint32 {
	return s.offset + uint32(time.Since(s.origin)/time.Millisecond)
}

func (s *System) Sleep(d time.Duration) {
	time.Sleep(d)
}
