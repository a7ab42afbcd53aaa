// Package pulse holds the flow-meter pulse counter shared between the
// edge-event goroutine and the control loop.
package pulse

import "sync/atomic"

// Counter counts flow-meter pulses. Increment is called from the GPIO
// edge-event goroutine; ReadAndReset from the control loop. Those are the
// only two mutation points.
type Counter struct {
	n atomic.Uint32
}

func NewCounter() *Counter {
	return &Counter{}
}

// Increment adds one pulse. Wraps at 2^32.
func (c *Counter) Increment() {
	c.n.Add(1)
}

// ReadAndReset returns the pulses counted since the previous reset and zeroes
// the counter in one atomic step.
func (c *Counter) ReadAndReset() uint32 {
	return c.n.Swap(0)
}

// Reset zeroes the counter, discarding the current value.
func (c *Counter) Reset() {
	c.n.Store(0)
}
