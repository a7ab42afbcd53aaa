package clock

import (
	"sync"
	"time"
)

// Fake is a manually driven clock. Sleep advances time one millisecond at a
// time and runs every registered hook after each step, so tests can inject
// pulses at exact offsets inside a window.
type Fake struct {
	mu    sync.Mutex
	now   uint32
	hooks []func(now uint32)

	// Slept accumulates the total duration passed to Sleep.
	Slept time.Duration
}

func NewFake(start uint32) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Millis() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the clock by d, rounded up to at least 1 ms.
func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	f.Slept += d
	f.mu.Unlock()
	f.Advance(d)
}

// Advance moves time forward by d without recording a sleep.
func (f *Fake) Advance(d time.Duration) {
	steps := int64(d / time.Millisecond)
	if steps < 1 {
		steps = 1
	}
	for i := int64(0); i < steps; i++ {
		f.mu.Lock()
		f.now++
		now := f.now
		hooks := f.hooks
		f.mu.Unlock()

		for _, h := range hooks {
			h(now)
		}
	}
}

// OnAdvance registers fn to run after every millisecond step.
func (f *Fake) OnAdvance(fn func(now uint32)) {
	f.mu.Lock()
	f.hooks = append(f.hooks, fn)
	f.mu.Unlock()
}
