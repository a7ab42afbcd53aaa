package debounce

import (
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultDelay is the minimum spacing between accepted trigger activations.
const DefaultDelay = 500 * time.Millisecond

// sharedKey is the single debounce key used when all triggers share one gate.
const sharedKey = "*"

type Scope int

const (
	// ScopeShared gates every trigger with one timestamp: activating any
	// button debounces all of them.
	ScopeShared Scope = iota
	// ScopePerTrigger keeps an independent timestamp per trigger ID.
	ScopePerTrigger
)

type Option func(*Debouncer)

func WithScope(s Scope) Option {
	return func(d *Debouncer) { d.scope = s }
}

// WithRefreshOnReject controls whether a rejected activation still records
// its timestamp. Enabled by default, so a held button keeps pushing the
// window forward and never auto-repeats.
func WithRefreshOnReject(refresh bool) Option {
	return func(d *Debouncer) { d.refreshOnReject = refresh }
}

// Debouncer suppresses repeated trigger activations. Timestamps are wrapping
// millisecond counts from clock.Clock. Only the control loop touches it.
type Debouncer struct {
	delayMs         uint32
	scope           Scope
	refreshOnReject bool
	last            map[string]uint32
}

func New(delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		delayMs:         uint32(delay / time.Millisecond),
		scope:           ScopeShared,
		refreshOnReject: true,
		last:            make(map[string]uint32),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Debouncer) key(triggerID string) string {
	if d.scope == ScopeShared {
		return sharedKey
	}
	return triggerID
}

// TryAccept reports whether an activation of triggerID at now should be
// serviced. A key that has never been seen is always accepted.
func (d *Debouncer) TryAccept(triggerID string, now uint32) bool {
	k := d.key(triggerID)
	last, seen := d.last[k]

	if seen && now-last < d.delayMs {
		if d.refreshOnReject {
			d.last[k] = now
		}
		log.Debug().
			Str("trigger", triggerID).
			Uint32("since_last_ms", now-last).
			Msg("Trigger activation debounced")
		return false
	}

	d.last[k] = now
	return true
}

// Touch records now as the latest activity for triggerID without deciding
// anything. The controller calls it after a measurement returns.
func (d *Debouncer) Touch(triggerID string, now uint32) {
	d.last[d.key(triggerID)] = now
}
