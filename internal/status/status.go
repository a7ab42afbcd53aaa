// Package status tracks live controller state for the HTTP API.
package status

import (
	"sync"
	"time"

	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/report"
)

// Run describes the measurement in progress.
type Run struct {
	RunID   string     `json:"run_id"`
	Mode    model.Mode `json:"mode"`
	Seconds int        `json:"seconds"`
	Cycle   int        `json:"cycle,omitempty"`
	Cycles  int        `json:"cycles,omitempty"`
	Elapsed int        `json:"elapsed"`
	Pausing bool       `json:"pausing"`
	Started time.Time  `json:"started"`
}

// Result is the most recent completed measurement.
type Result struct {
	RunID    string     `json:"run_id"`
	Mode     model.Mode `json:"mode"`
	Seconds  int        `json:"seconds"`
	Cycles   int        `json:"cycles,omitempty"`
	Pulses   uint32     `json:"pulses"`
	Finished time.Time  `json:"finished"`
}

// Snapshot is a point-in-time copy of the tracker. It is a value type and
// safe to use after the lock is released.
type Snapshot struct {
	State         string    `json:"state"`
	Current       *Run      `json:"current,omitempty"`
	Last          *Result   `json:"last,omitempty"`
	Measurements  int       `json:"measurements"`
	MQTTConnected bool      `json:"mqtt_connected"`
	StartTime     time.Time `json:"start_time"`
	Now           time.Time `json:"now"`
}

func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker is a report.Sink that keeps the latest state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewTracker(startTime time.Time) *Tracker {
	return &Tracker{snap: Snapshot{State: "idle", StartTime: startTime}}
}

// SetState records the runner state name.
func (t *Tracker) SetState(state string) {
	t.mu.Lock()
	t.snap.State = state
	t.mu.Unlock()
}

func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

func (t *Tracker) Report(e report.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Kind {
	case report.KindStarted:
		t.snap.Current = &Run{
			RunID:   e.RunID,
			Mode:    e.Mode,
			Seconds: e.Seconds,
			Cycles:  e.Cycles,
			Started: e.Timestamp,
		}
	case report.KindCycle:
		if t.snap.Current != nil {
			t.snap.Current.Cycle = e.Cycle
			t.snap.Current.Elapsed = 0
			t.snap.Current.Pausing = false
		}
	case report.KindProgress:
		if t.snap.Current != nil {
			t.snap.Current.Elapsed = e.Elapsed
		}
	case report.KindPause:
		if t.snap.Current != nil {
			t.snap.Current.Pausing = true
		}
	case report.KindResult:
		t.snap.Current = nil
		t.snap.Last = &Result{
			RunID:    e.RunID,
			Mode:     e.Mode,
			Seconds:  e.Seconds,
			Cycles:   e.Cycles,
			Pulses:   e.Pulses,
			Finished: e.Timestamp,
		}
		t.snap.Measurements++
	}
}

// Snapshot returns a copy of the tracked state with Now set to the call time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Current != nil {
		run := *s.Current
		s.Current = &run
	}
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
