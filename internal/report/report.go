// Package report defines measurement events and the sinks that consume them.
package report

import (
	"time"

	"github.com/thatsimonsguy/flow-controller/internal/model"
)

type Kind string

const (
	KindStarted  Kind = "STARTED"
	KindCycle    Kind = "CYCLE"
	KindProgress Kind = "PROGRESS"
	KindPause    Kind = "PAUSE"
	KindResult   Kind = "RESULT"
)

// Event is one observable step of a measurement. Fields that do not apply
// to a Kind are left zero.
type Event struct {
	RunID     string     `json:"run_id"`
	Timestamp time.Time  `json:"timestamp"`
	Kind      Kind       `json:"kind"`
	Mode      model.Mode `json:"mode"`
	Seconds   int        `json:"seconds"`
	Cycle     int        `json:"cycle,omitempty"`
	Cycles    int        `json:"cycles,omitempty"`
	Elapsed   int        `json:"elapsed,omitempty"`
	Pulses    uint32     `json:"pulses"`
}

// Sink receives events on the control goroutine. Implementations must not
// block for long: a slow sink stretches the measurement window.
type Sink interface {
	Report(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Report(e Event) { f(e) }

// Multi fans an event out to every sink in order.
type Multi []Sink

func (m Multi) Report(e Event) {
	for _, s := range m {
		if s != nil {
			s.Report(e)
		}
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})
