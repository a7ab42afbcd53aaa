// Package measurement runs timed valve windows and counts the flow-meter
// pulses seen while the valve is open.
package measurement

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/clock"
	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/report"
)

const (
	SplitCycles = 10
	SplitPause  = 2000 * time.Millisecond

	DefaultPollInterval = time.Millisecond
)

var (
	ErrInvalidDuration = errors.New("invalid measurement duration")
	ErrUnknownMode     = errors.New("unknown measurement mode")
	ErrBusy            = errors.New("measurement already in progress")
)

type State int32

const (
	StateIdle State = iota
	StateArmed
	StateRunning
	StatePausing
	StateReporting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StatePausing:
		return "pausing"
	case StateReporting:
		return "reporting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Valve is the actuator the runner opens for each window.
type Valve interface {
	Open(now uint32)
	Close(now uint32)
}

// Counter is the pulse accumulator fed by the flow-meter edge handler.
type Counter interface {
	ReadAndReset() uint32
	Reset()
}

type Runner struct {
	Counter Counter
	Valve   Valve
	Clock   clock.Clock
	Sink    report.Sink

	PollInterval time.Duration
	Now          func() time.Time
	NewRunID     func() string

	// OnTransition, when set, is called on the control goroutine for every
	// state change.
	OnTransition func(from, to State)

	state atomic.Int32
	runID string
}

func NewRunner(counter Counter, valve Valve, clk clock.Clock, sink report.Sink) *Runner {
	if sink == nil {
		sink = report.Discard
	}
	return &Runner{
		Counter:      counter,
		Valve:        valve,
		Clock:        clk,
		Sink:         sink,
		PollInterval: DefaultPollInterval,
		Now:          time.Now,
		NewRunID:     func() string { return xid.New().String() },
	}
}

func (r *Runner) State() State {
	return State(r.state.Load())
}

// Run dispatches trigger to full or split mode and returns the pulse count.
func (r *Runner) Run(trigger model.Trigger) (uint32, error) {
	if !model.ValidDuration(trigger.Seconds) {
		return 0, fmt.Errorf("%w: %d seconds", ErrInvalidDuration, trigger.Seconds)
	}

	switch trigger.Mode {
	case model.ModeFull:
		return r.RunFull(trigger.Seconds)
	case model.ModeSplit:
		return r.RunSplit(trigger.Seconds)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, trigger.Mode)
	}
}

// RunFull opens the valve once for seconds and returns the pulses counted.
func (r *Runner) RunFull(seconds int) (uint32, error) {
	if err := r.arm(); err != nil {
		return 0, err
	}

	r.Counter.Reset()
	r.emit(report.Event{Kind: report.KindStarted, Mode: model.ModeFull, Seconds: seconds})

	r.transition(StateRunning)
	r.window(model.ModeFull, seconds, 0)

	r.transition(StateReporting)
	pulses := r.Counter.ReadAndReset()
	r.emit(report.Event{Kind: report.KindResult, Mode: model.ModeFull, Seconds: seconds, Pulses: pulses})

	r.finish()
	return pulses, nil
}

// RunSplit runs SplitCycles windows of seconds each with the valve closed for
// SplitPause between them, and returns the total pulses across all windows.
func (r *Runner) RunSplit(seconds int) (uint32, error) {
	if err := r.arm(); err != nil {
		return 0, err
	}

	r.Counter.Reset()
	r.emit(report.Event{Kind: report.KindStarted, Mode: model.ModeSplit, Seconds: seconds, Cycles: SplitCycles})

	for cycle := 1; cycle <= SplitCycles; cycle++ {
		r.transition(StateRunning)
		r.emit(report.Event{Kind: report.KindCycle, Mode: model.ModeSplit, Seconds: seconds, Cycle: cycle, Cycles: SplitCycles})
		r.window(model.ModeSplit, seconds, cycle)

		if cycle < SplitCycles {
			r.transition(StatePausing)
			r.emit(report.Event{Kind: report.KindPause, Mode: model.ModeSplit, Seconds: seconds, Cycle: cycle, Cycles: SplitCycles})
			r.wait(uint32(SplitPause/time.Millisecond), nil)
		}
	}

	r.transition(StateReporting)
	pulses := r.Counter.ReadAndReset()
	r.emit(report.Event{Kind: report.KindResult, Mode: model.ModeSplit, Seconds: seconds, Cycles: SplitCycles, Pulses: pulses})

	r.finish()
	return pulses, nil
}

// window opens the valve, waits seconds with per-second progress, then
// closes it.
func (r *Runner) window(mode model.Mode, seconds, cycle int) {
	r.Valve.Open(r.Clock.Millis())

	r.wait(uint32(seconds)*1000, func(elapsed int) {
		r.emit(report.Event{Kind: report.KindProgress, Mode: mode, Seconds: seconds, Cycle: cycle, Elapsed: elapsed})
	})

	r.Valve.Close(r.Clock.Millis())
}

// wait polls the clock until windowMs have elapsed. progress, if set, is
// called once per whole second crossed before the end.
func (r *Runner) wait(windowMs uint32, progress func(elapsed int)) {
	start := r.Clock.Millis()
	var lastSecond uint32

	for {
		elapsed := clock.Elapsed(start, r.Clock.Millis())
		if elapsed >= windowMs {
			return
		}
		if progress != nil {
			if s := elapsed / 1000; s > lastSecond {
				lastSecond = s
				progress(int(s))
			}
		}
		r.Clock.Sleep(r.PollInterval)
	}
}

func (r *Runner) arm() error {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateArmed)) {
		return ErrBusy
	}
	r.runID = r.NewRunID()
	if r.OnTransition != nil {
		r.OnTransition(StateIdle, StateArmed)
	}
	return nil
}

func (r *Runner) finish() {
	r.transition(StateIdle)
	r.runID = ""
}

func (r *Runner) transition(to State) {
	from := State(r.state.Swap(int32(to)))
	if from == to {
		return
	}
	log.Debug().Str("run_id", r.runID).Stringer("from", from).Stringer("to", to).Msg("Measurement state")
	if r.OnTransition != nil {
		r.OnTransition(from, to)
	}
}

func (r *Runner) emit(e report.Event) {
	e.RunID = r.runID
	e.Timestamp = r.Now()
	r.Sink.Report(e)
}
