package measurement

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/flow-controller/internal/clock"
	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/pulse"
	"github.com/thatsimonsguy/flow-controller/internal/report"
)

type fakeValve struct {
	open     bool
	openedAt uint32
	opens    []uint32
	closes   []uint32
}

func (v *fakeValve) Open(now uint32) {
	v.open = true
	v.openedAt = now
	v.opens = append(v.opens, now)
}

func (v *fakeValve) Close(now uint32) {
	v.open = false
	v.closes = append(v.closes, now)
}

type fixture struct {
	clk     *clock.Fake
	counter *pulse.Counter
	valve   *fakeValve
	events  []report.Event
	runner  *Runner
}

func newFixture(start uint32) *fixture {
	f := &fixture{
		clk:     clock.NewFake(start),
		counter: pulse.NewCounter(),
		valve:   &fakeValve{},
	}
	sink := report.SinkFunc(func(e report.Event) { f.events = append(f.events, e) })
	f.runner = NewRunner(f.counter, f.valve, f.clk, sink)
	f.runner.NewRunID = func() string { return "run-1" }
	f.runner.Now = func() time.Time { return time.Unix(0, 0) }
	return f
}

// pulseAt fires one pulse at each offset (ms) after every valve opening.
func (f *fixture) pulseAt(offsets ...uint32) {
	f.clk.OnAdvance(func(now uint32) {
		if !f.valve.open {
			return
		}
		for _, off := range offsets {
			if now-f.valve.openedAt == off {
				f.counter.Increment()
			}
		}
	})
}

func (f *fixture) kinds() []report.Kind {
	out := make([]report.Kind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestRunFull_WindowTiming(t *testing.T) {
	for _, seconds := range []int{10, 100} {
		f := newFixture(1000)

		_, err := f.runner.RunFull(seconds)
		require.NoError(t, err)

		require.Len(t, f.valve.opens, 1)
		require.Len(t, f.valve.closes, 1)
		assert.Equal(t, uint32(seconds*1000), f.valve.closes[0]-f.valve.opens[0], "window for %ds", seconds)
		assert.False(t, f.valve.open)
	}
}

func TestRunFull_CountsPulsesInWindow(t *testing.T) {
	f := newFixture(0)
	f.pulseAt(100, 200, 300)

	// Pulses before the run are discarded by the reset at arm.
	f.counter.Increment()
	f.counter.Increment()

	pulses, err := f.runner.RunFull(10)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), pulses)
	assert.Equal(t, uint32(0), f.counter.ReadAndReset(), "counter is zero after reporting")

	last := f.events[len(f.events)-1]
	assert.Equal(t, report.KindResult, last.Kind)
	assert.Equal(t, uint32(3), last.Pulses)
	assert.Equal(t, model.ModeFull, last.Mode)
	assert.Equal(t, 10, last.Seconds)
}

func TestRunFull_ZeroPulses(t *testing.T) {
	f := newFixture(0)

	pulses, err := f.runner.RunFull(10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), pulses)
	assert.Equal(t, report.KindResult, f.events[len(f.events)-1].Kind)
}

func TestRunFull_EventSequence(t *testing.T) {
	f := newFixture(0)

	_, err := f.runner.RunFull(10)
	require.NoError(t, err)

	want := []report.Kind{report.KindStarted}
	for i := 0; i < 9; i++ {
		want = append(want, report.KindProgress)
	}
	want = append(want, report.KindResult)
	assert.Equal(t, want, f.kinds())

	for i, e := range f.events[1:10] {
		assert.Equal(t, i+1, e.Elapsed)
	}
	for _, e := range f.events {
		assert.Equal(t, "run-1", e.RunID)
	}
}

func TestRunFull_AcrossClockWrap(t *testing.T) {
	f := newFixture(math.MaxUint32 - 4999)
	f.pulseAt(1000, 9999)

	pulses, err := f.runner.RunFull(10)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), pulses)
	assert.Equal(t, uint32(10000), f.valve.closes[0]-f.valve.opens[0])
	assert.Less(t, f.valve.closes[0], f.valve.opens[0], "close reading wrapped past zero")
}

func TestRunFull_StateTransitions(t *testing.T) {
	f := newFixture(0)
	var seen []State
	f.runner.OnTransition = func(from, to State) { seen = append(seen, to) }

	_, err := f.runner.RunFull(10)
	require.NoError(t, err)

	assert.Equal(t, []State{StateArmed, StateRunning, StateReporting, StateIdle}, seen)
	assert.Equal(t, StateIdle, f.runner.State())
}

func TestRunSplit_CyclesAndPauses(t *testing.T) {
	f := newFixture(5000)
	f.pulseAt(500)

	pulses, err := f.runner.RunSplit(1)
	require.NoError(t, err)

	assert.Equal(t, uint32(SplitCycles), pulses, "one pulse per window, summed")
	require.Len(t, f.valve.opens, SplitCycles)
	require.Len(t, f.valve.closes, SplitCycles)

	for i := 0; i < SplitCycles; i++ {
		assert.Equal(t, uint32(1000), f.valve.closes[i]-f.valve.opens[i], "cycle %d window", i+1)
		if i > 0 {
			assert.Equal(t, uint32(2000), f.valve.opens[i]-f.valve.closes[i-1], "pause before cycle %d", i+1)
		}
	}

	// 10 windows of 1 s and 9 pauses of 2 s.
	assert.Equal(t, uint32(10*1000+9*2000), f.valve.closes[SplitCycles-1]-f.valve.opens[0])
	assert.Equal(t, uint32(0), f.counter.ReadAndReset())
}

func TestRunSplit_EventSequence(t *testing.T) {
	f := newFixture(0)

	_, err := f.runner.RunSplit(3)
	require.NoError(t, err)

	var want []report.Kind
	want = append(want, report.KindStarted)
	for i := 1; i <= SplitCycles; i++ {
		want = append(want, report.KindCycle, report.KindProgress, report.KindProgress)
		if i < SplitCycles {
			want = append(want, report.KindPause)
		}
	}
	want = append(want, report.KindResult)
	assert.Equal(t, want, f.kinds())

	assert.Equal(t, SplitCycles, f.events[0].Cycles)
	assert.Equal(t, 1, f.events[1].Cycle)
	assert.Equal(t, 1, f.events[2].Cycle)
	assert.Equal(t, 1, f.events[2].Elapsed)
}

func TestRun_Dispatch(t *testing.T) {
	triggers := model.Triggers(func(int) int { return 0 })

	for _, tr := range triggers {
		f := newFixture(0)
		_, err := f.runner.Run(tr)
		require.NoError(t, err)

		want := 1
		if tr.Mode == model.ModeSplit {
			want = SplitCycles
		}
		assert.Len(t, f.valve.opens, want, tr.ID)
	}
}

func TestRun_InvalidDuration(t *testing.T) {
	f := newFixture(0)

	_, err := f.runner.Run(model.Trigger{ID: "5s", Seconds: 5, Mode: model.ModeFull})
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Empty(t, f.valve.opens)
	assert.Empty(t, f.events)
}

func TestRun_UnknownMode(t *testing.T) {
	f := newFixture(0)

	_, err := f.runner.Run(model.Trigger{ID: "10s", Seconds: 10, Mode: "burst"})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestRun_BusyWhileRunning(t *testing.T) {
	f := newFixture(0)
	var nestedErr error
	f.runner.OnTransition = func(from, to State) {
		if to == StateRunning && nestedErr == nil {
			_, nestedErr = f.runner.RunFull(10)
		}
	}

	_, err := f.runner.RunFull(10)
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, ErrBusy)
	assert.Len(t, f.valve.opens, 1)
}
