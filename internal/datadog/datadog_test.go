package datadog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/flow-controller/internal/config"
	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/report"
)

type metric struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	metrics []metric
	err     error
	closed  bool
}

func (f *fakeClient) Gauge(name string, value float64, tags []string, rate float64) error {
	f.metrics = append(f.metrics, metric{"gauge", name, value, tags})
	return f.err
}

func (f *fakeClient) Count(name string, value int64, tags []string, rate float64) error {
	f.metrics = append(f.metrics, metric{"count", name, float64(value), tags})
	return f.err
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, rate float64) error {
	f.metrics = append(f.metrics, metric{"histogram", name, value, tags})
	return f.err
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestSink_EmitsOnResultOnly(t *testing.T) {
	fake := &fakeClient{}
	SetClient(fake)
	t.Cleanup(func() { SetClient(nil) })

	Sink{}.Report(report.Event{Kind: report.KindStarted, Mode: model.ModeFull, Seconds: 10})
	Sink{}.Report(report.Event{Kind: report.KindProgress, Mode: model.ModeFull, Seconds: 10, Elapsed: 1})
	assert.Empty(t, fake.metrics)

	Sink{}.Report(report.Event{Kind: report.KindResult, Mode: model.ModeFull, Seconds: 10, Pulses: 321})

	tags := []string{"mode:full", "seconds:10"}
	assert.Equal(t, []metric{
		{"gauge", "pulses", 321, tags},
		{"count", "measurements", 1, tags},
		{"histogram", "window_seconds", 10, tags},
	}, fake.metrics)
}

func TestSink_SplitWindowSecondsCoverAllCycles(t *testing.T) {
	fake := &fakeClient{}
	SetClient(fake)
	t.Cleanup(func() { SetClient(nil) })

	Sink{}.Report(report.Event{Kind: report.KindResult, Mode: model.ModeSplit, Seconds: 3, Cycles: 10, Pulses: 5})

	assert.Equal(t, float64(30), fake.metrics[2].value)
	assert.Equal(t, []string{"mode:split", "seconds:3"}, fake.metrics[2].tags)
}

func TestEmit_ErrorsAreNotFatal(t *testing.T) {
	fake := &fakeClient{err: errors.New("agent down")}
	SetClient(fake)
	t.Cleanup(func() { SetClient(nil) })

	assert.NotPanics(t, func() {
		Gauge("pulses", 1)
		Count("measurements", 1)
		Histogram("window_seconds", 1)
	})
	assert.Len(t, fake.metrics, 3)
}

func TestNilClientIsNoop(t *testing.T) {
	SetClient(nil)
	assert.NotPanics(t, func() {
		Sink{}.Report(report.Event{Kind: report.KindResult})
		Close()
	})
}

func TestInitMetrics_Disabled(t *testing.T) {
	SetClient(nil)
	InitMetrics(config.Datadog{Enabled: false, AgentAddr: "127.0.0.1:8125"})
	assert.Nil(t, dogstatsd)
}

func TestClose(t *testing.T) {
	fake := &fakeClient{}
	SetClient(fake)
	Close()
	assert.True(t, fake.closed)
	assert.Nil(t, dogstatsd)
}
