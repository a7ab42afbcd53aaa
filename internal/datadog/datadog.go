package datadog

import (
	"strconv"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/config"
	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/report"
)

// Client is the subset of statsd.ClientInterface the controller emits with.
type Client interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Close() error
}

var dogstatsd Client

func InitMetrics(cfg config.Datadog) {
	if !cfg.Enabled {
		log.Info().Msg("Datadog metrics disabled")
		return
	}

	c, err := statsd.New(cfg.AgentAddr,
		statsd.WithNamespace(cfg.Namespace),
		statsd.WithTags(cfg.Tags))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}
	dogstatsd = c

	log.Info().
		Str("addr", cfg.AgentAddr).
		Str("namespace", cfg.Namespace).
		Strs("tags", cfg.Tags).
		Msg("Datadog metrics initialized")
}

// SetClient replaces the statsd client. A nil client disables emission.
func SetClient(c Client) {
	dogstatsd = c
}

func Close() {
	if dogstatsd == nil {
		return
	}
	if err := dogstatsd.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close DogStatsD client")
	}
	dogstatsd = nil
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Gauge(name, value, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

func Count(name string, value int64, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Count(name, value, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit count metric")
		}
	}
}

func Histogram(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Histogram(name, value, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit histogram metric")
		}
	}
}

// Sink emits one set of metrics per completed measurement.
type Sink struct{}

func (Sink) Report(e report.Event) {
	if e.Kind != report.KindResult {
		return
	}

	tags := []string{"mode:" + string(e.Mode), "seconds:" + strconv.Itoa(e.Seconds)}

	open := e.Seconds
	if e.Mode == model.ModeSplit && e.Cycles > 0 {
		open *= e.Cycles
	}

	Gauge("pulses", float64(e.Pulses), tags...)
	Count("measurements", 1, tags...)
	Histogram("window_seconds", float64(open), tags...)
}
