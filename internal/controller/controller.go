// Package controller polls the trigger buttons and dispatches measurements.
package controller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/clock"
	"github.com/thatsimonsguy/flow-controller/internal/debounce"
	"github.com/thatsimonsguy/flow-controller/internal/gpio"
	"github.com/thatsimonsguy/flow-controller/internal/model"
)

type Runner interface {
	Run(trigger model.Trigger) (uint32, error)
}

type Controller struct {
	triggers  []model.Trigger
	reader    gpio.TriggerReader
	debouncer *debounce.Debouncer
	runner    Runner
	clock     clock.Clock
}

// New returns a controller. reader must return one flag per trigger, in
// the same order as triggers.
func New(triggers []model.Trigger, reader gpio.TriggerReader, debouncer *debounce.Debouncer, runner Runner, clk clock.Clock) *Controller {
	return &Controller{
		triggers:  triggers,
		reader:    reader,
		debouncer: debouncer,
		runner:    runner,
		clock:     clk,
	}
}

// Poll samples every trigger once. The first pressed trigger that passes the
// debouncer runs to completion and ends the poll; the next poll re-reads the
// inputs. Poll reports whether a measurement ran.
func (c *Controller) Poll() bool {
	pressed, err := c.reader.Read()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read trigger inputs")
		return false
	}
	if len(pressed) != len(c.triggers) {
		log.Error().Int("expected", len(c.triggers)).Int("got", len(pressed)).Msg("Trigger sample size mismatch")
		return false
	}

	for i, t := range c.triggers {
		if !pressed[i] {
			continue
		}
		if !c.debouncer.TryAccept(t.ID, c.clock.Millis()) {
			continue
		}

		log.Info().Str("trigger", t.ID).Str("mode", string(t.Mode)).Int("seconds", t.Seconds).Msg("Trigger accepted")

		pulses, err := c.runner.Run(t)
		if err != nil {
			log.Error().Err(err).Str("trigger", t.ID).Msg("Measurement failed")
		} else {
			log.Debug().Str("trigger", t.ID).Uint32("pulses", pulses).Msg("Measurement returned")
		}

		c.debouncer.Touch(t.ID, c.clock.Millis())
		return true
	}
	return false
}

// Run polls every tick until ctx is cancelled. A measurement in progress is
// never interrupted; cancellation is seen after it returns.
func (c *Controller) Run(ctx context.Context, tick time.Duration) {
	log.Info().Int("triggers", len(c.triggers)).Dur("tick", tick).Msg("Starting trigger poll loop")

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Trigger poll loop stopped")
			return
		case <-ticker.C:
			c.Poll()
		}
	}
}
