// Command flow-controller runs timed valve windows on button press and
// reports the flow-meter pulses counted in each.
package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/api"
	"github.com/thatsimonsguy/flow-controller/internal/clock"
	"github.com/thatsimonsguy/flow-controller/internal/config"
	"github.com/thatsimonsguy/flow-controller/internal/controller"
	"github.com/thatsimonsguy/flow-controller/internal/datadog"
	"github.com/thatsimonsguy/flow-controller/internal/debounce"
	"github.com/thatsimonsguy/flow-controller/internal/display"
	"github.com/thatsimonsguy/flow-controller/internal/env"
	"github.com/thatsimonsguy/flow-controller/internal/gpio"
	"github.com/thatsimonsguy/flow-controller/internal/logging"
	"github.com/thatsimonsguy/flow-controller/internal/measurement"
	"github.com/thatsimonsguy/flow-controller/internal/mqtt"
	"github.com/thatsimonsguy/flow-controller/internal/notifications"
	"github.com/thatsimonsguy/flow-controller/internal/pulse"
	"github.com/thatsimonsguy/flow-controller/internal/report"
	"github.com/thatsimonsguy/flow-controller/internal/status"
	"github.com/thatsimonsguy/flow-controller/internal/valve"
	"github.com/thatsimonsguy/flow-controller/system/shutdown"
)

const (
	pollTick       = 5 * time.Millisecond
	sinkQueueDepth = 64
)

func main() {
	cfg := config.Load()
	env.Cfg = &cfg
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("gpio_chip", cfg.GPIOChip).
		Msg("Starting flow controller")

	gpio.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED - valve writes are disabled system-wide")
	}

	shutdown.RegisterValveGuard()

	if err := run(cfg); err != nil {
		shutdown.ShutdownWithError(err, "Flow controller stopped with error")
	}
	shutdown.Shutdown()
}

func run(cfg config.Config) error {
	clk := clock.NewSystem()

	solenoid := valve.New("solenoid", cfg.ValvePin())
	solenoid.Close(clk.Millis())

	if err := gpio.ValidateStartupPins(cfg); err != nil {
		return fmt.Errorf("refusing to run with unsafe valve state: %w", err)
	}

	counter := pulse.NewCounter()
	meter, err := gpio.WatchFallingEdges(cfg.GPIOChip, *cfg.GPIO.FlowMeter, counter.Increment)
	if err != nil {
		return fmt.Errorf("init flow meter: %w", err)
	}
	defer meter.Close()

	triggers := cfg.Triggers()
	pins := make([]int, len(triggers))
	for i, t := range triggers {
		pins[i] = t.Pin.Number
	}
	reader, err := gpio.NewTriggerReader(cfg.GPIOChip, pins)
	if err != nil {
		return fmt.Errorf("init triggers: %w", err)
	}
	defer reader.Close()

	tracker := status.NewTracker(time.Now())
	sinks := report.Multi{report.LogSink{}, tracker}

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	panel := openDisplay(cfg)
	if panel != nil {
		sinks = append(sinks, display.Sink{Panel: panel})
		closers = append(closers, func() { closeQuietly("display", panel) })
	}

	publisher := openMQTT(cfg, tracker)
	if publisher != nil {
		async := report.NewAsync("mqtt", mqtt.Sink{Publisher: publisher}, sinkQueueDepth)
		sinks = append(sinks, async)
		closers = append(closers, func() {
			async.Close()
			if err := publisher.PublishSystem(mqtt.SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN"}); err != nil {
				log.Warn().Err(err).Msg("Failed to publish shutdown event")
			}
			closeQuietly("mqtt", publisher)
		})
	}

	datadog.InitMetrics(cfg.Datadog)
	sinks = append(sinks, datadog.Sink{})
	closers = append(closers, datadog.Close)

	notifications.Init(cfg.Ntfy)
	if notifications.Enabled() {
		async := report.NewAsync("ntfy", notifications.Sink{}, sinkQueueDepth)
		sinks = append(sinks, async)
		closers = append(closers, async.Close)
	}

	runner := measurement.NewRunner(counter, solenoid, clk, sinks)
	runner.OnTransition = func(_, to measurement.State) {
		tracker.SetState(to.String())
	}

	if cfg.API.Port > 0 {
		srv := api.NewServer(tracker, triggers)
		go func() {
			if err := srv.Start(cfg.API.Port); err != nil {
				log.Error().Err(err).Msg("Status API server failed")
			}
		}()
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("Status API shutdown failed")
			}
		})
	}

	ctrl := controller.New(triggers, reader, debounce.New(debounce.DefaultDelay), runner, clk)

	if panel != nil {
		if err := panel.Ready(); err != nil {
			log.Warn().Err(err).Msg("Display write failed")
		}
	}
	log.Info().Msg("Ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl.Run(ctx, pollTick)

	log.Info().Msg("Shutting down")
	return nil
}

func openDisplay(cfg config.Config) *display.Panel {
	if cfg.Display.Port == "" {
		log.Info().Msg("Display port not configured - display disabled")
		return nil
	}
	dev, err := display.OpenSerial(cfg.Display.Port, cfg.Display.Baud)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open display - continuing without it")
		return nil
	}
	panel := display.NewPanel(dev, cfg.Display.Columns, cfg.Display.Rows)
	if err := panel.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear display")
	}
	return panel
}

func openMQTT(cfg config.Config, tracker *status.Tracker) *mqtt.RealPublisher {
	if cfg.MQTT.Broker == "" {
		log.Info().Msg("MQTT broker not configured - MQTT disabled")
		return nil
	}
	publisher, err := mqtt.NewRealPublisher(cfg.MQTT, tracker.SetMQTTConnected)
	if err != nil {
		log.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("Failed to connect to MQTT broker - continuing without it")
		return nil
	}
	if err := publisher.PublishSystem(mqtt.SystemEvent{Timestamp: time.Now(), Event: "STARTUP"}); err != nil {
		log.Warn().Err(err).Msg("Failed to publish startup event")
	}
	return publisher
}

func closeQuietly(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn().Err(err).Str("resource", name).Msg("Close failed")
	}
}

