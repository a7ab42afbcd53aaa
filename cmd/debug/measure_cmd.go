package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/flow-controller/internal/clock"
	"github.com/thatsimonsguy/flow-controller/internal/display"
	"github.com/thatsimonsguy/flow-controller/internal/env"
	"github.com/thatsimonsguy/flow-controller/internal/gpio"
	"github.com/thatsimonsguy/flow-controller/internal/measurement"
	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/pulse"
	"github.com/thatsimonsguy/flow-controller/internal/report"
	"github.com/thatsimonsguy/flow-controller/internal/valve"
	"github.com/thatsimonsguy/flow-controller/system/shutdown"
)

var measureMode string

var measureCmd = &cobra.Command{
	Use:   "measure <trigger-id>",
	Short: "Run one measurement on the hardware, as if the trigger was pressed",
	Long: `Run one measurement on the hardware. The trigger id is one of 1s, 3s, 10s ` +
		`or 100s. Any other "<n>s" is passed to the runner with --mode and rejected ` +
		`unless n is one of the fixed durations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		trigger, err := resolveTrigger(cfg.Triggers(), args[0], model.Mode(measureMode))
		if err != nil {
			return err
		}

		env.Cfg = &cfg
		gpio.SetSafeMode(cfg.SafeMode)
		shutdown.RegisterValveGuard()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			shutdown.Shutdown()
		}()

		clk := clock.NewSystem()
		solenoid := valve.New("solenoid", cfg.ValvePin())
		solenoid.Close(clk.Millis())

		counter := pulse.NewCounter()
		meter, err := gpio.WatchFallingEdges(cfg.GPIOChip, *cfg.GPIO.FlowMeter, counter.Increment)
		if err != nil {
			return err
		}
		defer meter.Close()

		sinks := report.Multi{report.LogSink{}}
		if cfg.Display.Port != "" {
			dev, err := display.OpenSerial(cfg.Display.Port, cfg.Display.Baud)
			if err != nil {
				return err
			}
			panel := display.NewPanel(dev, cfg.Display.Columns, cfg.Display.Rows)
			defer panel.Close()
			sinks = append(sinks, display.Sink{Panel: panel})
		}

		runner := measurement.NewRunner(counter, solenoid, clk, sinks)
		pulses, err := runner.Run(trigger)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pulses\n", trigger.ID, pulses)
		return nil
	},
}

// resolveTrigger looks id up in the trigger table. Unknown ids of the form
// "<n>s" become ad-hoc triggers so the runner's duration check is reachable.
func resolveTrigger(triggers []model.Trigger, id string, mode model.Mode) (model.Trigger, error) {
	if t, ok := model.FindTrigger(triggers, id); ok {
		return t, nil
	}

	seconds, err := strconv.Atoi(strings.TrimSuffix(id, "s"))
	if err != nil || !strings.HasSuffix(id, "s") {
		return model.Trigger{}, fmt.Errorf("unknown trigger %q", id)
	}
	return model.Trigger{ID: id, Seconds: seconds, Mode: mode}, nil
}

func init() {
	measureCmd.Flags().StringVar(&measureMode, "mode", string(model.ModeFull), "Mode for ad-hoc durations (full or split)")
	rootCmd.AddCommand(measureCmd)
}
