package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/flow-controller/internal/pinctrl"
)

var readAllPins = pinctrl.ReadAllPins

var pinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "Show the pinctrl state of every configured pin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		states, err := readAllPins()
		if err != nil {
			return fmt.Errorf("read pins: %w", err)
		}

		rows := []struct {
			label string
			pin   int
		}{
			{"flow_meter", *cfg.GPIO.FlowMeter},
			{"valve", *cfg.GPIO.Valve},
		}
		for _, t := range cfg.Triggers() {
			rows = append(rows, struct {
				label string
				pin   int
			}{"trigger_" + t.ID, t.Pin.Number})
		}

		out := cmd.OutOrStdout()
		for _, r := range rows {
			st, ok := states[r.pin]
			if !ok {
				fmt.Fprintf(out, "%-14s GPIO%-3d not reported\n", r.label, r.pin)
				continue
			}
			fmt.Fprintf(out, "%-14s GPIO%-3d %s %s %s %s\n", r.label, r.pin, st.Mode, st.Pull, st.Drive, st.Level)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pinsCmd)
}
