package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/flow-controller/internal/gpio"
	"github.com/thatsimonsguy/flow-controller/internal/valve"
)

var valveCmd = &cobra.Command{
	Use:       "valve open|close",
	Short:     "Drive the valve by hand",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"open", "close"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gpio.SetSafeMode(cfg.SafeMode)

		v := valve.New("solenoid", cfg.ValvePin())
		switch args[0] {
		case "open":
			v.Open(0)
		case "close":
			v.Close(0)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "valve on GPIO%d: %s\n", cfg.ValvePin().Number, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(valveCmd)
}
