package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/flow-controller/system/startup"
)

var runScript bool

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot-time pin setup",
}

var bootInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Write the GPIO boot script and the systemd units",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := startup.Install(cfg); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "wrote %s\n", cfg.Boot.ScriptPath)
		fmt.Fprintf(out, "wrote %s\n", cfg.Boot.ServicePath)
		fmt.Fprintf(out, "wrote %s\n", cfg.Boot.MainServicePath)

		if runScript {
			if err := startup.RunStartupScript(cfg); err != nil {
				return fmt.Errorf("run boot script: %w", err)
			}
			fmt.Fprintln(out, "boot script applied")
		}
		return nil
	},
}

func init() {
	bootInstallCmd.Flags().BoolVar(&runScript, "run", false, "Run the boot script after writing it")
	bootCmd.AddCommand(bootInstallCmd)
	rootCmd.AddCommand(bootCmd)
}
