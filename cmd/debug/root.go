package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/flow-controller/internal/config"
)

var (
	configFile string
	envFile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flow-debug",
	Short: "Maintenance commands for the flow controller.",
	Long: `Maintenance commands for the flow controller: inspect pins, drive the ` +
		`valve by hand, run a single measurement and install the boot units.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "/etc/flow-controller/config.yaml", "Path to controller config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Optional dotenv file with secrets")
}

// loadConfig turns the config package's validation panics into errors.
func loadConfig() (cfg config.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return config.LoadFile(configFile, envFile)
}
