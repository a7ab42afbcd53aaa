// Command flow-debug is the maintenance CLI for bench work on the flow
// controller hardware.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
