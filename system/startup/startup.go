package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thatsimonsguy/flow-controller/internal/config"
	"github.com/thatsimonsguy/flow-controller/internal/model"
)

// Script renders the boot-time pin setup: inputs get pull-ups and the valve
// is driven to its closed level before the controller starts.
func Script(cfg config.Config) string {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Flow controller GPIO pin configuration at boot", "")

	input := func(label string, pin int) {
		lines = append(lines, fmt.Sprintf("# %s", label))
		lines = append(lines, fmt.Sprintf("pinctrl set %d ip pu", pin))
		lines = append(lines, "")
	}
	output := func(label string, pin model.GPIOPin, active bool) {
		drive := "dl"
		if pin.ActiveHigh == active {
			drive = "dh"
		}
		lines = append(lines, fmt.Sprintf("# %s", label))
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn %s", pin.Number, drive))
		lines = append(lines, "")
	}

	output("valve (closed)", cfg.ValvePin(), false)
	input("flow_meter", *cfg.GPIO.FlowMeter)
	for _, t := range cfg.Triggers() {
		input("trigger_"+t.ID, t.Pin.Number)
	}

	return strings.Join(lines, "\n") + "\n"
}

func WriteStartupScript(cfg config.Config) error {
	return os.WriteFile(cfg.Boot.ScriptPath, []byte(Script(cfg)), 0755)
}

func InstallStartupService(cfg config.Config) error {
	unitContents := fmt.Sprintf(`[Unit]
Description=Configure flow controller GPIO pins at boot
After=network.target

[Service]
Type=oneshot
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
RemainAfterExit=true

[Install]
WantedBy=multi-user.target
`, cfg.Boot.ScriptPath)

	return os.WriteFile(cfg.Boot.ServicePath, []byte(unitContents), 0644)
}

func InstallControllerService(cfg config.Config) error {
	gpioUnitName := filepath.Base(cfg.Boot.ServicePath)

	execCmd := cfg.Boot.BinaryPath
	if cfg.ConfigFile != "" {
		execCmd += " -config-file " + cfg.ConfigFile
	}
	if cfg.EnvFile != "" {
		execCmd += " -env-file " + cfg.EnvFile
	}

	unit := fmt.Sprintf(`[Unit]
Description=Flow controller main service
After=%s
Requires=%s

[Service]
Type=simple
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
Restart=on-failure
RestartSec=5s
KillSignal=SIGTERM
TimeoutStopSec=150s

[Install]
WantedBy=multi-user.target
`, gpioUnitName, gpioUnitName, execCmd)

	return os.WriteFile(cfg.Boot.MainServicePath, []byte(unit), 0644)
}

// Install writes the boot script and both systemd units.
func Install(cfg config.Config) error {
	if err := WriteStartupScript(cfg); err != nil {
		return fmt.Errorf("write boot script: %w", err)
	}
	if err := InstallStartupService(cfg); err != nil {
		return fmt.Errorf("install gpio service: %w", err)
	}
	if err := InstallControllerService(cfg); err != nil {
		return fmt.Errorf("install controller service: %w", err)
	}
	return nil
}

func RunStartupScript(cfg config.Config) error {
	cmd := exec.Command("/bin/bash", cfg.Boot.ScriptPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
