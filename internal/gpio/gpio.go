// Package gpio drives the valve output through pinctrl and reads the flow
// meter and trigger buttons through the Linux GPIO character device.
package gpio

import (
	"fmt"

	"github.com/thatsimonsguy/flow-controller/internal/config"
	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/pinctrl"
	"github.com/thatsimonsguy/flow-controller/system/shutdown"
)

var safeMode bool

var (
	setLevel  = pinctrl.DriveLevel
	readLevel = pinctrl.ReadLevel
)

// MockGPIO replaces the pin backend. set receives the electrical level.
func MockGPIO(set func(pin int, high bool), read func(pin int) bool) {
	setLevel = func(pin int, high bool) error {
		set(pin, high)
		return nil
	}
	readLevel = func(pin int) (bool, error) {
		return read(pin), nil
	}
}

// ResetGPIO restores the pinctrl backend and leaves safe mode.
func ResetGPIO() {
	setLevel = pinctrl.DriveLevel
	readLevel = pinctrl.ReadLevel
	safeMode = false
}

func SetSafeMode(enabled bool) {
	safeMode = enabled
}

func Read(pin model.GPIOPin) bool {
	level, err := readLevel(pin.Number)
	if err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to read pin level for pin %d", pin.Number))
	}
	return level
}

var Activate = func(pin model.GPIOPin) {
	if safeMode {
		return
	}
	if err := setLevel(pin.Number, pin.ActiveHigh); err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to activate pin %d", pin.Number))
	}
}

var Deactivate = func(pin model.GPIOPin) {
	if safeMode {
		return
	}
	if err := setLevel(pin.Number, !pin.ActiveHigh); err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to deactivate pin %d", pin.Number))
	}
}

var CurrentlyActive = func(pin model.GPIOPin) bool {
	level := Read(pin)
	return pin.ActiveHigh == level
}

// ValidateStartupPins refuses to run when the valve output reads open. The
// caller drives the valve closed first, so a mismatch means the pin is not
// under our control.
func ValidateStartupPins(cfg config.Config) error {
	if safeMode {
		return nil
	}

	valve := cfg.ValvePin()
	level, err := readLevel(valve.Number)
	if err != nil {
		return fmt.Errorf("failed to read pin level for valve (GPIO %d): %w", valve.Number, err)
	}
	if level == valve.ActiveHigh {
		return fmt.Errorf("pin %d (valve) is in wrong state at startup (expected closed)", valve.Number)
	}
	return nil
}
