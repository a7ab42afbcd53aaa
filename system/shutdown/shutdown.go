package shutdown

import (
	"github.com/rs/zerolog/log"
	"github.com/tebeka/atexit"

	"github.com/thatsimonsguy/flow-controller/internal/env"
	"github.com/thatsimonsguy/flow-controller/internal/pinctrl"
)

// ExitFunc runs registered exit handlers and terminates. Replaced in tests.
var ExitFunc = atexit.Exit

// driveLevel is the pin writer used by CloseValve. Replaced in tests.
var driveLevel = pinctrl.DriveLevel

// RegisterValveGuard makes every exit path leave the valve closed.
func RegisterValveGuard() {
	atexit.Register(CloseValve)
}

// CloseValve drives the configured valve pin to its closed (inactive) level.
func CloseValve() {
	if env.Cfg == nil || env.Cfg.GPIO.Valve == nil {
		return
	}
	if env.Cfg.SafeMode {
		log.Warn().Msg("Safe mode enabled - leaving valve pin untouched on exit")
		return
	}

	pin := env.Cfg.ValvePin()
	if err := driveLevel(pin.Number, !pin.ActiveHigh); err != nil {
		log.Error().Err(err).Int("pin", pin.Number).Msg("Failed to close valve on exit")
		return
	}
	log.Info().Int("pin", pin.Number).Msg("Valve driven closed")
}

func Shutdown() {
	ExitFunc(0)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	ExitFunc(1)
}
