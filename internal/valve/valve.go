// Package valve drives the solenoid valve that gates the flow meter.
package valve

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/gpio"
	"github.com/thatsimonsguy/flow-controller/internal/model"
)

// Valve is open-loop: every Open or Close issues exactly one command, even
// when the valve is already in that state. The tracked state is only used
// for reporting.
type Valve struct {
	Name      string
	Pin       model.GPIOPin
	OpenFunc  func()
	CloseFunc func()

	mu          sync.Mutex
	open        bool
	lastChanged uint32
}

// New returns a valve actuated through the GPIO pin.
func New(name string, pin model.GPIOPin) *Valve {
	return &Valve{
		Name:      name,
		Pin:       pin,
		OpenFunc:  func() { gpio.Activate(pin) },
		CloseFunc: func() { gpio.Deactivate(pin) },
	}
}

func (v *Valve) Open(now uint32) {
	v.OpenFunc()

	v.mu.Lock()
	v.open = true
	v.lastChanged = now
	v.mu.Unlock()

	log.Debug().Str("valve", v.Name).Int("pin", v.Pin.Number).Msg("Opened")
}

func (v *Valve) Close(now uint32) {
	v.CloseFunc()

	v.mu.Lock()
	v.open = false
	v.lastChanged = now
	v.mu.Unlock()

	log.Debug().Str("valve", v.Name).Int("pin", v.Pin.Number).Msg("Closed")
}

func (v *Valve) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// LastChanged is the clock reading of the last command.
func (v *Valve) LastChanged() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastChanged
}
