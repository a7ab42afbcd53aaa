package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/flow-controller/internal/config"
	"github.com/thatsimonsguy/flow-controller/internal/model"
)

func mockPins(t *testing.T) map[int]bool {
	t.Helper()
	ResetGPIO()
	t.Cleanup(ResetGPIO)

	fakeState := map[int]bool{}
	MockGPIO(
		func(pin int, high bool) { fakeState[pin] = high },
		func(pin int) bool { return fakeState[pin] },
	)
	return fakeState
}

func TestActivateDeactivate_InvertedValve(t *testing.T) {
	state := mockPins(t)
	valve := model.GPIOPin{Number: 22, ActiveHigh: false}

	Activate(valve)
	assert.False(t, state[22], "open valve should be driven LOW")
	assert.True(t, CurrentlyActive(valve))

	Deactivate(valve)
	assert.True(t, state[22], "closed valve should be driven HIGH")
	assert.False(t, CurrentlyActive(valve))
}

func TestActivate_SafeModeSkipsWrites(t *testing.T) {
	state := mockPins(t)
	SetSafeMode(true)

	Activate(model.GPIOPin{Number: 22, ActiveHigh: true})

	_, written := state[22]
	assert.False(t, written)
}

func TestValidateStartupPins_Valid(t *testing.T) {
	state := mockPins(t)
	cfg := config.Default()

	state[22] = true // HIGH = closed

	require.NoError(t, ValidateStartupPins(cfg))
}

func TestValidateStartupPins_ValveOpen(t *testing.T) {
	state := mockPins(t)
	cfg := config.Default()

	state[22] = false // LOW = open

	err := ValidateStartupPins(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pin 22 (valve)")
}

func TestValidateStartupPins_ActiveHighValve(t *testing.T) {
	state := mockPins(t)
	cfg := config.Default()
	cfg.ValveActiveHigh = true

	state[22] = false
	assert.NoError(t, ValidateStartupPins(cfg))

	state[22] = true
	assert.Error(t, ValidateStartupPins(cfg))
}

func TestValidateStartupPins_ReadError(t *testing.T) {
	mockPins(t)
	readLevel = func(int) (bool, error) { return false, errors.New("pinctrl not found") }

	assert.Error(t, ValidateStartupPins(config.Default()))
}

func TestFakeTriggerReader(t *testing.T) {
	f := NewFakeTriggerReader(
		[]bool{false, false, true, false},
		[]bool{false, false, false, false},
	)

	got, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, false}, got)

	got, _ = f.Read()
	assert.Equal(t, []bool{false, false, false, false}, got)

	// Exhausted samples repeat the last one.
	got, _ = f.Read()
	assert.Equal(t, []bool{false, false, false, false}, got)
	assert.Equal(t, 3, f.Reads)

	f.ReadError = errors.New("simulated error")
	_, err = f.Read()
	assert.EqualError(t, err, "simulated error")

	require.NoError(t, f.Close())
	assert.True(t, f.Closed)
}

func TestFakeTriggerReader_NoSamples(t *testing.T) {
	_, err := NewFakeTriggerReader().Read()
	assert.Error(t, err)
}
