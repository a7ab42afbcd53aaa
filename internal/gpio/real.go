//go:build linux

package gpio

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"
)

// RealTriggerReader reads the buttons from the GPIO character device.
type RealTriggerReader struct {
	lines *gpiocdev.Lines
	pins  []int
}

// NewTriggerReader requests pins as inputs with pull-ups on chip.
func NewTriggerReader(chip string, pins []int) (*RealTriggerReader, error) {
	lines, err := gpiocdev.RequestLines(chip, pins, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request trigger pins %v: %w", pins, err)
	}
	return &RealTriggerReader{lines: lines, pins: pins}, nil
}

func (r *RealTriggerReader) Read() ([]bool, error) {
	raw := make([]int, len(r.pins))
	if err := r.lines.Values(raw); err != nil {
		return nil, fmt.Errorf("read trigger pins: %w", err)
	}

	pressed := make([]bool, len(raw))
	for i, v := range raw {
		pressed[i] = v == 0
	}
	return pressed, nil
}

func (r *RealTriggerReader) Close() error {
	if r.lines == nil {
		return nil
	}
	if err := r.lines.Close(); err != nil {
		return fmt.Errorf("close trigger pins: %w", err)
	}
	return nil
}

// EdgeWatcher forwards falling edges on the flow-meter line to a callback.
// gpiocdev runs the handler on its own event goroutine, which plays the role
// of the interrupt context.
type EdgeWatcher struct {
	line *gpiocdev.Line
}

// WatchFallingEdges requests pin with a pull-up and calls onEdge for every
// falling edge until Close.
func WatchFallingEdges(chip string, pin int, onEdge func()) (*EdgeWatcher, error) {
	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type == gpiocdev.LineEventFallingEdge {
			onEdge()
		}
	}

	line, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		return nil, fmt.Errorf("request flow meter pin %d: %w", pin, err)
	}

	log.Info().Str("chip", chip).Int("pin", pin).Msg("Watching flow meter falling edges")
	return &EdgeWatcher{line: line}, nil
}

func (w *EdgeWatcher) Close() error {
	if w.line == nil {
		return nil
	}
	if err := w.line.Close(); err != nil {
		return fmt.Errorf("close flow meter pin: %w", err)
	}
	return nil
}
