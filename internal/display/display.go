// Package display renders measurement progress on a character LCD.
package display

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/report"
)

// Device is a character display addressed by column and row.
type Device interface {
	SetCursor(col, row int) error
	Print(s string) error
	Clear() error
	Close() error
}

// Panel writes whole lines to a Device.
type Panel struct {
	mu      sync.Mutex
	dev     Device
	columns int
	rows    int
}

func NewPanel(dev Device, columns, rows int) *Panel {
	return &Panel{dev: dev, columns: columns, rows: rows}
}

// Write blanks line and then prints text from column 0, truncated to the
// panel width.
func (p *Panel) Write(text string, line int) error {
	if line < 0 || line >= p.rows {
		return fmt.Errorf("display line %d out of range (rows=%d)", line, p.rows)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.dev.SetCursor(0, line); err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	if err := p.dev.Print(strings.Repeat(" ", p.columns)); err != nil {
		return fmt.Errorf("clear line %d: %w", line, err)
	}
	if err := p.dev.SetCursor(0, line); err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}

	if len(text) > p.columns {
		text = text[:p.columns]
	}
	if err := p.dev.Print(text); err != nil {
		return fmt.Errorf("print line %d: %w", line, err)
	}
	return nil
}

func (p *Panel) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dev.Clear()
}

func (p *Panel) Close() error {
	return p.dev.Close()
}

// Sink shows measurement events on the panel. Write failures are logged and
// never interrupt a measurement.
type Sink struct {
	Panel *Panel
}

// Lines returns the display text for e. setTop and setBottom report which
// lines the event changes.
func Lines(e report.Event) (top, bottom string, setTop, setBottom bool) {
	switch e.Kind {
	case report.KindStarted:
		if e.Mode == model.ModeSplit {
			return fmt.Sprintf("Running %ds x%d", e.Seconds, e.Cycles), "", true, true
		}
		return "Running", fmt.Sprintf("%d seconds", e.Seconds), true, true
	case report.KindCycle:
		return "", fmt.Sprintf("Cycle: %d", e.Cycle), false, true
	case report.KindProgress:
		if e.Mode == model.ModeFull {
			return "", fmt.Sprintf("%d/%d s", e.Elapsed, e.Seconds), false, true
		}
	case report.KindResult:
		return "Pulses", fmt.Sprintf("%d", e.Pulses), true, true
	}
	return "", "", false, false
}

func (s Sink) Report(e report.Event) {
	top, bottom, setTop, setBottom := Lines(e)
	if setTop {
		s.write(top, 0)
	}
	if setBottom {
		s.write(bottom, 1)
	}
}

func (s Sink) write(text string, line int) {
	if err := s.Panel.Write(text, line); err != nil {
		log.Warn().Err(err).Int("line", line).Msg("Display write failed")
	}
}

// Ready shows the idle screen.
func (p *Panel) Ready() error {
	if err := p.Write("Ready", 0); err != nil {
		return err
	}
	return p.Write("", 1)
}
