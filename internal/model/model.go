package model

import "fmt"

type Mode string

const (
	ModeFull  Mode = "full"
	ModeSplit Mode = "split"
)

type GPIOPin struct {
	Number     int
	ActiveHigh bool
}

// Trigger binds one operator button to a fixed measurement.
type Trigger struct {
	ID      string  `json:"id"`
	Seconds int     `json:"seconds"`
	Mode    Mode    `json:"mode"`
	Pin     GPIOPin `json:"pin"`
}

// durations are the only legal window lengths, in poll order.
var durations = []struct {
	seconds int
	mode    Mode
}{
	{1, ModeSplit},
	{3, ModeSplit},
	{10, ModeFull},
	{100, ModeFull},
}

// TriggerID names the trigger for a duration, e.g. "10s".
func TriggerID(seconds int) string {
	return fmt.Sprintf("%ds", seconds)
}

// ValidDuration reports whether seconds is one of the fixed window lengths.
func ValidDuration(seconds int) bool {
	for _, d := range durations {
		if d.seconds == seconds {
			return true
		}
	}
	return false
}

// Triggers returns the fixed trigger table with pins assigned from the given
// lookup. Buttons are wired active-low with pull-ups.
func Triggers(pinFor func(seconds int) int) []Trigger {
	out := make([]Trigger, 0, len(durations))
	for _, d := range durations {
		out = append(out, Trigger{
			ID:      TriggerID(d.seconds),
			Seconds: d.seconds,
			Mode:    d.mode,
			Pin:     GPIOPin{Number: pinFor(d.seconds), ActiveHigh: false},
		})
	}
	return out
}

// FindTrigger looks a trigger up by ID.
func FindTrigger(triggers []Trigger, id string) (Trigger, bool) {
	for _, t := range triggers {
		if t.ID == id {
			return t, true
		}
	}
	return Trigger{}, false
}
