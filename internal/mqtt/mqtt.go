// Package mqtt publishes measurement events with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/report"
)

// Topic is the MQTT topic for measurement events.
const Topic = "flow/controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "flow/controller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a measurement event. Errors are reported, never fatal.
	Publish(event report.Event) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event such as STARTUP or SHUTDOWN.
type SystemEvent struct {
	Timestamp time.Time
	Event     string
	Reason    string
}

type Payload struct {
	Flow FlowPayload `json:"flow"`
}

type FlowPayload struct {
	RunID     string  `json:"run_id"`
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Mode      string  `json:"mode"`
	Seconds   int     `json:"seconds"`
	Cycle     int     `json:"cycle,omitempty"`
	Cycles    int     `json:"cycles,omitempty"`
	Elapsed   int     `json:"elapsed,omitempty"`
	Pulses    *uint32 `json:"pulses,omitempty"`
}

// FormatPayload creates the JSON payload for a measurement event. Pulses is
// only present on RESULT, where zero is a valid reading.
func FormatPayload(event report.Event) ([]byte, error) {
	p := FlowPayload{
		RunID:     event.RunID,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Kind),
		Mode:      string(event.Mode),
		Seconds:   event.Seconds,
		Cycle:     event.Cycle,
		Cycles:    event.Cycles,
		Elapsed:   event.Elapsed,
	}
	if event.Kind == report.KindResult {
		pulses := event.Pulses
		p.Pulses = &pulses
	}
	return json.Marshal(Payload{Flow: p})
}

type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Sink publishes every event. It blocks on the broker, so wrap it in
// report.Async before handing it to the runner.
type Sink struct {
	Publisher Publisher
}

func (s Sink) Report(e report.Event) {
	if err := s.Publisher.Publish(e); err != nil {
		log.Warn().Err(err).Str("kind", string(e.Kind)).Str("run_id", e.RunID).Msg("MQTT publish failed")
	}
}
