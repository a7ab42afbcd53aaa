package notifications

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/config"
	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/report"
)

var client *resty.Client
var topic string
var initialized bool

// Init initializes the notification client
func Init(cfg config.Ntfy) {
	if cfg.Topic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		initialized = false
		return
	}

	client = resty.New().
		SetBaseURL(cfg.Server).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json")
	topic = cfg.Topic
	initialized = true

	log.Info().
		Str("server", cfg.Server).
		Str("topic", topic).
		Msg("Ntfy notifications initialized")
}

func Enabled() bool {
	return initialized
}

// Send publishes a notification using the ntfy JSON API.
func Send(title, message string) error {
	if !initialized {
		return fmt.Errorf("notifications not initialized")
	}

	payload := map[string]interface{}{
		"topic":   topic,
		"title":   title,
		"message": message,
	}

	resp, err := client.R().
		SetBody(payload).
		Post("/")
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode())
	}

	log.Debug().
		Str("title", title).
		Int("status", resp.StatusCode()).
		Msg("Notification sent successfully")

	return nil
}

// Title and Message render a RESULT event.
func Title(e report.Event) string {
	return fmt.Sprintf("Flow measurement %ds", e.Seconds)
}

func Message(e report.Event) string {
	if e.Mode == model.ModeSplit {
		return fmt.Sprintf("%d pulses over %d x %ds windows", e.Pulses, e.Cycles, e.Seconds)
	}
	return fmt.Sprintf("%d pulses in %ds", e.Pulses, e.Seconds)
}

// Sink sends one notification per RESULT. Wrap it in report.Async; Send
// blocks on the network.
type Sink struct{}

func (Sink) Report(e report.Event) {
	if e.Kind != report.KindResult || !initialized {
		return
	}
	if err := Send(Title(e), Message(e)); err != nil {
		log.Warn().Err(err).Str("run_id", e.RunID).Msg("Failed to send result notification")
	}
}
