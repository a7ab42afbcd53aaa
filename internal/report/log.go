package report

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogSink writes one line per event. A nil Logger uses the global logger.
type LogSink struct {
	Logger *zerolog.Logger
}

func (s LogSink) Report(e Event) {
	l := log.Logger
	if s.Logger != nil {
		l = *s.Logger
	}

	switch e.Kind {
	case KindStarted:
		ev := l.Info().Str("run_id", e.RunID).Str("mode", string(e.Mode)).Int("seconds", e.Seconds)
		if e.Cycles > 0 {
			ev = ev.Int("cycles", e.Cycles)
		}
		ev.Msg("Measurement started")
	case KindCycle:
		l.Info().Str("run_id", e.RunID).Int("cycle", e.Cycle).Int("cycles", e.Cycles).Msg("Cycle started")
	case KindProgress:
		ev := l.Debug().Str("run_id", e.RunID).Int("elapsed", e.Elapsed).Int("seconds", e.Seconds)
		if e.Cycle > 0 {
			ev = ev.Int("cycle", e.Cycle)
		}
		ev.Msg("Progress")
	case KindPause:
		l.Info().Str("run_id", e.RunID).Int("cycle", e.Cycle).Msg("Pausing between cycles")
	case KindResult:
		l.Info().Str("run_id", e.RunID).Str("mode", string(e.Mode)).Int("seconds", e.Seconds).
			Uint32("pulses", e.Pulses).Msg("Measurement complete")
	default:
		l.Warn().Str("kind", string(e.Kind)).Msg("Unknown event kind")
	}
}
