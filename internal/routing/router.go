// Package routing decides which channels receive an analyzed signal.
package routing

import "github.com/tbourn/go-signal-pipeline/internal/domain"

// Options are the configuration inputs of Route.
type Options struct {
	TelegramEnabled bool
	// ScoringEnabled is false when no real scoring backend runs; chat delivery
	// then ignores the thresholds.
	ScoringEnabled    bool
	PriorityThreshold int
	HourlyThreshold   int
}

// Route is a pure function of its inputs. The inbox always receives the
// signal; Telegram receives it when enabled and either scoring is off, the
// signal is urgent enough, or its score clears the hourly bar.
func Route(a domain.AnalysisResult, o Options) domain.Target {
	t := domain.Target{Inbox: true}
	if !o.TelegramEnabled {
		return t
	}
	if !o.ScoringEnabled {
		t.Telegram = true
		return t
	}
	urgent := a.Urgency == domain.UrgencyNow && a.Score >= o.PriorityThreshold
	t.Telegram = urgent || a.Score >= o.HourlyThreshold
	return t
}
