// Package analysis scores collected signals. Every Analyzer returns a
// complete, clamped domain.AnalysisResult and never fails: the Heuristic is
// deterministic and the Remote analyzer falls back to it on any problem.
package analysis

import (
	"context"
	"strings"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// Analyzer produces a verdict for one event.
type Analyzer interface {
	Analyze(ctx context.Context, ev domain.SignalEvent) domain.AnalysisResult
}

const (
	baseScore       = 20
	keywordBonus    = 12
	heuristicConfid = 0.62

	// Urgency tier boundaries, inclusive.
	NowThreshold   = 80
	TodayThreshold = 50
)

var hotWords = []string{"launch", "release", "breaking", "new", "api", "model", "shipping", "open source"}

// UrgencyFor maps a score onto its urgency tier.
func UrgencyFor(score int) domain.Urgency {
	switch {
	case score >= NowThreshold:
		return domain.UrgencyNow
	case score >= TodayThreshold:
		return domain.UrgencyToday
	default:
		return domain.UrgencyWeekly
	}
}

// KeywordScore is the base score plus a bonus for every hot word found in
// the lower-cased title and snippet, clamped to [0,100].
func KeywordScore(title, snippet string) int {
	text := strings.ToLower(title + " " + snippet)
	score := baseScore
	for _, w := range hotWords {
		if strings.Contains(text, w) {
			score += keywordBonus
		}
	}
	return domain.ClampScore(score)
}

// Heuristic is the offline analyzer.
type Heuristic struct{}

// Analyze implements Analyzer.
func (Heuristic) Analyze(_ context.Context, ev domain.SignalEvent) domain.AnalysisResult {
	score := KeywordScore(ev.Title, ev.Snippet)
	return domain.AnalysisResult{
		Summary:    ev.Author + " posted about: " + ev.Title,
		Pros:       []string{"Potentially relevant update", "Fast to evaluate from source link"},
		Cons:       []string{"Could be hype without depth", "May not fit current stack"},
		HowToUse:   []string{"Read source in 2 minutes", "Tag as experiment or ignore"},
		WhereToUse: []string{"Product discovery", "Engineering roadmap", "Content strategy"},
		Audience:   "Builders tracking fast-moving dev and AI ecosystems",
		Score:      score,
		Urgency:    UrgencyFor(score),
		Confidence: heuristicConfid,
	}
}
