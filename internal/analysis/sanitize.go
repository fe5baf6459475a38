package analysis

import (
	"math"
	"strings"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/utils"
)

const (
	maxListItems  = 6
	maxItemRunes  = 200
	maxTextRunes  = 600
	truncatedMark = "..."
)

// Sanitize builds a result from loosely typed model output. Each field is
// validated on its own and replaced by the matching fallback field when
// missing or invalid, so one bad field never discards the rest.
func Sanitize(raw map[string]any, fb domain.AnalysisResult) domain.AnalysisResult {
	out := domain.AnalysisResult{
		Summary:    text(raw["summary"], fb.Summary),
		Pros:       list(raw["pros"], fb.Pros),
		Cons:       list(raw["cons"], fb.Cons),
		HowToUse:   list(raw["how_to_use"], fb.HowToUse),
		WhereToUse: list(raw["where_to_use"], fb.WhereToUse),
		Audience:   text(raw["audience"], fb.Audience),
		Confidence: fb.Confidence,
	}

	out.Score = fb.Score
	if score, ok := number(raw["score"]); ok {
		// Bound before converting; out-of-range float to int is not portable.
		out.Score = int(math.Round(min(max(score, 0), 100)))
	}

	out.Urgency = fb.Urgency
	if s, ok := raw["urgency"].(string); ok {
		if u, ok := domain.ParseUrgency(s); ok {
			out.Urgency = u
		}
	}

	if c, ok := number(raw["confidence"]); ok {
		out.Confidence = c
	}
	return out.Clamp()
}

func text(v any, fb string) string {
	s, ok := v.(string)
	if !ok {
		return fb
	}
	s = utils.Truncate(utils.CollapseSpace(s), maxTextRunes, truncatedMark)
	if s == "" {
		return fb
	}
	return s
}

func list(v any, fb []string) []string {
	items, ok := v.([]any)
	if !ok {
		return fb
	}
	out := make([]string, 0, maxListItems)
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		s = utils.Truncate(strings.TrimSpace(s), maxItemRunes, truncatedMark)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxListItems {
			break
		}
	}
	if len(out) == 0 {
		return fb
	}
	return out
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
