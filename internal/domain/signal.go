// Package domain defines the value types that flow through the signal
// pipeline (events, analyses, delivery attempts) and the persistence models
// that the repository layer maps with GORM.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SourceKind identifies the upstream family a signal was collected from.
type SourceKind string

const (
	SourceRSS     SourceKind = "rss"
	SourceYouTube SourceKind = "youtube"
	SourceX       SourceKind = "x"
	SourceGitHub  SourceKind = "github"
)

// SourceKinds lists every known source in display order.
var SourceKinds = []SourceKind{SourceYouTube, SourceX, SourceRSS, SourceGitHub}

// ParseSourceKind validates s (case-insensitive, trimmed) against the known
// source kinds.
func ParseSourceKind(s string) (SourceKind, bool) {
	k := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SourceKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

var upper = cases.Upper(language.Und)

// Label is the upper-cased tag used in chat messages, e.g. "[YOUTUBE]".
func (k SourceKind) Label() string { return upper.String(string(k)) }

// Urgency is the coarse time bucket attached to an analysis.
type Urgency string

const (
	UrgencyNow    Urgency = "now"
	UrgencyToday  Urgency = "today"
	UrgencyWeekly Urgency = "weekly"
)

// ParseUrgency accepts only the three known urgency values.
func ParseUrgency(s string) (Urgency, bool) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case UrgencyNow, UrgencyToday, UrgencyWeekly:
		return u, true
	}
	return "", false
}

// Channel names a delivery destination.
type Channel string

const (
	ChannelInbox    Channel = "inbox"
	ChannelTelegram Channel = "telegram"
)

// DeliveryStatus is the outcome of one delivery attempt.
type DeliveryStatus string

const (
	StatusSent    DeliveryStatus = "sent"
	StatusSkipped DeliveryStatus = "skipped"
	StatusFailed  DeliveryStatus = "failed"
)

// SignalEvent is one normalized item collected from an external source.
// Its ID is deterministic so that re-collecting the same item yields the
// same identity.
type SignalEvent struct {
	ID          string     `json:"id"`
	Source      SourceKind `json:"source"`
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Snippet     string     `json:"snippet"`
	PublishedAt string     `json:"published_at"`
	Tags        []string   `json:"tags"`
}

// EventID derives a stable identifier: prefix + "-" + the first 16 hex chars
// of sha256(url + ":" + publishedAt).
func EventID(prefix, url, publishedAt string) string {
	sum := sha256.Sum256([]byte(url + ":" + publishedAt))
	return prefix + "-" + hex.EncodeToString(sum[:])[:16]
}

// AnalysisResult is the scored, human-readable assessment of a signal.
type AnalysisResult struct {
	Summary    string   `json:"summary"`
	Pros       []string `json:"pros"`
	Cons       []string `json:"cons"`
	HowToUse   []string `json:"how_to_use"`
	WhereToUse []string `json:"where_to_use"`
	Audience   string   `json:"audience"`
	Score      int      `json:"score"`
	Urgency    Urgency  `json:"urgency"`
	Confidence float64  `json:"confidence"`
}

// Clamp bounds Score to [0,100] and Confidence to [0,1].
func (a AnalysisResult) Clamp() AnalysisResult {
	a.Score = ClampScore(a.Score)
	switch {
	case a.Confidence < 0:
		a.Confidence = 0
	case a.Confidence > 1:
		a.Confidence = 1
	}
	return a
}

// ClampScore bounds a score to [0,100].
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// DeliveryAttempt records what happened when a signal was offered to one
// channel.
type DeliveryAttempt struct {
	Channel Channel        `json:"channel"`
	Status  DeliveryStatus `json:"status"`
	Error   string         `json:"error,omitempty"`
}

// Sent, Skipped and Failed build attempts for ch.
func Sent(ch Channel) DeliveryAttempt    { return DeliveryAttempt{Channel: ch, Status: StatusSent} }
func Skipped(ch Channel) DeliveryAttempt { return DeliveryAttempt{Channel: ch, Status: StatusSkipped} }
func Failed(ch Channel, err error) DeliveryAttempt {
	a := DeliveryAttempt{Channel: ch, Status: StatusFailed}
	if err != nil {
		a.Error = err.Error()
	}
	return a
}

// Target is the routing decision for one signal.
type Target struct {
	Inbox    bool `json:"inbox"`
	Telegram bool `json:"telegram"`
}
