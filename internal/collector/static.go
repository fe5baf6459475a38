package collector

import (
	"context"
	"time"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// StaticCollector returns a fixed set of events. It backs the demo social
// feed and tests.
type StaticCollector struct {
	name   string
	events func() []domain.SignalEvent
}

// NewStaticCollector wraps a fixed list.
func NewStaticCollector(name string, events []domain.SignalEvent) *StaticCollector {
	return &StaticCollector{name: name, events: func() []domain.SignalEvent { return events }}
}

// NewDemoSocialCollector returns canned social posts. Their publication date
// is the current UTC day, so each post is picked up at most once per day.
func NewDemoSocialCollector(now func() time.Time) *StaticCollector {
	if now == nil {
		now = time.Now
	}
	return &StaticCollector{name: "mock-social", events: func() []domain.SignalEvent {
		day := now().UTC().Truncate(24 * time.Hour).Format(time.RFC3339)
		return []domain.SignalEvent{
			demoEvent(domain.SourceX, "x", "@vercel",
				"We are shipping new edge runtime updates",
				"https://x.com/vercel/status/example2",
				"Lower cold start, better observability, and new deployment controls.",
				day, "web", "infra"),
			demoEvent(domain.SourceX, "x", "@openaidevs",
				"API update: new structured outputs",
				"https://x.com/openaidevs/status/example3",
				"Developers can now enforce schema-constrained responses.",
				day, "api", "ai"),
		}
	}}
}

func demoEvent(src domain.SourceKind, prefix, author, title, url, snippet, published string, tags ...string) domain.SignalEvent {
	return domain.SignalEvent{
		ID:          domain.EventID(prefix, url, published),
		Source:      src,
		Author:      author,
		Title:       title,
		URL:         url,
		Snippet:     snippet,
		PublishedAt: published,
		Tags:        tags,
	}
}

// Name implements Collector.
func (s *StaticCollector) Name() string { return s.name }

// Collect implements Collector.
func (s *StaticCollector) Collect(ctx context.Context) []domain.SignalEvent {
	if ctx.Err() != nil {
		return nil
	}
	evs := s.events()
	out := make([]domain.SignalEvent, len(evs))
	copy(out, evs)
	return out
}
