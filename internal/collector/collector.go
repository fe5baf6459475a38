// Package collector fetches raw items from upstream sources and normalizes
// them into domain.SignalEvent values.
//
// Collectors never return errors: a failing sub-source (one feed URL, one
// channel, one account) is logged and contributes nothing, while the others
// proceed. Sub-sources are fetched concurrently with a bounded limit.
package collector

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// Collector produces normalized events from one upstream family.
type Collector interface {
	Name() string
	Collect(ctx context.Context) []domain.SignalEvent
}

// Common knobs shared by the HTTP-backed collectors.
type Common struct {
	Client      *http.Client
	UserAgent   string
	Timeout     time.Duration // per sub-source request
	Concurrency int
	Now         func() time.Time
	Log         zerolog.Logger
}

func (c Common) withDefaults(component string) Common {
	if c.Client == nil {
		c.Client = &http.Client{}
	}
	if c.UserAgent == "" {
		c.UserAgent = "signal-pipeline/0.1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.Concurrency < 1 {
		c.Concurrency = 4
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	c.Log = c.Log.With().Str("component", component).Logger()
	return c
}

func (c Common) nowRFC3339() string {
	return c.Now().UTC().Format(time.RFC3339)
}

// fanOut runs fetch for every key with at most limit in flight. Results keep
// key order; failed keys are reported to onErr and skipped.
func fanOut(ctx context.Context, limit int, keys []string, fetch func(context.Context, string) ([]domain.SignalEvent, error), onErr func(string, error)) []domain.SignalEvent {
	if len(keys) == 0 {
		return nil
	}
	results := make([][]domain.SignalEvent, len(keys))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, key := range keys {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			evs, err := fetch(ctx, key)
			if err != nil {
				onErr(key, err)
				return nil
			}
			results[i] = evs
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.SignalEvent
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// CollectAll runs every collector concurrently, concatenates their events in
// collector order and removes duplicate IDs (the last occurrence wins, at the
// position of the first).
func CollectAll(ctx context.Context, collectors ...Collector) []domain.SignalEvent {
	batches := make([][]domain.SignalEvent, len(collectors))

	var g errgroup.Group
	for i, c := range collectors {
		g.Go(func() error {
			batches[i] = c.Collect(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.SignalEvent
	for _, b := range batches {
		all = append(all, b...)
	}
	return Dedupe(all)
}

// Dedupe removes events with a repeated ID.
func Dedupe(events []domain.SignalEvent) []domain.SignalEvent {
	if len(events) == 0 {
		return nil
	}
	index := make(map[string]int, len(events))
	out := make([]domain.SignalEvent, 0, len(events))
	for _, ev := range events {
		if i, ok := index[ev.ID]; ok {
			out[i] = ev
			continue
		}
		index[ev.ID] = len(out)
		out = append(out, ev)
	}
	return out
}
