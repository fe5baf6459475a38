package collector

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

func ev(id string) domain.SignalEvent {
	return domain.SignalEvent{ID: id, Title: id}
}

func TestDedupe_LastWinsKeepsFirstPosition(t *testing.T) {
	a1 := ev("a")
	a2 := ev("a")
	a2.Title = "second"
	got := Dedupe([]domain.SignalEvent{a1, ev("b"), a2, ev("c")})
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].ID != "a" || got[0].Title != "second" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("Dedupe = %+v", got)
	}
	if Dedupe(nil) != nil {
		t.Fatalf("Dedupe(nil) should be nil")
	}
}

func TestCollectAll_ConcatenatesAndDedupes(t *testing.T) {
	c1 := NewStaticCollector("one", []domain.SignalEvent{ev("a"), ev("b")})
	c2 := NewStaticCollector("two", []domain.SignalEvent{ev("b"), ev("c")})
	empty := NewStaticCollector("empty", nil)

	got := CollectAll(context.Background(), c1, empty, c2)
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestFanOut_IsolatesFailuresAndBoundsConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	var failed []string
	fetch := func(_ context.Context, key string) ([]domain.SignalEvent, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inflight.Add(-1)
		if key == "bad" {
			return nil, errors.New("boom")
		}
		return []domain.SignalEvent{ev(key)}, nil
	}
	onErr := func(key string, _ error) { failed = append(failed, key) }

	got := fanOut(context.Background(), 2, []string{"a", "bad", "b", "c"}, fetch, onErr)
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("fanOut = %+v", got)
	}
	if !reflect.DeepEqual(failed, []string{"bad"}) {
		t.Fatalf("failed = %v", failed)
	}
	if peak.Load() > 2 {
		t.Fatalf("peak concurrency %d exceeds limit", peak.Load())
	}
}

func TestFanOut_CancelledContextSkipsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	got := fanOut(ctx, 1, []string{"a"}, func(context.Context, string) ([]domain.SignalEvent, error) {
		called = true
		return nil, nil
	}, func(string, error) {})
	if called || got != nil {
		t.Fatalf("cancelled fan-out should not fetch")
	}
}

func TestDemoSocialCollector_StablePerDay(t *testing.T) {
	day := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	c := NewDemoSocialCollector(func() time.Time { return day })
	first := c.Collect(context.Background())
	c2 := NewDemoSocialCollector(func() time.Time { return day.Add(10 * time.Hour) })
	second := c2.Collect(context.Background())

	if len(first) == 0 || !reflect.DeepEqual(first, second) {
		t.Fatalf("demo events should be identical within a day:\n%+v\n%+v", first, second)
	}
	if first[0].PublishedAt != "2026-03-04T00:00:00Z" {
		t.Fatalf("published = %q", first[0].PublishedAt)
	}
	if first[0].ID != domain.EventID("x", first[0].URL, first[0].PublishedAt) {
		t.Fatalf("id not derived from url and date: %q", first[0].ID)
	}

	next := NewDemoSocialCollector(func() time.Time { return day.Add(24 * time.Hour) }).Collect(context.Background())
	if next[0].ID == first[0].ID {
		t.Fatalf("ids should change on the next day")
	}
}

func TestStaticCollector_ReturnsCopy(t *testing.T) {
	src := []domain.SignalEvent{ev("a")}
	c := NewStaticCollector("s", src)
	got := c.Collect(context.Background())
	got[0].ID = "mutated"
	if src[0].ID != "a" {
		t.Fatalf("Collect must not expose the backing slice")
	}
	if c.Name() != "s" {
		t.Fatalf("Name = %q", c.Name())
	}
}
