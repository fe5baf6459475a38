package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

func TestSaveEnrichedSignal_IdempotentInsert_UpsertsAnalysis(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	ev := sampleEvent("rss-1", domain.SourceRSS)
	if err := SaveEnrichedSignal(ctx, db, ev, sampleAnalysis(40), first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Second save with a changed title and score: signal row stays, analysis is replaced.
	ev.Title = "changed"
	if err := SaveEnrichedSignal(ctx, db, ev, sampleAnalysis(90), first.Add(time.Hour)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	var n int64
	db.Model(&domain.Signal{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 signal row, got %d", n)
	}
	sig, err := GetSignal(ctx, db, "rss-1")
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if sig.Title == "changed" || !sig.CollectedAt.Equal(first) {
		t.Fatalf("signal row must be insert-or-ignore: %+v", sig)
	}
	an, err := GetAnalysis(ctx, db, "rss-1")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if an.Score != 90 {
		t.Fatalf("analysis should be upserted, score=%d", an.Score)
	}
	db.Model(&domain.Analysis{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 analysis row, got %d", n)
	}
}

func TestSaveEnrichedSignal_ClampsScore(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	if err := SaveEnrichedSignal(ctx, db, sampleEvent("x-1", domain.SourceX), sampleAnalysis(250), time.Now().UTC()); err != nil {
		t.Fatalf("save: %v", err)
	}
	an, _ := GetAnalysis(ctx, db, "x-1")
	if an.Score != 100 {
		t.Fatalf("score should clamp to 100, got %d", an.Score)
	}
}

func TestHasSignal(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	ok, err := HasSignal(ctx, db, "rss-1")
	if err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
	mustSave(t, db, "rss-1", domain.SourceRSS, time.Now().UTC())
	ok, err = HasSignal(ctx, db, "rss-1")
	if err != nil || !ok {
		t.Fatalf("expected present, got ok=%v err=%v", ok, err)
	}
}

func TestRecordDeliveries_AppendsAll(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	mustSave(t, db, "yt-1", domain.SourceYouTube, time.Now().UTC())

	attempts := []domain.DeliveryAttempt{
		domain.Sent(domain.ChannelInbox),
		domain.Failed(domain.ChannelTelegram, errors.New("HTTP 500: boom")),
	}
	if err := RecordDeliveries(ctx, db, "yt-1", attempts, time.Now().UTC()); err != nil {
		t.Fatalf("RecordDeliveries: %v", err)
	}
	if err := RecordDeliveries(ctx, db, "yt-1", nil, time.Now().UTC()); err != nil {
		t.Fatalf("empty RecordDeliveries should be a no-op: %v", err)
	}

	got, err := ListDeliveries(ctx, db, "yt-1")
	if err != nil {
		t.Fatalf("ListDeliveries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].Channel != "inbox" || got[0].Status != "sent" {
		t.Fatalf("unexpected first delivery: %+v", got[0])
	}
	if got[1].Status != "failed" || got[1].Error != "HTTP 500: boom" {
		t.Fatalf("unexpected second delivery: %+v", got[1])
	}
}

func TestGetSignalExplain(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if _, found, err := GetSignalExplain(ctx, db, "missing"); err != nil || found {
		t.Fatalf("expected not found, got found=%v err=%v", found, err)
	}

	mustSave(t, db, "rss-9", domain.SourceRSS, time.Now().UTC())
	text, found, err := GetSignalExplain(ctx, db, "rss-9")
	if err != nil || !found {
		t.Fatalf("expected explain, got found=%v err=%v", found, err)
	}
	want := "New model release rss-9\nWhy it matters: summary\nHow to use: Read source; Try it"
	if text != want {
		t.Fatalf("explain mismatch:\n got %q\nwant %q", text, want)
	}
}

func TestGetSignalDetail(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	if _, err := GetSignalDetail(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Now().UTC()
	mustSave(t, db, "rss-2", domain.SourceRSS, now)
	_ = RecordDeliveries(ctx, db, "rss-2", []domain.DeliveryAttempt{domain.Sent(domain.ChannelInbox)}, now)
	if _, err := FavoriteSignal(ctx, db, "rss-2", now); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	d, err := GetSignalDetail(ctx, db, "rss-2")
	if err != nil {
		t.Fatalf("GetSignalDetail: %v", err)
	}
	if d.Analysis == nil || len(d.Deliveries) != 1 || !d.Favorite || d.Hidden {
		t.Fatalf("unexpected detail: %+v", d)
	}
}

func TestListSignalsPage_OrderFilterAndHidden(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mustSave(t, db, "rss-a", domain.SourceRSS, base)
	mustSave(t, db, "yt-b", domain.SourceYouTube, base.Add(time.Minute))
	mustSave(t, db, "rss-c", domain.SourceRSS, base.Add(2*time.Minute))

	items, err := ListSignalsPage(ctx, db, SignalFilter{}, 0, 10)
	if err != nil {
		t.Fatalf("ListSignalsPage: %v", err)
	}
	if len(items) != 3 || items[0].ID != "rss-c" || items[2].ID != "rss-a" {
		t.Fatalf("expected newest-first, got %+v", items)
	}
	if items[0].Score == nil || *items[0].Score != 60 || items[0].Summary == nil {
		t.Fatalf("expected joined analysis fields, got %+v", items[0])
	}

	rss, _ := ListSignalsPage(ctx, db, SignalFilter{Source: "rss"}, 0, 10)
	if len(rss) != 2 {
		t.Fatalf("source filter: expected 2, got %d", len(rss))
	}

	if err := HideSignal(ctx, db, "rss-c", base); err != nil {
		t.Fatalf("HideSignal: %v", err)
	}
	n, _ := CountSignals(ctx, db, SignalFilter{})
	if n != 2 {
		t.Fatalf("hidden signal should be excluded, count=%d", n)
	}
	n, _ = CountSignals(ctx, db, SignalFilter{IncludeHidden: true})
	if n != 3 {
		t.Fatalf("IncludeHidden count=%d; want 3", n)
	}

	page, _ := ListSignalsPage(ctx, db, SignalFilter{}, 1, 1)
	if len(page) != 1 || page[0].ID != "rss-a" {
		t.Fatalf("offset/limit: got %+v", page)
	}
}
