package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

const videoDoc = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
  <title>Channel</title>
  <author><name>Fireship</name></author>
  <entry>
    <id>yt:video:abc</id>
    <title>New AI coding model released</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc"/>
    <author><name>Fireship</name></author>
    <published>2024-05-01T12:00:00+00:00</published>
    <updated>2024-05-02T12:00:00+00:00</updated>
    <media:group>
      <media:title>New AI coding model released</media:title>
      <media:description>A rapid   walkthrough
of the model.</media:description>
    </media:group>
  </entry>
  <entry>
    <id>yt:video:def</id>
    <title>Second</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=def"/>
    <published>2024-05-03T12:00:00+00:00</published>
  </entry>
</feed>`

func TestVideoCollector_ParsesChannelFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("channel_id") != "UC123" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(videoDoc))
	}))
	defer srv.Close()

	c := testCommon(srv)
	c.Concurrency = 1
	vc := NewVideoCollector([]string{"UC123"}, 5, srv.URL+"/feeds/videos.xml", c)
	got := vc.Collect(context.Background())
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}

	e := got[0]
	if e.Source != domain.SourceYouTube || e.Author != "Fireship" || e.URL != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("entry = %+v", e)
	}
	if e.Snippet != "A rapid walkthrough of the model." {
		t.Fatalf("snippet = %q", e.Snippet)
	}
	if e.PublishedAt != "2024-05-01T12:00:00+00:00" {
		t.Fatalf("published should prefer <published>: %q", e.PublishedAt)
	}
	if !strings.HasPrefix(e.ID, "yt-") || e.ID != domain.EventID("yt", e.URL, e.PublishedAt) {
		t.Fatalf("id = %q", e.ID)
	}

	second := got[1]
	if second.Snippet != noDescription {
		t.Fatalf("snippet default = %q", second.Snippet)
	}
	if second.Author != "Fireship" {
		t.Fatalf("author should fall back to the feed author: %q", second.Author)
	}
}

func TestVideoCollector_MaxItemsAndFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("channel_id") == "down" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(videoDoc))
	}))
	defer srv.Close()

	vc := NewVideoCollector([]string{"down", "UCok"}, 1, srv.URL, testCommon(srv))
	got := vc.Collect(context.Background())
	if len(got) != 1 || got[0].Title != "New AI coding model released" {
		t.Fatalf("got %+v", got)
	}
}

func TestVideoCollector_FeedURL(t *testing.T) {
	vc := NewVideoCollector(nil, 5, "", Common{})
	if got := vc.FeedURL("UC a"); got != DefaultVideoFeedBase+"?channel_id=UC+a" {
		t.Fatalf("FeedURL = %q", got)
	}
	vc = NewVideoCollector(nil, 5, "http://h/x?k=v", Common{})
	if got := vc.FeedURL("id"); got != "http://h/x?k=v&channel_id=id" {
		t.Fatalf("FeedURL = %q", got)
	}
}

const undatedVideoDoc = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Channel</title>
  <entry>
    <id>yt:video:zzz</id>
    <title>Undated upload</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=zzz"/>
  </entry>
</feed>`

func TestVideoCollector_UndatedEntryKeepsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(undatedVideoDoc))
	}))
	defer srv.Close()

	clock := &steppingClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Hour}
	c := testCommon(srv)
	c.Now = clock.Now
	vc := NewVideoCollector([]string{"UC1"}, 5, srv.URL+"/feeds/videos.xml", c)

	a := vc.Collect(context.Background())
	b := vc.Collect(context.Background())
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("lens = %d/%d", len(a), len(b))
	}
	if a[0].ID != b[0].ID {
		t.Fatalf("id changed across cycles: %q vs %q", a[0].ID, b[0].ID)
	}
	if a[0].ID != domain.EventID("yt", "https://www.youtube.com/watch?v=zzz", "yt:video:zzz") {
		t.Fatalf("id = %q", a[0].ID)
	}
}
