package collector

import (
	"context"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/sysutil"
	"github.com/tbourn/go-signal-pipeline/internal/utils"
)

const (
	rssSnippetRunes = 400

	untitledRSS   = "Untitled RSS item"
	untitledAtom  = "Untitled Atom entry"
	unknownAuthor = "Unknown author"
	noSummary     = "No summary available."
)

// FeedCollector reads RSS 2.0 and Atom feeds.
type FeedCollector struct {
	urls     []string
	maxItems int
	c        Common
}

// NewFeedCollector returns a collector for feedURLs keeping at most maxItems
// entries per feed.
func NewFeedCollector(feedURLs []string, maxItems int, c Common) *FeedCollector {
	return &FeedCollector{urls: feedURLs, maxItems: maxItems, c: c.withDefaults("collector.rss")}
}

// Name implements Collector.
func (f *FeedCollector) Name() string { return "rss" }

// Collect implements Collector.
func (f *FeedCollector) Collect(ctx context.Context) []domain.SignalEvent {
	return fanOut(ctx, f.c.Concurrency, f.urls, f.fetch, func(u string, err error) {
		f.c.Log.Warn().Err(err).Str("url", u).Msg("feed fetch failed")
	})
}

func (f *FeedCollector) fetch(ctx context.Context, feedURL string) ([]domain.SignalEvent, error) {
	feed, err := parseFeed(ctx, f.c, feedURL)
	if err != nil {
		return nil, err
	}

	atom := feed.FeedType == "atom"
	items := feed.Items
	if f.maxItems > 0 && len(items) > f.maxItems {
		items = items[:f.maxItems]
	}

	out := make([]domain.SignalEvent, 0, len(items))
	for _, it := range items {
		title := utils.StripHTML(it.Title)
		if title == "" {
			title = untitledRSS
			if atom {
				title = untitledAtom
			}
		}
		link := it.Link
		if link == "" {
			link = feedURL
		}
		snippet := utils.StripHTML(sysutil.FirstNonEmpty(it.Description, it.Content))
		if snippet == "" {
			snippet = noSummary
		}
		published := it.Published
		if atom {
			published = sysutil.FirstNonEmpty(it.Updated, it.Published)
		}
		key := itemKey(published, it, title)
		if published == "" {
			published = f.c.nowRFC3339()
		}
		tag := "rss"
		if atom {
			tag = "atom"
		}

		out = append(out, domain.SignalEvent{
			ID:          domain.EventID("rss", link, key),
			Source:      domain.SourceRSS,
			Author:      sysutil.FirstNonEmpty(authorOf(it), feedAuthor(feed), unknownAuthor),
			Title:       title,
			URL:         link,
			Snippet:     utils.Truncate(snippet, rssSnippetRunes, ""),
			PublishedAt: published,
			Tags:        []string{tag},
		})
	}
	return out, nil
}

func parseFeed(ctx context.Context, c Common, feedURL string) (*gofeed.Feed, error) {
	if _, err := url.ParseRequestURI(feedURL); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = c.Client
	fp.UserAgent = c.UserAgent
	return fp.ParseURLWithContext(feedURL, ctx)
}

// itemKey is the date part of an item's identity. Undated items use their
// GUID or title instead of the collection time so refetches keep the same ID.
func itemKey(published string, it *gofeed.Item, title string) string {
	return sysutil.FirstNonEmpty(published, it.GUID, title)
}

func authorOf(it *gofeed.Item) string {
	for _, a := range it.Authors {
		if a != nil && a.Name != "" {
			return utils.CollapseSpace(a.Name)
		}
	}
	return ""
}

func feedAuthor(f *gofeed.Feed) string {
	for _, a := range f.Authors {
		if a != nil && a.Name != "" {
			return utils.CollapseSpace(a.Name)
		}
	}
	return ""
}

