package collector

import (
	"context"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/sysutil"
	"github.com/tbourn/go-signal-pipeline/internal/utils"
)

// DefaultVideoFeedBase is the public channel feed endpoint.
const DefaultVideoFeedBase = "https://www.youtube.com/feeds/videos.xml"

const (
	videoSnippetRunes = 500

	untitledVideo  = "Untitled video"
	unknownChannel = "Unknown channel"
	noDescription  = "No description available."
	videoHome      = "https://youtube.com"
)

// VideoCollector reads YouTube channel Atom feeds.
type VideoCollector struct {
	channels []string
	maxItems int
	base     string
	c        Common
}

// NewVideoCollector returns a collector for channelIDs. An empty base uses
// DefaultVideoFeedBase.
func NewVideoCollector(channelIDs []string, maxItems int, base string, c Common) *VideoCollector {
	if base == "" {
		base = DefaultVideoFeedBase
	}
	return &VideoCollector{channels: channelIDs, maxItems: maxItems, base: base, c: c.withDefaults("collector.youtube")}
}

// Name implements Collector.
func (v *VideoCollector) Name() string { return "youtube" }

// Collect implements Collector.
func (v *VideoCollector) Collect(ctx context.Context) []domain.SignalEvent {
	return fanOut(ctx, v.c.Concurrency, v.channels, v.fetch, func(id string, err error) {
		v.c.Log.Warn().Err(err).Str("channel_id", id).Msg("video feed fetch failed")
	})
}

// FeedURL returns the feed address for a channel id.
func (v *VideoCollector) FeedURL(channelID string) string {
	sep := "?"
	if strings.Contains(v.base, "?") {
		sep = "&"
	}
	return v.base + sep + "channel_id=" + url.QueryEscape(channelID)
}

func (v *VideoCollector) fetch(ctx context.Context, channelID string) ([]domain.SignalEvent, error) {
	feed, err := parseFeed(ctx, v.c, v.FeedURL(channelID))
	if err != nil {
		return nil, err
	}

	items := feed.Items
	if v.maxItems > 0 && len(items) > v.maxItems {
		items = items[:v.maxItems]
	}

	out := make([]domain.SignalEvent, 0, len(items))
	for _, it := range items {
		title := utils.StripHTML(it.Title)
		if title == "" {
			title = untitledVideo
		}
		link := it.Link
		if link == "" {
			link = videoHome
		}
		snippet := utils.StripHTML(sysutil.FirstNonEmpty(mediaDescription(it), it.Description))
		if snippet == "" {
			snippet = noDescription
		}
		published := sysutil.FirstNonEmpty(it.Published, it.Updated)
		key := itemKey(published, it, title)
		if published == "" {
			published = v.c.nowRFC3339()
		}

		out = append(out, domain.SignalEvent{
			ID:          domain.EventID("yt", link, key),
			Source:      domain.SourceYouTube,
			Author:      sysutil.FirstNonEmpty(authorOf(it), feedAuthor(feed), unknownChannel),
			Title:       title,
			URL:         link,
			Snippet:     utils.Truncate(snippet, videoSnippetRunes, ""),
			PublishedAt: published,
			Tags:        []string{"youtube"},
		})
	}
	return out, nil
}

// mediaDescription reads media:group/media:description.
func mediaDescription(it *gofeed.Item) string {
	media, ok := it.Extensions["media"]
	if !ok {
		return ""
	}
	for _, g := range media["group"] {
		for _, d := range g.Children["description"] {
			if d.Value != "" {
				return d.Value
			}
		}
	}
	for _, d := range media["description"] {
		if d.Value != "" {
			return d.Value
		}
	}
	return ""
}
