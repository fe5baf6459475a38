package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/sysutil"
	"github.com/tbourn/go-signal-pipeline/internal/utils"
)

// DefaultSocialAPIBase is the X API v2 root.
const DefaultSocialAPIBase = "https://api.x.com/2"

const (
	socialSnippetRunes = 500
	socialTitleRunes   = 90
)

// SocialOptions configures the X collector.
type SocialOptions struct {
	BearerToken string
	Usernames   []string
	MaxItems    int // 5..100, as accepted by the API
	BaseURL     string
	// RPS paces API calls across all usernames. Zero disables pacing.
	RPS float64
}

// SocialCollector reads recent original posts of followed X accounts.
type SocialCollector struct {
	o       SocialOptions
	limiter *rate.Limiter
	c       Common
}

// NewSocialCollector returns an X collector. It collects nothing when no
// token or no usernames are configured.
func NewSocialCollector(o SocialOptions, c Common) *SocialCollector {
	if o.BaseURL == "" {
		o.BaseURL = DefaultSocialAPIBase
	}
	if o.MaxItems < 5 {
		o.MaxItems = 5
	}
	if o.MaxItems > 100 {
		o.MaxItems = 100
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if o.RPS > 0 {
		lim = rate.NewLimiter(rate.Limit(o.RPS), 1)
	}
	return &SocialCollector{o: o, limiter: lim, c: c.withDefaults("collector.x")}
}

// Name implements Collector.
func (s *SocialCollector) Name() string { return "x" }

// Enabled reports whether the collector has credentials and accounts.
func (s *SocialCollector) Enabled() bool {
	return s.o.BearerToken != "" && len(s.o.Usernames) > 0
}

// Collect implements Collector.
func (s *SocialCollector) Collect(ctx context.Context) []domain.SignalEvent {
	if !s.Enabled() {
		return nil
	}
	return fanOut(ctx, s.c.Concurrency, s.o.Usernames, s.fetch, func(u string, err error) {
		s.c.Log.Warn().Err(err).Str("username", u).Msg("social fetch failed")
	})
}

type socialUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type socialPost struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func (s *SocialCollector) fetch(ctx context.Context, username string) ([]domain.SignalEvent, error) {
	var user struct {
		Data *socialUser `json:"data"`
	}
	if err := s.get(ctx, "/users/by/username/"+url.PathEscape(username), nil, &user); err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.Data == nil || user.Data.ID == "" {
		return nil, fmt.Errorf("user %q not found", username)
	}

	q := url.Values{}
	q.Set("max_results", strconv.Itoa(s.o.MaxItems))
	q.Set("tweet.fields", "created_at")
	q.Set("exclude", "replies,retweets")
	var posts struct {
		Data []socialPost `json:"data"`
	}
	if err := s.get(ctx, "/users/"+url.PathEscape(user.Data.ID)+"/tweets", q, &posts); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	handle := sysutil.FirstNonEmpty(user.Data.Username, username)
	out := make([]domain.SignalEvent, 0, len(posts.Data))
	for _, p := range posts.Data {
		if p.ID == "" {
			continue
		}
		text := utils.Truncate(utils.CollapseSpace(p.Text), socialSnippetRunes, "")
		created := p.CreatedAt
		if created == "" {
			created = s.c.nowRFC3339()
		}
		out = append(out, domain.SignalEvent{
			ID:          "x-" + p.ID,
			Source:      domain.SourceX,
			Author:      "@" + handle,
			Title:       utils.Truncate(text, socialTitleRunes, "..."),
			URL:         "https://x.com/" + handle + "/status/" + p.ID,
			Snippet:     text,
			PublishedAt: created,
			Tags:        []string{"x", "social"},
		})
	}
	return out, nil
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return "HTTP " + strconv.Itoa(e.Code) + ": " + e.Body
}

func (s *SocialCollector) get(ctx context.Context, path string, q url.Values, v any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.c.Timeout)
	defer cancel()

	u := s.o.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.o.BearerToken)
	req.Header.Set("User-Agent", s.c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(v)
}
