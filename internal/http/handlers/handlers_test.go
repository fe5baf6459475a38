package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/repo"
	"github.com/tbourn/go-signal-pipeline/internal/services"
)

// ---------- test DB + repo shim ----------

func newHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testSignalRepo implements services.SignalRepo with the repo package, like router.go.
type testSignalRepo struct{}

func (testSignalRepo) CountSignals(ctx context.Context, db *gorm.DB, f repo.SignalFilter) (int64, error) {
	return repo.CountSignals(ctx, db, f)
}
func (testSignalRepo) ListSignalsPage(ctx context.Context, db *gorm.DB, f repo.SignalFilter, offset, limit int) ([]domain.SignalView, error) {
	return repo.ListSignalsPage(ctx, db, f, offset, limit)
}
func (testSignalRepo) SignalsStats(ctx context.Context, db *gorm.DB, f repo.SignalFilter) (int64, int64, *time.Time, error) {
	return repo.SignalsStats(ctx, db, f)
}
func (testSignalRepo) GetSignalDetail(ctx context.Context, db *gorm.DB, id string) (*domain.SignalDetail, error) {
	return repo.GetSignalDetail(ctx, db, id)
}
func (testSignalRepo) HideSignal(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	return repo.HideSignal(ctx, db, id, now)
}
func (testSignalRepo) UnhideSignal(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.UnhideSignal(ctx, db, id)
}
func (testSignalRepo) RestoreHidden(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.RestoreHidden(ctx, db)
}
func (testSignalRepo) FavoriteSignal(ctx context.Context, db *gorm.DB, id string, now time.Time) (*domain.Favorite, error) {
	return repo.FavoriteSignal(ctx, db, id, now)
}
func (testSignalRepo) UnfavoriteSignal(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.UnfavoriteSignal(ctx, db, id)
}
func (testSignalRepo) CountFavorites(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountFavorites(ctx, db)
}
func (testSignalRepo) ListFavoritesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Favorite, error) {
	return repo.ListFavoritesPage(ctx, db, offset, limit)
}
func (testSignalRepo) ListMutes(ctx context.Context, db *gorm.DB) ([]domain.Mute, error) {
	return repo.ListMutes(ctx, db)
}
func (testSignalRepo) MuteSource(ctx context.Context, db *gorm.DB, source domain.SourceKind, now time.Time) error {
	return repo.MuteSource(ctx, db, source, now)
}
func (testSignalRepo) UnmuteSource(ctx context.Context, db *gorm.DB, source domain.SourceKind) (bool, error) {
	return repo.UnmuteSource(ctx, db, source)
}

// ---------- router + fixtures ----------

func newAPI(t *testing.T, cb CallbackHandler) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newHandlersDB(t)
	h := New(services.NewSignalService(db, testSignalRepo{}), cb)

	r := gin.New()
	r.POST("/telegram/webhook", h.TelegramWebhook)
	api := r.Group("/api/v1")
	api.GET("/signals", h.ListSignals)
	api.GET("/signals/:id", h.GetSignal)
	api.POST("/signals/:id/hide", h.HideSignal)
	api.DELETE("/signals/:id/hide", h.UnhideSignal)
	api.DELETE("/hidden", h.RestoreHidden)
	api.GET("/favorites", h.ListFavorites)
	api.POST("/signals/:id/favorite", h.FavoriteSignal)
	api.DELETE("/signals/:id/favorite", h.UnfavoriteSignal)
	api.GET("/mutes", h.ListMutes)
	api.POST("/mutes/:source", h.MuteSource)
	api.DELETE("/mutes/:source", h.UnmuteSource)
	return r, db
}

func seed(t *testing.T, db *gorm.DB, id string, src domain.SourceKind, at time.Time) {
	t.Helper()
	ev := domain.SignalEvent{
		ID:          id,
		Source:      src,
		Author:      "Alice",
		Title:       "Release " + id,
		URL:         "https://example.com/" + id,
		Snippet:     "snippet",
		PublishedAt: "2025-01-01T00:00:00Z",
	}
	a := domain.AnalysisResult{
		Summary:  "summary " + id,
		HowToUse: []string{"Read source"},
		Audience: "Builders",
		Score:    70,
		Urgency:  domain.UrgencyToday,
	}
	if err := repo.SaveEnrichedSignal(context.Background(), db, ev, a, at); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func do(r http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v; body=%s", err, w.Body.String())
	}
	return v
}

// ---------- signals ----------

func TestListSignals_PaginationAndFilter(t *testing.T) {
	r, db := newAPI(t, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, db, "rss-1", domain.SourceRSS, base)
	seed(t, db, "rss-2", domain.SourceRSS, base.Add(time.Minute))
	seed(t, db, "yt-1", domain.SourceYouTube, base.Add(2*time.Minute))

	w := do(r, http.MethodGet, "/api/v1/signals?page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	resp := decode[ListSignalsResponse](t, w)
	if resp.Pagination.Total != 3 || resp.Pagination.TotalPages != 2 || !resp.Pagination.HasNext {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}
	if len(resp.Signals) != 2 || resp.Signals[0].ID != "yt-1" {
		t.Fatalf("want newest first, got %+v", resp.Signals)
	}
	if resp.Signals[0].Score == nil || *resp.Signals[0].Score != 70 {
		t.Fatalf("analysis headline missing: %+v", resp.Signals[0])
	}

	w = do(r, http.MethodGet, "/api/v1/signals?source=RSS", nil)
	resp = decode[ListSignalsResponse](t, w)
	if resp.Pagination.Total != 2 {
		t.Fatalf("rss total = %d", resp.Pagination.Total)
	}
	for _, s := range resp.Signals {
		if s.Source != "rss" {
			t.Fatalf("unexpected source %q", s.Source)
		}
	}
}

func TestListSignals_UnknownSource(t *testing.T) {
	r, _ := newAPI(t, nil)
	w := do(r, http.MethodGet, "/api/v1/signals?source=myspace", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeBadRequest {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestListSignals_ETag(t *testing.T) {
	r, db := newAPI(t, nil)
	seed(t, db, "rss-1", domain.SourceRSS, time.Now().UTC())

	w := do(r, http.MethodGet, "/api/v1/signals", nil)
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || !strings.HasPrefix(etag, `W/"signals:`) {
		t.Fatalf("status=%d etag=%q", w.Code, etag)
	}

	w = do(r, http.MethodGet, "/api/v1/signals", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("want 304, got %d", w.Code)
	}

	// Hiding changes the listing and therefore the tag.
	if w := do(r, http.MethodPost, "/api/v1/signals/rss-1/hide", nil); w.Code != http.StatusNoContent {
		t.Fatalf("hide status=%d", w.Code)
	}
	w = do(r, http.MethodGet, "/api/v1/signals", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("status=%d etag unchanged=%v", w.Code, w.Header().Get("ETag") == etag)
	}

	// So does pinning, even though the visible rows are the same.
	seed(t, db, "rss-2", domain.SourceRSS, time.Now().UTC())
	before := do(r, http.MethodGet, "/api/v1/signals", nil).Header().Get("ETag")
	if w := do(r, http.MethodPost, "/api/v1/signals/rss-2/favorite", nil); w.Code != http.StatusCreated {
		t.Fatalf("favorite status=%d", w.Code)
	}
	if after := do(r, http.MethodGet, "/api/v1/signals", nil).Header().Get("ETag"); after == before {
		t.Fatalf("etag did not change after favorite: %s", after)
	}
}

func TestGetSignal(t *testing.T) {
	r, db := newAPI(t, nil)
	seed(t, db, "rss-1", domain.SourceRSS, time.Now().UTC())

	w := do(r, http.MethodGet, "/api/v1/signals/rss-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	d := decode[domain.SignalDetail](t, w)
	if d.Signal.ID != "rss-1" || d.Analysis == nil || d.Analysis.Summary != "summary rss-1" {
		t.Fatalf("detail = %+v", d)
	}

	w = do(r, http.MethodGet, "/api/v1/signals/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing status=%d", w.Code)
	}
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeNotFound {
		t.Fatalf("code = %q", e.Code)
	}

	long := strings.Repeat("a", 65)
	if w := do(r, http.MethodGet, "/api/v1/signals/"+long, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized id status=%d", w.Code)
	}
}

func TestHideUnhideRestore(t *testing.T) {
	r, db := newAPI(t, nil)
	now := time.Now().UTC()
	seed(t, db, "rss-1", domain.SourceRSS, now)
	seed(t, db, "rss-2", domain.SourceRSS, now)

	for _, id := range []string{"rss-1", "rss-2"} {
		if w := do(r, http.MethodPost, "/api/v1/signals/"+id+"/hide", nil); w.Code != http.StatusNoContent {
			t.Fatalf("hide %s status=%d", id, w.Code)
		}
	}
	if w := do(r, http.MethodPost, "/api/v1/signals/ghost/hide", nil); w.Code != http.StatusNotFound {
		t.Fatalf("hide ghost status=%d", w.Code)
	}

	resp := decode[ListSignalsResponse](t, do(r, http.MethodGet, "/api/v1/signals", nil))
	if resp.Pagination.Total != 0 || len(resp.Signals) != 0 {
		t.Fatalf("hidden signals listed: %+v", resp)
	}

	if w := do(r, http.MethodDelete, "/api/v1/signals/rss-1/hide", nil); w.Code != http.StatusNoContent {
		t.Fatalf("unhide status=%d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/v1/signals/rss-1/hide", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second unhide status=%d", w.Code)
	}

	w := do(r, http.MethodDelete, "/api/v1/hidden", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore status=%d", w.Code)
	}
	if got := decode[RestoreHiddenResponse](t, w); got.Restored != 1 {
		t.Fatalf("restored = %d, want 1", got.Restored)
	}
}

// ---------- favorites ----------

func TestFavorites(t *testing.T) {
	r, db := newAPI(t, nil)
	seed(t, db, "rss-1", domain.SourceRSS, time.Now().UTC())

	w := do(r, http.MethodPost, "/api/v1/signals/rss-1/favorite", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("favorite status=%d body=%s", w.Code, w.Body.String())
	}
	fav := decode[domain.Favorite](t, w)
	if fav.SignalID != "rss-1" || fav.Title != "Release rss-1" || fav.Summary != "summary rss-1" {
		t.Fatalf("favorite = %+v", fav)
	}
	if w := do(r, http.MethodPost, "/api/v1/signals/ghost/favorite", nil); w.Code != http.StatusNotFound {
		t.Fatalf("favorite ghost status=%d", w.Code)
	}

	list := decode[ListFavoritesResponse](t, do(r, http.MethodGet, "/api/v1/favorites", nil))
	if list.Pagination.Total != 1 || len(list.Favorites) != 1 {
		t.Fatalf("favorites = %+v", list)
	}

	if w := do(r, http.MethodDelete, "/api/v1/signals/rss-1/favorite", nil); w.Code != http.StatusNoContent {
		t.Fatalf("unfavorite status=%d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/v1/signals/rss-1/favorite", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second unfavorite status=%d", w.Code)
	}
}

// ---------- mutes ----------

func TestMutes(t *testing.T) {
	r, _ := newAPI(t, nil)

	w := do(r, http.MethodPost, "/api/v1/mutes/YouTube", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mute status=%d", w.Code)
	}
	if got := decode[MuteResponse](t, w); got.Source != "youtube" {
		t.Fatalf("source = %q", got.Source)
	}
	// Muting twice is a no-op.
	if w := do(r, http.MethodPost, "/api/v1/mutes/youtube", nil); w.Code != http.StatusOK {
		t.Fatalf("second mute status=%d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/mutes/fax", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad source status=%d", w.Code)
	}

	mutes := decode[[]domain.Mute](t, do(r, http.MethodGet, "/api/v1/mutes", nil))
	if len(mutes) != 1 || mutes[0].Source != "youtube" {
		t.Fatalf("mutes = %+v", mutes)
	}

	if w := do(r, http.MethodDelete, "/api/v1/mutes/youtube", nil); w.Code != http.StatusNoContent {
		t.Fatalf("unmute status=%d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/v1/mutes/youtube", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second unmute status=%d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/v1/mutes/fax", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad unmute status=%d", w.Code)
	}
}

// ---------- pagination ----------

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query          string
		page, pageSize int
	}{
		{"", 1, 20},
		{"page=0&page_size=0", 1, 1},
		{"page=-3&page_size=1000", 1, 100},
		{"page=4&page_size=25", 4, 25},
		{"page=x&page_size=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		p, ps := clampPagination(c)
		if p != tc.page || ps != tc.pageSize {
			t.Errorf("%q: got (%d,%d), want (%d,%d)", tc.query, p, ps, tc.page, tc.pageSize)
		}
	}
}

func TestPaginate(t *testing.T) {
	p := paginate(2, 10, 25)
	if p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("p = %+v", p)
	}
	if p := paginate(1, 20, 0); p.TotalPages != 0 || p.HasNext {
		t.Fatalf("empty = %+v", p)
	}
}
