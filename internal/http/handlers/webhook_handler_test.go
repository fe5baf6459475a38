package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/repo"
	"github.com/tbourn/go-signal-pipeline/internal/services"
	"github.com/tbourn/go-signal-pipeline/internal/telegram"
)

type recordingCallbacks struct {
	got []services.Callback
	err error
}

func (r *recordingCallbacks) Handle(_ context.Context, cb services.Callback) error {
	r.got = append(r.got, cb)
	return r.err
}

type recordingReplier struct {
	mu       sync.Mutex
	messages []string
	chats    []int64
	answers  []string
}

func (r *recordingReplier) SendMessage(_ context.Context, chatID int64, text string, _ [][]telegram.Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats = append(r.chats, chatID)
	r.messages = append(r.messages, text)
	return nil
}

func (r *recordingReplier) AnswerCallback(_ context.Context, _ string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, text)
	return nil
}

func postUpdate(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const callbackUpdate = `{
  "update_id": 1,
  "callback_query": {
    "id": "cb-1",
    "from": {"id": 7, "is_bot": false, "first_name": "A"},
    "data": "mute:youtube",
    "message": {"message_id": 3, "date": 0, "chat": {"id": 4242, "type": "private"}}
  }
}`

func TestTelegramWebhook_ForwardsCallback(t *testing.T) {
	cb := &recordingCallbacks{}
	r, _ := newAPI(t, cb)

	w := postUpdate(t, r, callbackUpdate)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if len(cb.got) != 1 {
		t.Fatalf("callbacks = %d", len(cb.got))
	}
	got := cb.got[0]
	if got.ID != "cb-1" || got.Data != "mute:youtube" || got.ChatID != 4242 {
		t.Fatalf("callback = %+v", got)
	}
}

func TestTelegramWebhook_NoOps(t *testing.T) {
	cb := &recordingCallbacks{}
	r, _ := newAPI(t, cb)

	bodies := []string{
		`not json`,
		`{}`,
		`{"update_id": 2, "message": {"message_id": 1, "date": 0, "chat": {"id": 1, "type": "private"}, "text": "hi"}}`,
	}
	for _, b := range bodies {
		w := postUpdate(t, r, b)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("%q: status=%d body=%s", b, w.Code, w.Body.String())
		}
	}
	if len(cb.got) != 0 {
		t.Fatalf("no callback should be forwarded, got %+v", cb.got)
	}
}

func TestTelegramWebhook_StoreFailure(t *testing.T) {
	cb := &recordingCallbacks{err: errors.New("db down")}
	r, _ := newAPI(t, cb)

	w := postUpdate(t, r, callbackUpdate)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeWebhookFailed {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestTelegramWebhook_EndToEnd(t *testing.T) {
	rep := &recordingReplier{}
	var svc *services.CallbackService
	r, db := newAPI(t, callbackFunc(func(ctx context.Context, cb services.Callback) error {
		return svc.Handle(ctx, cb)
	}))
	svc = services.NewCallbackService(repo.NewStore(db), rep, time.Hour, zerolog.Nop())
	seed(t, db, "rss-1", domain.SourceRSS, time.Now().UTC())

	// Mute, then a redelivery of the same callback id.
	for range 2 {
		if w := postUpdate(t, r, callbackUpdate); w.Code != http.StatusOK {
			t.Fatalf("mute status=%d", w.Code)
		}
	}
	muted, err := repo.GetMutedSources(context.Background(), db)
	if err != nil {
		t.Fatalf("muted: %v", err)
	}
	if _, ok := muted[domain.SourceYouTube]; !ok || len(muted) != 1 {
		t.Fatalf("muted = %v", muted)
	}

	explain := strings.NewReplacer(`"cb-1"`, `"cb-2"`, "mute:youtube", "explain:rss-1").Replace(callbackUpdate)
	if w := postUpdate(t, r, explain); w.Code != http.StatusOK {
		t.Fatalf("explain status=%d", w.Code)
	}

	rep.mu.Lock()
	defer rep.mu.Unlock()
	if len(rep.answers) != 2 || rep.answers[0] != "Muted source: youtube" || rep.answers[1] != "Sent detailed breakdown" {
		t.Fatalf("answers = %v", rep.answers)
	}
	if len(rep.messages) != 1 || rep.chats[0] != 4242 || !strings.Contains(rep.messages[0], "Release rss-1") {
		t.Fatalf("messages = %v chats = %v", rep.messages, rep.chats)
	}
}

type callbackFunc func(ctx context.Context, cb services.Callback) error

func (f callbackFunc) Handle(ctx context.Context, cb services.Callback) error { return f(ctx, cb) }
