// Package services – CallbackService
//
// This file implements the inline-button actions sent back by Telegram:
//
//	mute:<source>      add the source to the mute set
//	explain:<signalId> reply with the stored explanation
//
// Each callback id is processed at most once. Malformed or unknown callbacks
// are acknowledged as no-ops; only store failures surface as errors.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/metrics"
	"github.com/tbourn/go-signal-pipeline/internal/telegram"
)

// Callback actions.
const (
	ActionMute    = "mute"
	ActionExplain = "explain"
)

// ExplainNotFound is sent when an explain button refers to a signal with no
// stored analysis.
const ExplainNotFound = "No stored analysis found for this event yet. Try again after the event is processed."

// DefaultCallbackTTL bounds how long a processed callback id is remembered.
const DefaultCallbackTTL = 24 * time.Hour

// CallbackStore is the persistence contract of CallbackService.
type CallbackStore interface {
	MuteSource(ctx context.Context, source domain.SourceKind) error
	GetSignalExplain(ctx context.Context, id string) (string, bool, error)
	ClaimCallback(ctx context.Context, callbackID, action string, ttl time.Duration) (bool, error)
	ReleaseCallback(ctx context.Context, callbackID string) error
}

// Replier talks back to the Telegram chat. A nil Replier disables replies.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]telegram.Button) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Callback is the subset of a Telegram callback query the service needs.
type Callback struct {
	ID     string
	Data   string
	ChatID int64
}

// CallbackService executes callback actions.
type CallbackService struct {
	Store   CallbackStore
	Replier Replier
	TTL     time.Duration
	Log     zerolog.Logger
}

// NewCallbackService builds a CallbackService. A non-positive ttl selects
// DefaultCallbackTTL.
func NewCallbackService(store CallbackStore, replier Replier, ttl time.Duration, log zerolog.Logger) *CallbackService {
	if ttl <= 0 {
		ttl = DefaultCallbackTTL
	}
	return &CallbackService{
		Store:   store,
		Replier: replier,
		TTL:     ttl,
		Log:     log.With().Str("component", "callbacks").Logger(),
	}
}

// Handle processes one callback. The returned error is non-nil only when the
// store fails; in that case the claim is released so a redelivery can retry.
func (s *CallbackService) Handle(ctx context.Context, cb Callback) error {
	ctx, span := otel.Tracer("services/CallbackService").Start(ctx, "Handle",
		trace.WithAttributes(
			attribute.String("callback.id", cb.ID),
			attribute.String("callback.data", cb.Data),
		),
	)
	defer span.End()

	cb.ID = strings.TrimSpace(cb.ID)
	if cb.ID == "" || cb.Data == "" {
		metrics.ObserveWebhookAction("none", "ignored")
		return nil
	}

	action, arg, _ := strings.Cut(cb.Data, ":")
	switch action {
	case ActionMute:
		src, ok := domain.ParseSourceKind(arg)
		if !ok {
			s.ignore(action, cb, "unknown source")
			return nil
		}
		return s.once(ctx, cb, action, func() error { return s.mute(ctx, cb, src) })
	case ActionExplain:
		if strings.TrimSpace(arg) == "" {
			s.ignore(action, cb, "missing signal id")
			return nil
		}
		return s.once(ctx, cb, action, func() error { return s.explain(ctx, cb, arg) })
	default:
		s.ignore("unknown", cb, "unknown action")
		return nil
	}
}

func (s *CallbackService) once(ctx context.Context, cb Callback, action string, run func() error) error {
	first, err := s.Store.ClaimCallback(ctx, cb.ID, action, s.TTL)
	if err != nil {
		metrics.ObserveWebhookAction(action, "error")
		return fmt.Errorf("claim callback: %w", err)
	}
	if !first {
		metrics.ObserveWebhookAction(action, "duplicate")
		s.Log.Debug().Str("callback_id", cb.ID).Str("action", action).Msg("duplicate callback ignored")
		return nil
	}
	if err := run(); err != nil {
		metrics.ObserveWebhookAction(action, "error")
		if rerr := s.Store.ReleaseCallback(context.WithoutCancel(ctx), cb.ID); rerr != nil {
			s.Log.Warn().Err(rerr).Str("callback_id", cb.ID).Msg("release callback claim failed")
		}
		return err
	}
	metrics.ObserveWebhookAction(action, "ok")
	return nil
}

func (s *CallbackService) mute(ctx context.Context, cb Callback, src domain.SourceKind) error {
	if err := s.Store.MuteSource(ctx, src); err != nil {
		return fmt.Errorf("mute source: %w", err)
	}
	s.Log.Info().Str("source", string(src)).Msg("source muted via callback")
	s.answer(ctx, cb.ID, "Muted source: "+string(src))
	return nil
}

func (s *CallbackService) explain(ctx context.Context, cb Callback, signalID string) error {
	text, found, err := s.Store.GetSignalExplain(ctx, signalID)
	if err != nil {
		return fmt.Errorf("load explanation: %w", err)
	}
	if !found {
		text = ExplainNotFound
	}
	if cb.ChatID != 0 && s.Replier != nil {
		if err := s.Replier.SendMessage(ctx, cb.ChatID, text, nil); err != nil {
			s.Log.Warn().Err(err).Str("signal_id", signalID).Msg("send explanation failed")
		}
	}
	s.answer(ctx, cb.ID, "Sent detailed breakdown")
	return nil
}

func (s *CallbackService) answer(ctx context.Context, id, text string) {
	if s.Replier == nil {
		return
	}
	if err := s.Replier.AnswerCallback(ctx, id, text); err != nil {
		s.Log.Warn().Err(err).Str("callback_id", id).Msg("answer callback failed")
	}
}

func (s *CallbackService) ignore(action string, cb Callback, reason string) {
	metrics.ObserveWebhookAction(action, "ignored")
	s.Log.Debug().Str("callback_id", cb.ID).Str("data", cb.Data).Str("reason", reason).Msg("callback ignored")
}
