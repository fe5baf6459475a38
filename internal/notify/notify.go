// Package notify delivers analyzed signals to channels. A Notifier never
// returns an error: every outcome, including transport failures and
// recovered panics, is reported as a domain.DeliveryAttempt.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// Notifier delivers one signal to one channel.
type Notifier interface {
	Channel() domain.Channel
	Notify(ctx context.Context, ev domain.SignalEvent, a domain.AnalysisResult, t domain.Target) []domain.DeliveryAttempt
}

// Inbox is the local inbox channel. The inbox itself is the persisted store,
// so delivery amounts to a log line.
type Inbox struct {
	log zerolog.Logger
}

// NewInbox returns the inbox notifier.
func NewInbox(log zerolog.Logger) *Inbox {
	return &Inbox{log: log.With().Str("component", "notify.inbox").Logger()}
}

// Channel implements Notifier.
func (*Inbox) Channel() domain.Channel { return domain.ChannelInbox }

// Notify implements Notifier.
func (n *Inbox) Notify(_ context.Context, ev domain.SignalEvent, a domain.AnalysisResult, t domain.Target) []domain.DeliveryAttempt {
	if !t.Inbox {
		return []domain.DeliveryAttempt{domain.Skipped(domain.ChannelInbox)}
	}
	n.log.Info().
		Str("signal_id", ev.ID).
		Str("source", string(ev.Source)).
		Str("title", ev.Title).
		Int("score", a.Score).
		Str("urgency", string(a.Urgency)).
		Msg("signal delivered to inbox")
	return []domain.DeliveryAttempt{domain.Sent(domain.ChannelInbox)}
}

// Multi fans a signal out to several notifiers concurrently. Attempts are
// concatenated in notifier order; one notifier's failure never affects
// another.
type Multi struct {
	notifiers []Notifier
}

// NewMulti composes notifiers.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

// Notify runs every notifier and concatenates their attempts.
func (m *Multi) Notify(ctx context.Context, ev domain.SignalEvent, a domain.AnalysisResult, t domain.Target) []domain.DeliveryAttempt {
	results := make([][]domain.DeliveryAttempt, len(m.notifiers))

	var wg sync.WaitGroup
	for i, n := range m.notifiers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = safeNotify(ctx, n, ev, a, t)
		}()
	}
	wg.Wait()

	var out []domain.DeliveryAttempt
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func safeNotify(ctx context.Context, n Notifier, ev domain.SignalEvent, a domain.AnalysisResult, t domain.Target) (out []domain.DeliveryAttempt) {
	defer func() {
		if r := recover(); r != nil {
			out = []domain.DeliveryAttempt{domain.Failed(n.Channel(), fmt.Errorf("notifier panic: %v", r))}
		}
	}()
	return n.Notify(ctx, ev, a, t)
}
