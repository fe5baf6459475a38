package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/telegram"
)

// Sender is the subset of the Telegram client used for delivery.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]telegram.Button) error
}

// TelegramOptions configures the chat channel.
type TelegramOptions struct {
	ChatID int64
	// WithAnalysis selects the rich message and the explain/mute buttons.
	WithAnalysis bool
	Timeout      time.Duration
}

// Telegram delivers signals to one chat.
type Telegram struct {
	sender Sender
	o      TelegramOptions
	log    zerolog.Logger
}

// NewTelegram returns the chat notifier. A nil sender or zero chat id makes
// every delivery a skip.
func NewTelegram(sender Sender, o TelegramOptions, log zerolog.Logger) *Telegram {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return &Telegram{sender: sender, o: o, log: log.With().Str("component", "notify.telegram").Logger()}
}

// Channel implements Notifier.
func (*Telegram) Channel() domain.Channel { return domain.ChannelTelegram }

// Notify implements Notifier.
func (n *Telegram) Notify(ctx context.Context, ev domain.SignalEvent, a domain.AnalysisResult, t domain.Target) []domain.DeliveryAttempt {
	if !t.Telegram || n.sender == nil || n.o.ChatID == 0 {
		return []domain.DeliveryAttempt{domain.Skipped(domain.ChannelTelegram)}
	}

	ctx, cancel := context.WithTimeout(ctx, n.o.Timeout)
	defer cancel()

	err := n.sender.SendMessage(ctx, n.o.ChatID, FormatMessage(ev, a, n.o.WithAnalysis), Keyboard(ev, n.o.WithAnalysis))
	if err != nil {
		n.log.Warn().Err(err).Str("signal_id", ev.ID).Msg("telegram send failed")
		return []domain.DeliveryAttempt{domain.Failed(domain.ChannelTelegram, err)}
	}
	return []domain.DeliveryAttempt{domain.Sent(domain.ChannelTelegram)}
}

// FormatMessage renders the chat text. Without analysis only the item itself
// is shown.
func FormatMessage(ev domain.SignalEvent, a domain.AnalysisResult, withAnalysis bool) string {
	if !withAnalysis {
		desc := ev.Snippet
		if desc == "" {
			desc = "No description available."
		}
		return strings.Join([]string{
			"Title: " + ev.Title,
			"Description: " + desc,
			"Source: " + string(ev.Source),
			"Link: " + ev.URL,
		}, "\n")
	}
	return strings.Join([]string{
		fmt.Sprintf("[%s] %s", ev.Source.Label(), ev.Title),
		"Author: " + ev.Author,
		fmt.Sprintf("Score: %d | Urgency: %s", a.Score, a.Urgency),
		"Summary: " + a.Summary,
		"Good: " + strings.Join(a.Pros, "; "),
		"Bad: " + strings.Join(a.Cons, "; "),
		"How to use: " + strings.Join(a.HowToUse, "; "),
		"Where to use: " + strings.Join(a.WhereToUse, "; "),
		"Link: " + ev.URL,
	}, "\n")
}

// Keyboard builds the inline keyboard. The explain and mute actions are only
// offered alongside a real analysis.
func Keyboard(ev domain.SignalEvent, withAnalysis bool) [][]telegram.Button {
	kb := [][]telegram.Button{{{Text: "Open source", URL: ev.URL}}}
	if withAnalysis {
		kb = append(kb, []telegram.Button{
			{Text: "Why this matters", Data: "explain:" + ev.ID},
			{Text: "Mute source", Data: "mute:" + string(ev.Source)},
		})
	}
	return kb
}
