// Package telegram is a thin Bot API client built on telebot. It only sends
// messages with inline keyboards and answers callback queries; inbound
// updates arrive through the HTTP webhook, so the bot never polls.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// Options configures a Client.
type Options struct {
	Token      string
	APIURL     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Button is one inline keyboard button. Exactly one of URL or Data is set.
type Button struct {
	Text string
	URL  string
	Data string
}

// Client sends Bot API requests.
type Client struct {
	bot *tele.Bot
}

// New builds a client without contacting Telegram.
func New(o Options) (*Client, error) {
	if strings.TrimSpace(o.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	c := *hc
	c.Timeout = o.Timeout

	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(o.APIURL, "/"),
		Token:   o.Token,
		Client:  &c,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &Client{bot: b}, nil
}

// SendMessage posts plain text to chatID with an optional inline keyboard.
// Link previews are disabled.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]Button) error {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if len(keyboard) > 0 {
		opts.ReplyMarkup = markup(keyboard)
	}
	return call(ctx, func() error {
		_, err := c.bot.Send(&tele.Chat{ID: chatID}, text, opts)
		return err
	})
}

// AnswerCallback acknowledges a callback query with a short toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return call(ctx, func() error {
		return c.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
	})
}

func markup(keyboard [][]Button) *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(keyboard))
	for _, r := range keyboard {
		btns := make([]tele.Btn, 0, len(r))
		for _, b := range r {
			btns = append(btns, tele.Btn{Text: b.Text, URL: b.URL, Data: b.Data})
		}
		rows = append(rows, rm.Row(btns...))
	}
	rm.Inline(rows...)
	return rm
}

// call runs fn but returns early when ctx ends. The HTTP client timeout
// bounds fn itself.
func call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
