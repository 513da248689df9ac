package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Telegram)(nil)

const telegramAPI = "https://api.telegram.org"

// Telegram sends messages through the Bot API sendMessage method. Messages to
// the chat are paced to one per second, the Bot API's per-chat limit.
type Telegram struct {
	opts    options
	token   string
	chatID  string
	limiter *rate.Limiter
}

// NewTelegram creates a Telegram backend for one bot and chat.
func NewTelegram(botToken, chatID string, opts ...Option) *Telegram {
	return &Telegram{
		opts:    newOptions(telegramAPI, opts),
		token:   botToken,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Name returns the backend name used in logs.
func (t *Telegram) Name() string { return "telegram" }

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts n to the configured chat. Success requires a 2xx status and "ok": true.
func (t *Telegram) Send(ctx context.Context, n model.Notification) bool {
	return report(t.Name(), t.send(ctx, n))
}

func (t *Telegram) send(ctx context.Context, n model.Notification) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     telegramHTML(n),
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}

	var resp telegramResponse
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.opts.endpoint, t.token)
	if err := postJSON(ctx, t.opts.httpClient, url, payload, &resp); err != nil {
		// Transport errors quote the URL, which embeds the bot token.
		return fmt.Errorf("sendMessage: %s", strings.ReplaceAll(err.Error(), t.token, "<redacted>"))
	}
	if !resp.OK {
		return fmt.Errorf("sendMessage rejected: %s", resp.Description)
	}
	return nil
}
