package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Feishu)(nil)

// Feishu posts text messages to a Feishu/Lark custom bot webhook.
type Feishu struct {
	opts   options
	secret string
	now    func() time.Time
}

// NewFeishu creates a Feishu backend. When secret is non-empty every request
// carries a timestamp and HMAC-SHA256 signature.
func NewFeishu(webhookURL, secret string, opts ...Option) *Feishu {
	return &Feishu{opts: newOptions(webhookURL, opts), secret: secret, now: time.Now}
}

// Name returns the backend name used in logs.
func (f *Feishu) Name() string { return "feishu" }

type feishuResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Send posts n as a text message. Success requires code 0 in the response body.
func (f *Feishu) Send(ctx context.Context, n model.Notification) bool {
	return report(f.Name(), f.send(ctx, n))
}

func (f *Feishu) send(ctx context.Context, n model.Notification) error {
	payload := map[string]any{
		"msg_type": "text",
		"content":  map[string]string{"text": plainText(n)},
	}
	if f.secret != "" {
		ts := strconv.FormatInt(f.now().Unix(), 10)
		payload["timestamp"] = ts
		payload["sign"] = feishuSign(ts, f.secret)
	}

	var resp feishuResponse
	if err := postJSON(ctx, f.opts.httpClient, f.opts.endpoint, payload, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return fmt.Errorf("feishu rejected message: code=%d msg=%s", resp.Code, resp.Msg)
	}
	return nil
}

// feishuSign computes the custom-bot signature: the key is
// "<timestamp>\n<secret>" and the signed message is empty.
func feishuSign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(timestamp+"\n"+secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
