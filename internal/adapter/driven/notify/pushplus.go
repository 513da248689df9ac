package notify

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*PushPlus)(nil)

const (
	pushPlusAPI    = "https://www.pushplus.plus/send"
	pushPlusCodeOK = 200
)

// PushPlus delivers WeChat messages through the PushPlus service.
type PushPlus struct {
	opts  options
	token string
}

// NewPushPlus creates a PushPlus backend.
func NewPushPlus(token string, opts ...Option) *PushPlus {
	return &PushPlus{opts: newOptions(pushPlusAPI, opts), token: token}
}

// Name returns the backend name used in logs.
func (p *PushPlus) Name() string { return "pushplus" }

type pushPlusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Send posts n with the html template. Success requires code 200 in the response body.
func (p *PushPlus) Send(ctx context.Context, n model.Notification) bool {
	return report(p.Name(), p.send(ctx, n))
}

func (p *PushPlus) send(ctx context.Context, n model.Notification) error {
	payload := map[string]any{
		"token":    p.token,
		"title":    n.Title,
		"content":  RenderHTML(n),
		"template": "html",
	}

	var resp pushPlusResponse
	if err := postJSON(ctx, p.opts.httpClient, p.opts.endpoint, payload, &resp); err != nil {
		return err
	}
	if resp.Code != pushPlusCodeOK {
		return fmt.Errorf("pushplus rejected message: code=%d msg=%s", resp.Code, resp.Msg)
	}
	return nil
}
