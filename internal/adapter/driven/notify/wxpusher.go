package notify

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*WxPusher)(nil)

const (
	wxPusherAPI         = "https://wxpusher.zjiecode.com/api/send/message"
	wxPusherCodeOK      = 1000
	wxPusherHTMLContent = 2
)

// WxPusher delivers WeChat messages through the WxPusher service.
type WxPusher struct {
	opts     options
	appToken string
	uid      string
}

// NewWxPusher creates a WxPusher backend for one application and recipient.
func NewWxPusher(appToken, uid string, opts ...Option) *WxPusher {
	return &WxPusher{opts: newOptions(wxPusherAPI, opts), appToken: appToken, uid: uid}
}

// Name returns the backend name used in logs.
func (w *WxPusher) Name() string { return "wxpusher" }

type wxPusherResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Send posts n as HTML. Success requires code 1000 in the response body.
func (w *WxPusher) Send(ctx context.Context, n model.Notification) bool {
	return report(w.Name(), w.send(ctx, n))
}

func (w *WxPusher) send(ctx context.Context, n model.Notification) error {
	payload := map[string]any{
		"appToken":    w.appToken,
		"content":     RenderHTML(n),
		"summary":     n.Title,
		"contentType": wxPusherHTMLContent,
		"uids":        []string{w.uid},
	}

	var resp wxPusherResponse
	if err := postJSON(ctx, w.opts.httpClient, w.opts.endpoint, payload, &resp); err != nil {
		return err
	}
	if resp.Code != wxPusherCodeOK {
		return fmt.Errorf("wxpusher rejected message: code=%d msg=%s", resp.Code, resp.Msg)
	}
	return nil
}
