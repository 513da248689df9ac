package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

func testNotification() model.Notification {
	return model.Notification{
		Title: "📝 octo/demo: new commit",
		Body:  "Commit: def5678\nAuthor: alice\nMessage: Fix <b>tags</b> & more",
		URL:   "https://github.com/octo/demo/commit/def5678",
	}
}

// capture records the decoded JSON body and path of the last request.
type capture struct {
	mu   sync.Mutex
	body map[string]any
	path string
}

func (c *capture) Body() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body
}

func (c *capture) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// captureServer replies to every request with status and reply.
func captureServer(t *testing.T, status int, reply any) (*httptest.Server, *capture) {
	t.Helper()

	c := &capture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		c.mu.Lock()
		c.body, c.path = body, r.URL.Path
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(server.Close)

	return server, c
}

func TestTelegram_Send(t *testing.T) {
	server, c := captureServer(t, http.StatusOK, map[string]any{"ok": true})

	tg := NewTelegram("123:ABC", "42", WithEndpoint(server.URL))
	ok := tg.Send(context.Background(), testNotification())

	require.True(t, ok)
	assert.Equal(t, "/bot123:ABC/sendMessage", c.Path())
	assert.Equal(t, "42", c.Body()["chat_id"])
	assert.Equal(t, "HTML", c.Body()["parse_mode"])

	text := c.Body()["text"].(string)
	assert.Contains(t, text, "<b>📝 octo/demo: new commit</b>")
	assert.Contains(t, text, "Fix &lt;b&gt;tags&lt;/b&gt; &amp; more")
	assert.Contains(t, text, `<a href="https://github.com/octo/demo/commit/def5678">🔗 View details</a>`)
}

func TestTelegram_NotOK(t *testing.T) {
	server, _ := captureServer(t, http.StatusOK, map[string]any{"ok": false, "description": "chat not found"})

	ok := NewTelegram("123:ABC", "42", WithEndpoint(server.URL)).Send(context.Background(), testNotification())

	assert.False(t, ok)
}

func TestTelegram_HTTPError(t *testing.T) {
	server, _ := captureServer(t, http.StatusUnauthorized, map[string]any{"ok": false})

	ok := NewTelegram("123:ABC", "42", WithEndpoint(server.URL)).Send(context.Background(), testNotification())

	assert.False(t, ok)
}

func TestTelegram_RedactsToken(t *testing.T) {
	tg := NewTelegram("secret-token", "42", WithEndpoint("http://127.0.0.1:1"))

	err := tg.send(context.Background(), testNotification())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestTelegram_PacingHonoursContext(t *testing.T) {
	server, _ := captureServer(t, http.StatusOK, map[string]any{"ok": true})
	tg := NewTelegram("123:ABC", "42", WithEndpoint(server.URL))

	require.True(t, tg.Send(context.Background(), testNotification()))

	// The second message must wait for the limiter; a short deadline expires first.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.False(t, tg.Send(ctx, testNotification()))
}

func TestWxPusher_Send(t *testing.T) {
	server, c := captureServer(t, http.StatusOK, map[string]any{"code": 1000, "msg": "ok"})

	ok := NewWxPusher("AT_x", "UID_y", WithEndpoint(server.URL)).Send(context.Background(), testNotification())

	require.True(t, ok)
	assert.Equal(t, "AT_x", c.Body()["appToken"])
	assert.Equal(t, "📝 octo/demo: new commit", c.Body()["summary"])
	assert.EqualValues(t, 2, c.Body()["contentType"])
	assert.Equal(t, []any{"UID_y"}, c.Body()["uids"])

	content := c.Body()["content"].(string)
	assert.Contains(t, content, "Commit: def5678")
	assert.Contains(t, content, "<br")
	assert.Contains(t, content, `href="https://github.com/octo/demo/commit/def5678"`)
}

func TestWxPusher_RejectedCode(t *testing.T) {
	server, _ := captureServer(t, http.StatusOK, map[string]any{"code": 1001, "msg": "bad token"})

	ok := NewWxPusher("AT_x", "UID_y", WithEndpoint(server.URL)).Send(context.Background(), testNotification())

	assert.False(t, ok)
}

func TestPushPlus_Send(t *testing.T) {
	server, c := captureServer(t, http.StatusOK, map[string]any{"code": 200, "msg": "ok"})

	ok := NewPushPlus("pp-token", WithEndpoint(server.URL)).Send(context.Background(), testNotification())

	require.True(t, ok)
	assert.Equal(t, "pp-token", c.Body()["token"])
	assert.Equal(t, "html", c.Body()["template"])
	assert.Equal(t, "📝 octo/demo: new commit", c.Body()["title"])
}

func TestPushPlus_RejectedCode(t *testing.T) {
	server, _ := captureServer(t, http.StatusOK, map[string]any{"code": 900, "msg": "limit"})

	ok := NewPushPlus("pp-token", WithEndpoint(server.URL)).Send(context.Background(), testNotification())

	assert.False(t, ok)
}

func TestPushPlus_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	t.Cleanup(server.Close)

	ok := NewPushPlus("pp-token", WithEndpoint(server.URL)).Send(context.Background(), testNotification())

	assert.False(t, ok)
}

func TestFeishu_SendSigned(t *testing.T) {
	server, c := captureServer(t, http.StatusOK, map[string]any{"code": 0, "msg": "success"})

	f := NewFeishu(server.URL, "secret")
	f.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.True(t, f.Send(context.Background(), testNotification()))
	assert.Equal(t, "text", c.Body()["msg_type"])
	assert.Equal(t, "1700000000", c.Body()["timestamp"])
	assert.Equal(t, "fiWS2+gh28DOydAv7hzONH/mDn9+b1Y4Y5ivXWXy8vA=", c.Body()["sign"])

	content := c.Body()["content"].(map[string]any)
	assert.Contains(t, content["text"], "📝 octo/demo: new commit")
	assert.Contains(t, content["text"], "https://github.com/octo/demo/commit/def5678")
}

func TestFeishu_UnsignedAndRejected(t *testing.T) {
	server, c := captureServer(t, http.StatusOK, map[string]any{"code": 19021, "msg": "sign match fail"})

	ok := NewFeishu(server.URL, "").Send(context.Background(), testNotification())

	assert.False(t, ok)
	assert.NotContains(t, c.Body(), "sign")
}

func TestSend_Unreachable(t *testing.T) {
	ok := NewPushPlus("pp-token", WithEndpoint("http://127.0.0.1:1"), WithTimeout(time.Second)).
		Send(context.Background(), testNotification())

	assert.False(t, ok)
}

func TestRenderHTML(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", RenderHTML(model.Notification{}))
	})

	t.Run("strips scripts", func(t *testing.T) {
		out := RenderHTML(model.Notification{Body: `Notes: <script>alert("x")</script>`})
		assert.NotContains(t, out, "<script>")
		assert.Contains(t, out, "Notes:")
	})

	t.Run("markdown in release notes", func(t *testing.T) {
		out := RenderHTML(model.Notification{Body: "Notes:\n**breaking** change"})
		assert.Contains(t, out, "<strong>breaking</strong>")
	})
}

func TestPlainText_NoURL(t *testing.T) {
	assert.Equal(t, "title\n\nbody", plainText(model.Notification{Title: "title", Body: "body"}))
}
