package notify

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

const detailsLabel = "🔗 View details"

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe(), gmhtml.WithHardWraps()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderHTML converts a notification body to sanitized HTML. Line breaks are
// preserved and the detail link, when present, is appended after a blank line.
func RenderHTML(n model.Notification) string {
	src := n.Body
	if n.URL != "" {
		src += "\n\n[" + detailsLabel + "](<" + n.URL + ">)"
	}
	if strings.TrimSpace(src) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(strings.ReplaceAll(html.EscapeString(src), "\n", "<br>"))
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// telegramHTML builds a message in Telegram's restricted HTML dialect: bold
// title, escaped body, optional link.
func telegramHTML(n model.Notification) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(n.Title))
	b.WriteString("</b>\n\n")
	b.WriteString(html.EscapeString(n.Body))
	if n.URL != "" {
		b.WriteString("\n\n<a href=\"")
		b.WriteString(html.EscapeString(n.URL))
		b.WriteString("\">")
		b.WriteString(detailsLabel)
		b.WriteString("</a>")
	}
	return b.String()
}

// plainText joins title, body and link for text-only channels.
func plainText(n model.Notification) string {
	parts := []string{n.Title}
	if n.Body != "" {
		parts = append(parts, n.Body)
	}
	if n.URL != "" {
		parts = append(parts, detailsLabel+": "+n.URL)
	}
	return strings.Join(parts, "\n\n")
}
