package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// FormatNotification renders the kind-specific message for a change event.
func FormatNotification(ev model.ChangeEvent) model.Notification {
	switch m := ev.Marker.(type) {
	case *model.CommitMarker:
		return model.Notification{
			Title: fmt.Sprintf("📝 %s: new commit", ev.Repository),
			Body: strings.Join([]string{
				"Commit: " + m.ShortID,
				"Author: " + m.Author,
				"Message: " + m.Message,
				"Date: " + formatTime(m.Date),
			}, "\n"),
			URL: m.URL,
		}
	case *model.TagMarker:
		return model.Notification{
			Title: fmt.Sprintf("🏷️ %s: new tag", ev.Repository),
			Body: strings.Join([]string{
				"Tag: " + m.Name,
				"Commit: " + m.CommitShort,
			}, "\n"),
			URL: m.URL,
		}
	case *model.ReleaseMarker:
		body := strings.Join([]string{
			"Release: " + m.Name,
			"Tag: " + m.TagName,
			"Published: " + formatTime(m.PublishedAt),
		}, "\n")
		if m.Body != "" {
			body += "\n\nNotes:\n" + m.Body + "..."
		}
		return model.Notification{
			Title: fmt.Sprintf("🚀 %s: new release", ev.Repository),
			Body:  body,
			URL:   m.URL,
		}
	default:
		return model.Notification{
			Title: fmt.Sprintf("%s: new %s", ev.Repository, ev.Kind),
			Body:  ev.Description,
		}
	}
}

// Describe returns the one-line description used in summaries and logs.
func Describe(m model.Marker) string {
	switch m := m.(type) {
	case *model.CommitMarker:
		return fmt.Sprintf("%s - %s", m.ShortID, m.Message)
	case *model.TagMarker:
		return fmt.Sprintf("%s (%s)", m.Name, m.CommitShort)
	case *model.ReleaseMarker:
		return fmt.Sprintf("%s (%s)", m.Name, m.TagName)
	case nil:
		return ""
	default:
		return m.Identity()
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
