package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

func TestFormatNotification_Commit(t *testing.T) {
	n := FormatNotification(commitEvent())

	assert.Equal(t, "📝 octo/demo: new commit", n.Title)
	assert.Equal(t, "Commit: def5678\nAuthor: alice\nMessage: Add feature\nDate: 2026-02-01T08:30:00Z", n.Body)
	assert.Equal(t, "https://github.com/octo/demo/commit/def5678", n.URL)
}

func TestFormatNotification_Tag(t *testing.T) {
	marker := &model.TagMarker{Name: "v1.2.0", CommitShort: "abc1234", URL: "https://github.com/octo/demo/releases/tag/v1.2.0"}
	ev := model.ChangeEvent{Kind: model.KindTag, Repository: "octo/demo", Marker: marker}

	n := FormatNotification(ev)

	assert.Equal(t, "🏷️ octo/demo: new tag", n.Title)
	assert.Equal(t, "Tag: v1.2.0\nCommit: abc1234", n.Body)
	assert.Equal(t, marker.URL, n.URL)
}

func TestFormatNotification_Release(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantBody string
	}{
		{
			name:     "with notes",
			body:     "Bug fixes",
			wantBody: "Release: Spring\nTag: v2.0.0\nPublished: 2026-03-01T00:00:00Z\n\nNotes:\nBug fixes...",
		},
		{
			name:     "without notes",
			body:     "",
			wantBody: "Release: Spring\nTag: v2.0.0\nPublished: 2026-03-01T00:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marker := &model.ReleaseMarker{
				TagName:     "v2.0.0",
				Name:        "Spring",
				PublishedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				Body:        tt.body,
			}
			n := FormatNotification(model.ChangeEvent{Kind: model.KindRelease, Repository: "octo/demo", Marker: marker})

			assert.Equal(t, "🚀 octo/demo: new release", n.Title)
			assert.Equal(t, tt.wantBody, n.Body)
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "def5678 - msg", Describe(&model.CommitMarker{ShortID: "def5678", Message: "msg"}))
	assert.Equal(t, "v1.0.0 (abc1234)", Describe(&model.TagMarker{Name: "v1.0.0", CommitShort: "abc1234"}))
	assert.Equal(t, "Big one (v3.0.0)", Describe(&model.ReleaseMarker{TagName: "v3.0.0", Name: "Big one"}))
	assert.Equal(t, "", Describe(nil))
}

func TestFormatTime_Zero(t *testing.T) {
	assert.Equal(t, "unknown", formatTime(time.Time{}))
}
