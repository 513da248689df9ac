package model

import "time"

// ReleaseBodyLimit is the number of characters of release notes kept on a marker.
const ReleaseBodyLimit = 200

// Marker is a fresh observation of one artifact kind on one repository.
// Identity is the subset compared against stored state.
type Marker interface {
	Kind() ArtifactKind
	Identity() string
}

// CommitMarker describes the latest commit on the default branch.
type CommitMarker struct {
	ShortID string
	Message string // First line only.
	Author  string
	Date    time.Time
	URL     string
}

func (m *CommitMarker) Kind() ArtifactKind { return KindCommit }
func (m *CommitMarker) Identity() string   { return m.ShortID }

// TagMarker describes the latest tag. Identity is the tag name only, so a tag
// force-moved to a different commit is not reported as a change.
type TagMarker struct {
	Name        string
	CommitShort string
	URL         string
}

func (m *TagMarker) Kind() ArtifactKind { return KindTag }
func (m *TagMarker) Identity() string   { return m.Name }

// ReleaseMarker describes the latest published release.
type ReleaseMarker struct {
	TagName     string
	Name        string // Falls back to TagName when the release has no title.
	PublishedAt time.Time
	URL         string
	Body        string // Truncated to ReleaseBodyLimit characters.
}

func (m *ReleaseMarker) Kind() ArtifactKind { return KindRelease }
func (m *ReleaseMarker) Identity() string   { return m.TagName }

// ShortSHA returns the first seven characters of a commit hash.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// FirstLine returns s up to the first newline.
func FirstLine(s string) string {
	for i, r := range s {
		if r == '\n' || r == '\r' {
			return s[:i]
		}
	}
	return s
}

// TruncateRunes returns at most n characters of s, counting runes rather than bytes.
func TruncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
