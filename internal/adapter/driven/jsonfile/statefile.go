// Package jsonfile implements the state and summary ports on plain files.
// Every write goes through a temporary file and rename, so a crash never
// leaves a half-written file behind.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StateRepository = (*StateFile)(nil)

// stateRecord is the on-disk form of one repository's state. The keys match
// the files written by earlier releases of the tool.
type stateRecord struct {
	LastCommit  *string `json:"last_commit,omitempty"`
	LastTag     *string `json:"last_tag,omitempty"`
	LastRelease *string `json:"last_release,omitempty"`
	LastCheck   *string `json:"last_check,omitempty"`
}

// singleRepoKeys are the top-level keys of the older single-repository file,
// which held one stateRecord directly instead of a map keyed by repository.
var singleRepoKeys = []string{"last_commit", "last_tag", "last_release", "last_check"}

// StateFile stores every repository's state in a single JSON object keyed by
// repository identifier.
type StateFile struct {
	path  string
	repos []string
}

// NewStateFile creates a StateFile at path. The file need not exist yet.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// WithRepositories sets the configured repositories. A single-repository
// state file is attributed to the repository when exactly one is configured.
func (f *StateFile) WithRepositories(repos []string) *StateFile {
	f.repos = repos
	return f
}

// Load reads the state file. A missing file yields an empty map; an
// unreadable or malformed file is an error wrapping model.ErrPersistence.
// The next Save rewrites a single-repository file in the keyed layout.
func (f *StateFile) Load(_ context.Context) (map[string]model.RepositoryState, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]model.RepositoryState), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", model.ErrPersistence, f.path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", model.ErrPersistence, f.path, err)
	}

	if isSingleRepository(raw) {
		return f.loadSingleRepository(data)
	}

	states := make(map[string]model.RepositoryState, len(raw))
	for repo, msg := range raw {
		var rec stateRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("%w: parsing %s entry %q: %w", model.ErrPersistence, f.path, repo, err)
		}
		states[repo] = rec.toModel(repo)
	}
	return states, nil
}

func isSingleRepository(raw map[string]json.RawMessage) bool {
	for _, key := range singleRepoKeys {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

func (f *StateFile) loadSingleRepository(data []byte) (map[string]model.RepositoryState, error) {
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", model.ErrPersistence, f.path, err)
	}

	states := make(map[string]model.RepositoryState, 1)
	if len(f.repos) != 1 {
		slog.Warn("state file holds a single repository's state but it cannot be attributed, starting from an empty baseline",
			"path", f.path,
			"configured_repositories", len(f.repos),
		)
		return states, nil
	}

	repo := f.repos[0]
	states[repo] = rec.toModel(repo)
	slog.Info("single-repository state file attributed", "path", f.path, "repo", repo)
	return states, nil
}

// Save replaces the file with states, written atomically.
func (f *StateFile) Save(_ context.Context, states map[string]model.RepositoryState) error {
	records := make(map[string]stateRecord, len(states))
	for repo, state := range states {
		records[repo] = fromModel(state)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding state: %w", model.ErrPersistence, err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: writing %s: %w", model.ErrPersistence, f.path, err)
	}
	return nil
}

func (r stateRecord) toModel(repo string) model.RepositoryState {
	state := model.RepositoryState{
		LastCommitID:   r.LastCommit,
		LastTagName:    r.LastTag,
		LastReleaseTag: r.LastRelease,
	}
	if r.LastCheck != nil {
		t, err := ParseTimestamp(*r.LastCheck)
		if err != nil {
			slog.Warn("ignoring unparsable last_check", "repo", repo, "value", *r.LastCheck)
		} else {
			state.LastCheckedAt = &t
		}
	}
	return state
}

func fromModel(s model.RepositoryState) stateRecord {
	rec := stateRecord{
		LastCommit:  s.LastCommitID,
		LastTag:     s.LastTagName,
		LastRelease: s.LastReleaseTag,
	}
	if s.LastCheckedAt != nil {
		v := s.LastCheckedAt.UTC().Format(time.RFC3339Nano)
		rec.LastCheck = &v
	}
	return rec
}

// ParseTimestamp accepts RFC 3339 and the naive ISO 8601 forms (with or
// without fractional seconds) found in older state files. Naive values are
// interpreted in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	naive := []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	}
	for _, layout := range naive {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
