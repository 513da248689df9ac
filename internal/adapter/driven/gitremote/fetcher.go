// Package gitremote implements the SourceFetcher port for arbitrary git remotes
// using go-git. It needs no hosting-provider API: the latest commit comes from
// a shallow in-memory clone and the latest tag from the advertised references.
package gitremote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	"golang.org/x/mod/semver"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SourceFetcher = (*Fetcher)(nil)

const peeledSuffix = "^{}"

// Fetcher reads commits and tags directly from a git remote. Releases are a
// hosting-provider concept, so FetchLatestRelease always reports none.
type Fetcher struct {
	basic *githttp.BasicAuth
}

// NewFetcher creates a Fetcher. When username or password is non-empty, HTTP
// basic auth is sent to http(s) remotes. SSH remotes use the default SSH agent.
func NewFetcher(username, password string) *Fetcher {
	f := &Fetcher{}
	if username != "" || password != "" {
		f.basic = &githttp.BasicAuth{Username: username, Password: password}
	}
	return f
}

// authFor returns the credentials for remoteURL, or nil to let go-git pick
// the transport default.
func (f *Fetcher) authFor(remoteURL string) transport.AuthMethod {
	if f.basic == nil || !isHTTPURL(remoteURL) {
		return nil
	}
	return f.basic
}

// IsRemoteURL reports whether id names a git remote rather than an owner/name
// pair on a hosting provider. A scheme or scp-style "git@" prefix is required,
// so "owner/name.git" stays with the hosting provider.
func IsRemoteURL(id string) bool {
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "file://", "git@"} {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

// isHTTPURL reports whether remoteURL uses a transport that accepts basic auth.
func isHTTPURL(remoteURL string) bool {
	return strings.HasPrefix(remoteURL, "https://") || strings.HasPrefix(remoteURL, "http://")
}

// FetchLatestCommit shallow-clones the default branch into memory and returns its head commit.
// Returns nil, nil for an empty remote.
func (f *Fetcher) FetchLatestCommit(ctx context.Context, remoteURL string) (*model.CommitMarker, error) {
	opts := &git.CloneOptions{
		URL:          remoteURL,
		Auth:         f.authFor(remoteURL),
		SingleBranch: true,
		Tags:         git.NoTags,
		NoCheckout:   true,
	}
	// The local file transport does not negotiate shallow clones reliably.
	if !strings.HasPrefix(remoteURL, "file://") {
		opts.Depth = 1
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, opts)
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, nil
		}
		return nil, fmt.Errorf("cloning %s: %w", remoteURL, err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving HEAD of %s: %w", remoteURL, err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("reading commit %s of %s: %w", head.Hash(), remoteURL, err)
	}

	sha := commit.Hash.String()
	marker := &model.CommitMarker{
		ShortID: model.ShortSHA(sha),
		Message: model.FirstLine(strings.TrimSpace(commit.Message)),
		Author:  commit.Author.Name,
		Date:    commit.Author.When,
	}
	if web := webURL(remoteURL); web != "" {
		marker.URL = web + "/commit/" + sha
	}
	return marker, nil
}

// FetchLatestTag lists the remote's tags and returns the highest by semantic
// version. When no tag parses as a version, the lexically greatest name wins.
// Returns nil, nil when the remote has no tags.
func (f *Fetcher) FetchLatestTag(ctx context.Context, remoteURL string) (*model.TagMarker, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{remoteURL},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: f.authFor(remoteURL)})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing references of %s: %w", remoteURL, err)
	}

	tags := collectTags(refs)
	if len(tags) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	latest := LatestTag(names)

	marker := &model.TagMarker{
		Name:        latest,
		CommitShort: model.ShortSHA(tags[latest]),
	}
	if web := webURL(remoteURL); web != "" {
		marker.URL = web + "/tree/" + latest
	}
	return marker, nil
}

// FetchLatestRelease always returns nil, nil: plain git has no releases.
func (f *Fetcher) FetchLatestRelease(_ context.Context, _ string) (*model.ReleaseMarker, error) {
	return nil, nil
}

// collectTags maps tag name to the commit hash it points at. For annotated
// tags the peeled "^{}" entry wins over the tag object hash.
func collectTags(refs []*plumbing.Reference) map[string]string {
	tags := make(map[string]string)
	peeled := make(map[string]bool)

	for _, ref := range refs {
		if ref.Type() != plumbing.HashReference || !ref.Name().IsTag() {
			continue
		}
		name := ref.Name().Short()
		if strings.HasSuffix(name, peeledSuffix) {
			name = strings.TrimSuffix(name, peeledSuffix)
			tags[name] = ref.Hash().String()
			peeled[name] = true
			continue
		}
		if !peeled[name] {
			tags[name] = ref.Hash().String()
		}
	}
	return tags
}

// LatestTag picks the newest tag name. Names are compared as semantic versions
// (a missing "v" prefix is tolerated); names that are not versions sort below
// every version and are ordered lexically among themselves.
func LatestTag(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := canonicalVersion(sorted[i]), canonicalVersion(sorted[j])
		switch {
		case vi != "" && vj != "":
			if c := semver.Compare(vi, vj); c != 0 {
				return c > 0
			}
			return sorted[i] > sorted[j]
		case vi != "":
			return true
		case vj != "":
			return false
		default:
			return sorted[i] > sorted[j]
		}
	})
	return sorted[0]
}

func canonicalVersion(name string) string {
	v := name
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// webURL derives a browsable base URL from an HTTP(S) remote URL.
// Other schemes have no reliable web form and yield "".
func webURL(remoteURL string) string {
	if !isHTTPURL(remoteURL) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSuffix(remoteURL, "/"), ".git")
}
