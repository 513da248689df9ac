// Package source routes fetches to the adapter that understands a repository identifier.
package source

import (
	"context"

	"github.com/ericfisherdev/repowatch/internal/adapter/driven/gitremote"
	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SourceFetcher = (*Router)(nil)

// Router sends git remote URLs to one fetcher and owner/name identifiers to another.
type Router struct {
	hosted driven.SourceFetcher
	remote driven.SourceFetcher
}

// NewRouter creates a Router. hosted serves owner/name identifiers; remote
// serves identifiers for which gitremote.IsRemoteURL is true.
func NewRouter(hosted, remote driven.SourceFetcher) *Router {
	return &Router{hosted: hosted, remote: remote}
}

func (r *Router) pick(repo string) driven.SourceFetcher {
	if gitremote.IsRemoteURL(repo) {
		return r.remote
	}
	return r.hosted
}

// FetchLatestCommit delegates to the fetcher that owns repo.
func (r *Router) FetchLatestCommit(ctx context.Context, repo string) (*model.CommitMarker, error) {
	return r.pick(repo).FetchLatestCommit(ctx, repo)
}

// FetchLatestTag delegates to the fetcher that owns repo.
func (r *Router) FetchLatestTag(ctx context.Context, repo string) (*model.TagMarker, error) {
	return r.pick(repo).FetchLatestTag(ctx, repo)
}

// FetchLatestRelease delegates to the fetcher that owns repo.
func (r *Router) FetchLatestRelease(ctx context.Context, repo string) (*model.ReleaseMarker, error) {
	return r.pick(repo).FetchLatestRelease(ctx, repo)
}
