// Package github implements the SourceFetcher port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SourceFetcher = (*Client)(nil)

const defaultWebURL = "https://github.com"

// Client implements the driven.SourceFetcher port using the go-github library.
type Client struct {
	gh     *gh.Client
	webURL string // Base for human-facing links, e.g. "https://github.com".
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching, shared across runs in watch mode)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, token auth when token is non-empty)
//
// apiURL may be empty for api.github.com or point at a GitHub Enterprise
// host; go-github appends "/api/v3/" when missing.
func NewClient(token, apiURL string, timeout time.Duration) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = timeout

	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	webURL := defaultWebURL
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub API URL %q: %w", apiURL, err)
		}
		webURL = webBase(apiURL)
	}

	return &Client{gh: client, webURL: webURL}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client, webURL: defaultWebURL}, nil
}

// FetchLatestCommit returns the newest commit on the default branch.
// Returns nil, nil for an empty repository.
func (c *Client) FetchLatestCommit(ctx context.Context, repoFullName string) (*model.CommitMarker, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.CommitsListOptions{ListOptions: gh.ListOptions{PerPage: 1}}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		// GitHub answers 409 Conflict for a repository with no commits.
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, nil
		}
		return nil, fmt.Errorf("listing commits for %s: %w", repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/commits")

	if len(commits) == 0 {
		return nil, nil
	}
	return mapCommit(commits[0]), nil
}

// FetchLatestTag returns the first tag reported by the tags endpoint.
// Returns nil, nil when the repository has no tags.
func (c *Client) FetchLatestTag(ctx context.Context, repoFullName string) (*model.TagMarker, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	tags, resp, err := c.gh.Repositories.ListTags(ctx, owner, repo, &gh.ListOptions{PerPage: 1})
	if err != nil {
		return nil, fmt.Errorf("listing tags for %s: %w", repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/tags")

	if len(tags) == 0 {
		return nil, nil
	}
	return c.mapTag(tags[0], owner+"/"+repo), nil
}

// FetchLatestRelease returns the latest published release.
// Returns nil, nil if the repository has no releases (404).
func (c *Client) FetchLatestRelease(ctx context.Context, repoFullName string) (*model.ReleaseMarker, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	release, resp, err := c.gh.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching latest release for %s: %w", repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/releases/latest")

	return mapRelease(release), nil
}

// mapCommit converts a go-github RepositoryCommit to a domain CommitMarker.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapCommit(rc *gh.RepositoryCommit) *model.CommitMarker {
	commit := rc.GetCommit()
	author := commit.GetAuthor()

	name := author.GetName()
	if name == "" {
		name = rc.GetAuthor().GetLogin()
	}

	return &model.CommitMarker{
		ShortID: model.ShortSHA(rc.GetSHA()),
		Message: model.FirstLine(commit.GetMessage()),
		Author:  name,
		Date:    author.GetDate().Time,
		URL:     rc.GetHTMLURL(),
	}
}

// mapTag converts a go-github RepositoryTag to a domain TagMarker. The tags
// endpoint carries no HTML link, so one is built from the web base URL.
func (c *Client) mapTag(tag *gh.RepositoryTag, repoFullName string) *model.TagMarker {
	return &model.TagMarker{
		Name:        tag.GetName(),
		CommitShort: model.ShortSHA(tag.GetCommit().GetSHA()),
		URL:         fmt.Sprintf("%s/%s/releases/tag/%s", c.webURL, repoFullName, url.PathEscape(tag.GetName())),
	}
}

// mapRelease converts a go-github RepositoryRelease to a domain ReleaseMarker.
func mapRelease(r *gh.RepositoryRelease) *model.ReleaseMarker {
	name := r.GetName()
	if name == "" {
		name = r.GetTagName()
	}

	return &model.ReleaseMarker{
		TagName:     r.GetTagName(),
		Name:        name,
		PublishedAt: r.GetPublishedAt().Time,
		URL:         r.GetHTMLURL(),
		Body:        model.TruncateRunes(r.GetBody(), model.ReleaseBodyLimit),
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) == 2 {
		parts[1] = strings.TrimSuffix(parts[1], ".git")
	}
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}

// webBase derives the human-facing base URL from an Enterprise API URL by
// keeping only scheme and host.
func webBase(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return defaultWebURL
	}
	return u.Scheme + "://" + u.Host
}
