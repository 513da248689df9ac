package driven

import (
	"context"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// SourceFetcher defines the driven port for reading the latest artifacts of a repository.
// Each method returns (nil, nil) when the repository has no artifact of that kind,
// and a non-nil error when the fetch itself failed.
type SourceFetcher interface {
	FetchLatestCommit(ctx context.Context, repo string) (*model.CommitMarker, error)
	FetchLatestTag(ctx context.Context, repo string) (*model.TagMarker, error)
	FetchLatestRelease(ctx context.Context, repo string) (*model.ReleaseMarker, error)
}
