package driven

import (
	"context"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// StateRepository defines the driven port for durable per-repository state.
// Load returns an empty map (not an error) when no state has been saved yet.
// Save writes every entry; entries absent from the map are left untouched.
type StateRepository interface {
	Load(ctx context.Context) (map[string]model.RepositoryState, error)
	Save(ctx context.Context, states map[string]model.RepositoryState) error
}
