package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StateRepository = (*StateRepo)(nil)

// StateRepo is the SQLite implementation of the StateRepository port.
type StateRepo struct {
	db *DB
}

// NewStateRepo creates a new StateRepo backed by the given DB.
func NewStateRepo(db *DB) *StateRepo {
	return &StateRepo{db: db}
}

// Load returns every stored repository state.
func (r *StateRepo) Load(ctx context.Context) (map[string]model.RepositoryState, error) {
	const query = `SELECT repository, last_commit, last_tag, last_release, last_checked_at FROM repository_state`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query repository_state: %w", model.ErrPersistence, err)
	}
	defer rows.Close()

	states := make(map[string]model.RepositoryState)
	for rows.Next() {
		var (
			repo                 string
			commit, tag, release sql.NullString
			checkedAt            sql.NullString
		)
		if err := rows.Scan(&repo, &commit, &tag, &release, &checkedAt); err != nil {
			return nil, fmt.Errorf("%w: scan repository_state: %w", model.ErrPersistence, err)
		}

		state := model.RepositoryState{
			LastCommitID:   nullablePtr(commit),
			LastTagName:    nullablePtr(tag),
			LastReleaseTag: nullablePtr(release),
		}
		if checkedAt.Valid {
			t, err := parseTime(checkedAt.String)
			if err != nil {
				slog.Warn("ignoring unparsable last_checked_at", "repo", repo, "value", checkedAt.String)
			} else {
				state.LastCheckedAt = &t
			}
		}
		states[repo] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate repository_state: %w", model.ErrPersistence, err)
	}

	return states, nil
}

// Save upserts every entry in one transaction. Rows for repositories missing
// from states are left untouched.
func (r *StateRepo) Save(ctx context.Context, states map[string]model.RepositoryState) (err error) {
	const query = `
		INSERT INTO repository_state (repository, last_commit, last_tag, last_release, last_checked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repository) DO UPDATE SET
			last_commit = excluded.last_commit,
			last_tag = excluded.last_tag,
			last_release = excluded.last_release,
			last_checked_at = excluded.last_checked_at`

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", model.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %w", model.ErrPersistence, err)
	}
	defer stmt.Close()

	for repo, state := range states {
		var checkedAt any
		if state.LastCheckedAt != nil {
			checkedAt = state.LastCheckedAt.UTC().Format(time.RFC3339Nano)
		}
		if _, err = stmt.ExecContext(ctx, repo,
			ptrValue(state.LastCommitID),
			ptrValue(state.LastTagName),
			ptrValue(state.LastReleaseTag),
			checkedAt,
		); err != nil {
			return fmt.Errorf("%w: upsert %s: %w", model.ErrPersistence, repo, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", model.ErrPersistence, err)
	}
	return nil
}

func nullablePtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func ptrValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// parseTime tries the SQLite datetime formats as well as RFC 3339.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
