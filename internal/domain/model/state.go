package model

import "time"

// RepositoryState is the last observed marker identity for each artifact kind.
// Nil fields mean the kind has never been observed for the repository.
type RepositoryState struct {
	LastCommitID   *string
	LastTagName    *string
	LastReleaseTag *string
	LastCheckedAt  *time.Time
}

// Identity returns the stored identity for kind, or nil if never observed.
func (s RepositoryState) Identity(kind ArtifactKind) *string {
	switch kind {
	case KindCommit:
		return s.LastCommitID
	case KindTag:
		return s.LastTagName
	case KindRelease:
		return s.LastReleaseTag
	default:
		return nil
	}
}

// WithIdentity returns a copy of s with the field for kind set to identity.
func (s RepositoryState) WithIdentity(kind ArtifactKind, identity string) RepositoryState {
	v := identity
	switch kind {
	case KindCommit:
		s.LastCommitID = &v
	case KindTag:
		s.LastTagName = &v
	case KindRelease:
		s.LastReleaseTag = &v
	}
	return s
}

// Clone returns a deep copy so callers cannot mutate shared pointers.
func (s RepositoryState) Clone() RepositoryState {
	return RepositoryState{
		LastCommitID:   cloneString(s.LastCommitID),
		LastTagName:    cloneString(s.LastTagName),
		LastReleaseTag: cloneString(s.LastReleaseTag),
		LastCheckedAt:  cloneTime(s.LastCheckedAt),
	}
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
