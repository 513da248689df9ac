package model

import "strings"

// ArtifactKind identifies one independently tracked kind of repository artifact.
type ArtifactKind string

const (
	KindCommit  ArtifactKind = "commit"
	KindTag     ArtifactKind = "tag"
	KindRelease ArtifactKind = "release"
)

// AllKinds lists artifact kinds in the order they are checked for a repository.
var AllKinds = []ArtifactKind{KindCommit, KindTag, KindRelease}

// Label returns the upper-case label used in summary lines, e.g. "COMMIT".
func (k ArtifactKind) Label() string {
	return strings.ToUpper(string(k))
}

// Classification is the outcome of comparing a fresh marker against stored state.
type Classification string

const (
	ClassNoData           Classification = "no_data"
	ClassFirstObservation Classification = "first_observation"
	ClassUnchanged        Classification = "unchanged"
	ClassChanged          Classification = "changed"
)
