package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryState_WithIdentity(t *testing.T) {
	var s RepositoryState
	for _, kind := range AllKinds {
		assert.Nil(t, s.Identity(kind))
	}

	s = s.WithIdentity(KindTag, "v1.0.0")

	require.NotNil(t, s.Identity(KindTag))
	assert.Equal(t, "v1.0.0", *s.Identity(KindTag))
	assert.Nil(t, s.Identity(KindCommit))
	assert.Nil(t, s.Identity(KindRelease))
}

func TestRepositoryState_EmptyIdentityIsObserved(t *testing.T) {
	s := RepositoryState{}.WithIdentity(KindRelease, "")

	require.NotNil(t, s.Identity(KindRelease))
	assert.Equal(t, "", *s.Identity(KindRelease))
}

func TestRepositoryState_CloneIsDeep(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := RepositoryState{LastCheckedAt: &ts}.WithIdentity(KindCommit, "abc1234")

	clone := orig.Clone()
	*clone.LastCommitID = "changed"
	*clone.LastCheckedAt = ts.Add(time.Hour)

	assert.Equal(t, "abc1234", *orig.LastCommitID)
	assert.Equal(t, ts, *orig.LastCheckedAt)
}
