package application

import (
	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// Classify compares a fresh marker with the stored identity for its kind.
// A nil fresh marker yields ClassNoData. Comparison is exact string equality;
// no ordering between identities is assumed.
func Classify(stored *string, fresh model.Marker) model.Classification {
	if fresh == nil {
		return model.ClassNoData
	}
	if stored == nil {
		return model.ClassFirstObservation
	}
	if *stored == fresh.Identity() {
		return model.ClassUnchanged
	}
	return model.ClassChanged
}

// Detection is the result of running the detector for one repository and kind.
// Event is non-nil only when Class is ClassChanged.
type Detection struct {
	Class model.Classification
	Event *model.ChangeEvent
}

// Detect classifies fresh against state and builds the change event when the
// identity changed. It performs no mutation; the caller updates state.
func Detect(repo string, kind model.ArtifactKind, state model.RepositoryState, fresh model.Marker) Detection {
	class := Classify(state.Identity(kind), fresh)
	if class != model.ClassChanged {
		return Detection{Class: class}
	}

	return Detection{
		Class: class,
		Event: &model.ChangeEvent{
			Kind:        kind,
			Repository:  repo,
			Description: Describe(fresh),
			Marker:      fresh,
		},
	}
}
