package model

import "fmt"

// ChangeEvent is emitted when a previously observed identity changes.
type ChangeEvent struct {
	Kind        ArtifactKind
	Repository  string
	Description string
	Marker      Marker
}

// SummaryLine renders the event as "[KIND] repository: description".
func (e ChangeEvent) SummaryLine() string {
	return fmt.Sprintf("[%s] %s: %s", e.Kind.Label(), e.Repository, e.Description)
}

// Notification is one formatted message handed to every backend.
// URL is empty when there is no detail link.
type Notification struct {
	Title string
	Body  string
	URL   string
}
