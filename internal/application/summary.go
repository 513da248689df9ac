package application

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// NoChangesLine is written as the whole summary when a run produced no events.
const NoChangesLine = "No new changes detected"

// SummaryRecorder accumulates the change events of one run. Add is safe for
// concurrent use by repository workers.
type SummaryRecorder struct {
	mu     sync.Mutex
	writer driven.SummaryWriter
	byRepo map[string][]model.ChangeEvent
	total  int
}

// NewSummaryRecorder creates an empty recorder that flushes to writer.
func NewSummaryRecorder(writer driven.SummaryWriter) *SummaryRecorder {
	return &SummaryRecorder{
		writer: writer,
		byRepo: make(map[string][]model.ChangeEvent),
	}
}

// Add records ev. Events of one repository keep the order they were added in.
func (r *SummaryRecorder) Add(ev model.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRepo[ev.Repository] = append(r.byRepo[ev.Repository], ev)
	r.total++
}

// Len returns the number of recorded events.
func (r *SummaryRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Events returns all events ordered by repository, then by insertion order
// within each repository. The result does not depend on worker scheduling.
func (r *SummaryRecorder) Events() []model.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	repos := make([]string, 0, len(r.byRepo))
	for name := range r.byRepo {
		repos = append(repos, name)
	}
	sort.Slice(repos, func(i, j int) bool { return model.RepositoryLess(repos[i], repos[j]) })

	events := make([]model.ChangeEvent, 0, r.total)
	for _, name := range repos {
		events = append(events, r.byRepo[name]...)
	}
	return events
}

// Lines renders the summary body. It is never empty.
func (r *SummaryRecorder) Lines() []string {
	events := r.Events()
	if len(events) == 0 {
		return []string{NoChangesLine}
	}

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, ev.SummaryLine())
	}
	return lines
}

// Flush writes the summary, replacing the previous run's. Failures are logged
// and reported as false.
func (r *SummaryRecorder) Flush(ctx context.Context) bool {
	lines := r.Lines()
	if err := r.writer.Write(ctx, lines); err != nil {
		slog.Error("summary write failed", "events", r.Len(), "error", err)
		return false
	}
	slog.Info("summary written", "events", r.Len())
	return true
}
