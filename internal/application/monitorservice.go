// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// MonitorOptions controls what a run checks and how.
type MonitorOptions struct {
	Repositories []string
	Kinds        []model.ArtifactKind
	// Workers is the number of repositories processed concurrently. Values
	// below 1 are treated as 1.
	Workers int
	// FetchTimeout bounds each fetch call; zero disables the deadline.
	FetchTimeout time.Duration
}

// RunReport summarizes one completed run.
type RunReport struct {
	RunID             string
	Repositories      int
	Changes           int
	FirstObservations int
	Unchanged         int
	NoData            int
	FetchErrors       int
	Notified          int
	NotifyFailures    int
	StatePersisted    bool
	SummaryPersisted  bool
	Duration          time.Duration
}

// MonitorService drives change detection across all configured repositories.
// Each run owns a fresh StateStore and SummaryRecorder.
type MonitorService struct {
	fetcher    driven.SourceFetcher
	stateRepo  driven.StateRepository
	summary    driven.SummaryWriter
	dispatcher *Dispatcher
	opts       MonitorOptions
	now        func() time.Time
}

// NewMonitorService creates a MonitorService with all required dependencies.
func NewMonitorService(
	fetcher driven.SourceFetcher,
	stateRepo driven.StateRepository,
	summary driven.SummaryWriter,
	dispatcher *Dispatcher,
	opts MonitorOptions,
) *MonitorService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &MonitorService{
		fetcher:    fetcher,
		stateRepo:  stateRepo,
		summary:    summary,
		dispatcher: dispatcher,
		opts:       opts,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for LastCheckedAt. Intended for tests.
func (s *MonitorService) WithClock(now func() time.Time) *MonitorService {
	s.now = now
	return s
}

// Start runs immediately, then on every interval tick until ctx is canceled.
func (s *MonitorService) Start(ctx context.Context, interval time.Duration) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor service stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// repoResult holds per-repository counters; each worker owns its own value.
type repoResult struct {
	changes, first, unchanged, noData, fetchErrors int
	notified, notifyFailures                       int
}

// RunOnce performs a single full check of every repository, then persists
// state and the summary. It never returns an error: fetch, send, and
// persistence failures are logged and reflected in the report.
func (s *MonitorService) RunOnce(ctx context.Context) RunReport {
	start := time.Now()
	report := RunReport{RunID: uuid.NewString(), Repositories: len(s.opts.Repositories)}
	log := slog.With("run_id", report.RunID)

	log.Info("run started",
		"repositories", len(s.opts.Repositories),
		"kinds", s.opts.Kinds,
		"backends", s.dispatcher.Backends(),
		"workers", s.opts.Workers,
	)

	store := NewStateStore(s.stateRepo, s.now)
	store.Load(ctx)
	recorder := NewSummaryRecorder(s.summary)

	results := make([]repoResult, len(s.opts.Repositories))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, repo := range s.opts.Repositories {
		if ctx.Err() != nil {
			log.Warn("run interrupted, skipping remaining repositories", "remaining", len(s.opts.Repositories)-i)
			break
		}
		g.Go(func() error {
			results[i] = s.checkRepo(ctx, log, store, recorder, repo)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		report.Changes += r.changes
		report.FirstObservations += r.first
		report.Unchanged += r.unchanged
		report.NoData += r.noData
		report.FetchErrors += r.fetchErrors
		report.Notified += r.notified
		report.NotifyFailures += r.notifyFailures
	}

	// Persist even when ctx was canceled so completed work is not re-detected.
	persistCtx := context.WithoutCancel(ctx)
	report.StatePersisted = store.Persist(persistCtx)
	report.SummaryPersisted = recorder.Flush(persistCtx)
	report.Duration = time.Since(start).Round(time.Millisecond)

	log.Info("run complete",
		"repositories", report.Repositories,
		"changes", report.Changes,
		"first_observations", report.FirstObservations,
		"unchanged", report.Unchanged,
		"no_data", report.NoData,
		"fetch_errors", report.FetchErrors,
		"notified", report.Notified,
		"notify_failures", report.NotifyFailures,
		"duration", report.Duration,
	)

	return report
}

// checkRepo runs every enabled kind for one repository, in order.
func (s *MonitorService) checkRepo(ctx context.Context, log *slog.Logger, store *StateStore, recorder *SummaryRecorder, repo string) repoResult {
	log = log.With("repo", repo)

	var res repoResult
	for _, kind := range s.opts.Kinds {
		s.checkKind(ctx, log, store, recorder, repo, kind, &res)
	}
	return res
}

// checkKind fetches, classifies and records one kind. A panic is recovered and
// counted as a fetch error for this kind only, so the remaining kinds and
// repositories still run.
func (s *MonitorService) checkKind(ctx context.Context, log *slog.Logger, store *StateStore, recorder *SummaryRecorder, repo string, kind model.ArtifactKind, res *repoResult) {
	defer func() {
		if v := recover(); v != nil {
			log.Error("repository check panicked", "kind", kind, "panic", v)
			res.fetchErrors++
		}
	}()

	marker, err := s.fetch(ctx, repo, kind)
	if err != nil {
		log.Warn("fetch failed", "kind", kind, "error", err)
		res.fetchErrors++
	}

	det := Detect(repo, kind, store.Get(repo), marker)

	switch det.Class {
	case model.ClassNoData:
		res.noData++
		log.Debug("no data", "kind", kind)
	case model.ClassFirstObservation:
		res.first++
		log.Info("baseline recorded", "kind", kind, "identity", marker.Identity())
	case model.ClassUnchanged:
		res.unchanged++
		log.Debug("unchanged", "kind", kind, "identity", marker.Identity())
	case model.ClassChanged:
		res.changes++
		log.Info("change detected", "kind", kind, "identity", marker.Identity(), "description", det.Event.Description)

		sent := s.dispatcher.Dispatch(ctx, *det.Event)
		res.notified += sent.Sent
		res.notifyFailures += sent.Failed
		recorder.Add(*det.Event)
	}

	if marker != nil {
		store.Update(repo, kind, marker.Identity())
	}
}

// fetch calls the fetcher for kind under the per-call timeout. The returned
// Marker is nil when nothing was fetched, never a typed nil pointer.
func (s *MonitorService) fetch(ctx context.Context, repo string, kind model.ArtifactKind) (model.Marker, error) {
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	switch kind {
	case model.KindCommit:
		m, err := s.fetcher.FetchLatestCommit(ctx, repo)
		if err != nil || m == nil {
			return nil, err
		}
		return m, nil
	case model.KindTag:
		m, err := s.fetcher.FetchLatestTag(ctx, repo)
		if err != nil || m == nil {
			return nil, err
		}
		return m, nil
	case model.KindRelease:
		m, err := s.fetcher.FetchLatestRelease(ctx, repo)
		if err != nil || m == nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}
}
