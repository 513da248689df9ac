package main

import (
	"context"
	"log/slog"

	githubadapter "github.com/ericfisherdev/repowatch/internal/adapter/driven/github"
	"github.com/ericfisherdev/repowatch/internal/adapter/driven/gitremote"
	"github.com/ericfisherdev/repowatch/internal/adapter/driven/jsonfile"
	"github.com/ericfisherdev/repowatch/internal/adapter/driven/notify"
	"github.com/ericfisherdev/repowatch/internal/adapter/driven/source"
	sqliteadapter "github.com/ericfisherdev/repowatch/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/repowatch/internal/config"
	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// buildFetcher wires the GitHub API client and the generic git fetcher behind a router.
func buildFetcher(cfg *config.Config) (driven.SourceFetcher, error) {
	gh, err := githubadapter.NewClient(cfg.GitHubToken, cfg.GitHubAPIURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.GitHubToken == "" {
		slog.Warn("GITHUB_TOKEN not set, using unauthenticated GitHub API rate limits")
	}

	remote := gitremote.NewFetcher(cfg.GitRemoteUsername, cfg.GitRemotePassword)
	return source.NewRouter(gh, remote), nil
}

// buildNotifiers creates one backend per complete credential set.
func buildNotifiers(cfg *config.Config) []driven.Notifier {
	timeout := notify.WithTimeout(cfg.HTTPTimeout)

	var notifiers []driven.Notifier
	if cfg.Telegram.Enabled() {
		notifiers = append(notifiers, notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, timeout))
	}
	if cfg.WxPusher.Enabled() {
		notifiers = append(notifiers, notify.NewWxPusher(cfg.WxPusher.AppToken, cfg.WxPusher.UID, timeout))
	}
	if cfg.PushPlus.Enabled() {
		notifiers = append(notifiers, notify.NewPushPlus(cfg.PushPlus.Token, timeout))
	}
	if cfg.Feishu.Enabled() {
		notifiers = append(notifiers, notify.NewFeishu(cfg.Feishu.WebhookURL, cfg.Feishu.Secret, timeout))
	}

	for _, n := range notifiers {
		slog.Info("notification backend enabled", "backend", n.Name())
	}
	return notifiers
}

// openStateRepository returns the configured state backend and a close func.
// A SQLite database that cannot be opened does not abort the run: the
// returned repository reports the error from Load and Save, so the run
// degrades to first-observation semantics like any other unreadable state.
func openStateRepository(ctx context.Context, cfg *config.Config) (driven.StateRepository, func()) {
	if cfg.StateDB == "" {
		return jsonfile.NewStateFile(cfg.StateFile).WithRepositories(cfg.Repositories), func() {}
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.StateDB)
	if err == nil {
		err = sqliteadapter.RunMigrations(db.Writer)
		if err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		slog.Error("state database unavailable", "path", cfg.StateDB, "error", err)
		return unavailableState{err: err}, func() {}
	}

	slog.Info("state database opened", "path", cfg.StateDB)
	return sqliteadapter.NewStateRepo(db), func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}
}

// unavailableState is a StateRepository whose storage could not be opened.
type unavailableState struct {
	err error
}

func (u unavailableState) Load(context.Context) (map[string]model.RepositoryState, error) {
	return nil, u.err
}

func (u unavailableState) Save(context.Context, map[string]model.RepositoryState) error {
	return u.err
}
