package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repowatch/internal/config"
	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

func init() {
	color.NoColor = true
}

func strPtr(s string) *string { return &s }

func TestPrintState(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	checked := now.Add(-3 * time.Hour)

	var buf bytes.Buffer
	printState(&buf, ".monitor_state.json", map[string]model.RepositoryState{
		"octo/demo": {LastCommitID: strPtr("def5678"), LastTagName: strPtr("v1.2.0"), LastCheckedAt: &checked},
		"Acme/tool": {},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "Repository state .monitor_state.json: 2 repositories")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("1. Acme/tool")), bytes.Index(buf.Bytes(), []byte("2. octo/demo")))
	assert.Contains(t, out, "Last commit:  def5678")
	assert.Contains(t, out, "Last tag:     v1.2.0")
	assert.Contains(t, out, "Last release: (not recorded)")
	assert.Contains(t, out, "3 hours ago")
}

func TestPrintState_Empty(t *testing.T) {
	var buf bytes.Buffer
	printState(&buf, "state.json", nil, time.Now())

	assert.Contains(t, buf.String(), "no state recorded in state.json")
}

func TestBuildNotifiers_OnlyCompleteCredentialSets(t *testing.T) {
	cfg := &config.Config{
		HTTPTimeout: time.Second,
		Telegram:    config.TelegramConfig{BotToken: "t", ChatID: "c"},
		WxPusher:    config.WxPusherConfig{AppToken: "a"},
		Feishu:      config.FeishuConfig{WebhookURL: "https://example.com/hook"},
	}

	notifiers := buildNotifiers(cfg)

	names := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"telegram", "feishu"}, names)
}

func TestOpenStateRepository_JSONDefault(t *testing.T) {
	cfg := &config.Config{StateFile: filepath.Join(t.TempDir(), "state.json")}

	repo, closeState := openStateRepository(context.Background(), cfg)
	defer closeState()

	states, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestOpenStateRepository_JSONSingleRepositoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".monitor_state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"last_commit": "abc1234", "last_tag": null}`), 0o644))
	cfg := &config.Config{StateFile: path, Repositories: []string{"octo/demo"}}

	repo, closeState := openStateRepository(context.Background(), cfg)
	defer closeState()

	states, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, states["octo/demo"].LastCommitID)
	assert.Equal(t, "abc1234", *states["octo/demo"].LastCommitID)
}

func TestOpenStateRepository_SQLite(t *testing.T) {
	cfg := &config.Config{StateDB: filepath.Join(t.TempDir(), "state.db")}

	repo, closeState := openStateRepository(context.Background(), cfg)
	defer closeState()

	require.NoError(t, repo.Save(context.Background(), map[string]model.RepositoryState{
		"octo/demo": {LastTagName: strPtr("v1")},
	}))
	states, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", *states["octo/demo"].LastTagName)
}

func TestOpenStateRepository_UnavailableDatabaseDegrades(t *testing.T) {
	cfg := &config.Config{StateDB: filepath.Join(t.TempDir(), "missing", "dir", "state.db")}

	repo, closeState := openStateRepository(context.Background(), cfg)
	defer closeState()

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestTestNotify_NoBackends(t *testing.T) {
	t.Setenv("MONITORED_REPOS", "")
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "WXPUSHER_APP_TOKEN", "PUSHPLUS_TOKEN", "FEISHU_WEBHOOK_URL", "MONITOR_CONFIG_FILE"} {
		t.Setenv(key, "")
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := testNotify(cmd, nil)

	require.ErrorIs(t, err, errNoBackendDelivered)
	assert.Contains(t, buf.String(), "no notification backend configured")
}

func TestTestNotification(t *testing.T) {
	n := testNotification(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.Contains(t, n.Title, "test notification")
	assert.Contains(t, n.Body, "2026-03-01 12:00:00")
	assert.Empty(t, n.URL)
}
