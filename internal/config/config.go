// Package config loads application configuration from environment variables,
// optionally layered over a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// Default values for optional settings.
const (
	DefaultStateFile   = ".monitor_state.json"
	DefaultSummaryFile = "changes_summary.txt"
	DefaultHTTPTimeout = 15 * time.Second
	DefaultWorkers     = 4
)

// TelegramConfig holds Telegram Bot API credentials.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// Enabled reports whether the full credential set is present.
func (c TelegramConfig) Enabled() bool { return c.BotToken != "" && c.ChatID != "" }

// WxPusherConfig holds WxPusher credentials.
type WxPusherConfig struct {
	AppToken string
	UID      string
}

// Enabled reports whether the full credential set is present.
func (c WxPusherConfig) Enabled() bool { return c.AppToken != "" && c.UID != "" }

// PushPlusConfig holds the PushPlus token.
type PushPlusConfig struct {
	Token string
}

// Enabled reports whether the token is present.
func (c PushPlusConfig) Enabled() bool { return c.Token != "" }

// FeishuConfig holds a Feishu custom bot webhook. Secret is optional.
type FeishuConfig struct {
	WebhookURL string
	Secret     string
}

// Enabled reports whether the webhook URL is present.
func (c FeishuConfig) Enabled() bool { return c.WebhookURL != "" }

// Config holds the application configuration.
type Config struct {
	Repositories []string

	GitHubToken       string
	GitHubAPIURL      string
	GitRemoteUsername string
	GitRemotePassword string

	Telegram TelegramConfig
	WxPusher WxPusherConfig
	PushPlus PushPlusConfig
	Feishu   FeishuConfig

	MonitorCommits  bool
	MonitorTags     bool
	MonitorReleases bool

	StateFile   string
	StateDB     string
	SummaryFile string

	HTTPTimeout  time.Duration
	Workers      int
	PollInterval time.Duration
	LogLevel     slog.Level
}

// Kinds returns the enabled artifact kinds in check order.
func (c *Config) Kinds() []model.ArtifactKind {
	enabled := map[model.ArtifactKind]bool{
		model.KindCommit:  c.MonitorCommits,
		model.KindTag:     c.MonitorTags,
		model.KindRelease: c.MonitorReleases,
	}

	kinds := make([]model.ArtifactKind, 0, len(model.AllKinds))
	for _, kind := range model.AllKinds {
		if enabled[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Backends returns the names of the notification backends whose credentials
// are complete.
func (c *Config) Backends() []string {
	var names []string
	if c.Telegram.Enabled() {
		names = append(names, "telegram")
	}
	if c.WxPusher.Enabled() {
		names = append(names, "wxpusher")
	}
	if c.PushPlus.Enabled() {
		names = append(names, "pushplus")
	}
	if c.Feishu.Enabled() {
		names = append(names, "feishu")
	}
	return names
}

// source resolves a key from the environment first, then from the file layer.
// An environment variable that is set but blank does not hide the file value.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(s.file[key])
}

// Load reads configuration and returns a validated Config.
//
// configFile names an optional YAML file whose top-level keys are the
// environment variable names (case-insensitive); environment variables win
// over it. An empty configFile falls back to MONITOR_CONFIG_FILE.
//
// The repository list (MONITORED_REPOS, or MONITORED_REPO) is required.
// Malformed booleans, durations or integers are configuration errors.
// Every returned error wraps model.ErrConfiguration.
func Load(configFile string) (*Config, error) {
	return load(configFile, true)
}

// LoadOptionalRepositories is Load without the repository list requirement,
// for commands that only need backends or storage locations.
func LoadOptionalRepositories(configFile string) (*Config, error) {
	return load(configFile, false)
}

func load(configFile string, requireRepos bool) (*Config, error) {
	if configFile == "" {
		configFile = os.Getenv("MONITOR_CONFIG_FILE")
	}

	file, err := readFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	src := source{file: file}

	rawRepos := src.get("MONITORED_REPOS")
	if rawRepos == "" {
		rawRepos = src.get("MONITORED_REPO")
	}
	repos, err := model.NormalizeRepositories(rawRepos)
	if err != nil && (requireRepos || !errors.Is(err, model.ErrNoRepositories)) {
		return nil, err
	}
	if repos.Duplicates > 0 {
		slog.Info("duplicate repositories ignored", "count", repos.Duplicates)
	}

	cfg := &Config{
		Repositories:      repos.Names,
		GitHubToken:       src.get("GITHUB_TOKEN"),
		GitHubAPIURL:      src.get("GITHUB_API_URL"),
		GitRemoteUsername: src.get("GIT_REMOTE_USERNAME"),
		GitRemotePassword: src.get("GIT_REMOTE_PASSWORD"),
		Telegram: TelegramConfig{
			BotToken: src.get("TELEGRAM_BOT_TOKEN"),
			ChatID:   src.get("TELEGRAM_CHAT_ID"),
		},
		WxPusher: WxPusherConfig{
			AppToken: src.get("WXPUSHER_APP_TOKEN"),
			UID:      src.get("WXPUSHER_UID"),
		},
		PushPlus: PushPlusConfig{Token: src.get("PUSHPLUS_TOKEN")},
		Feishu: FeishuConfig{
			WebhookURL: src.get("FEISHU_WEBHOOK_URL"),
			Secret:     src.get("FEISHU_WEBHOOK_SECRET"),
		},
		StateFile:   stringOr(src, "MONITOR_STATE_FILE", DefaultStateFile),
		StateDB:     src.get("MONITOR_STATE_DB"),
		SummaryFile: stringOr(src, "MONITOR_SUMMARY_FILE", DefaultSummaryFile),
	}

	var errs []error
	cfg.MonitorCommits = parseBool(src, "MONITOR_COMMITS", true, &errs)
	cfg.MonitorTags = parseBool(src, "MONITOR_TAGS", true, &errs)
	cfg.MonitorReleases = parseBool(src, "MONITOR_RELEASES", true, &errs)
	cfg.HTTPTimeout = parseDuration(src, "MONITOR_HTTP_TIMEOUT", DefaultHTTPTimeout, &errs)
	cfg.PollInterval = parseDuration(src, "MONITOR_POLL_INTERVAL", 0, &errs)
	cfg.Workers = parseInt(src, "MONITOR_WORKERS", DefaultWorkers, &errs)

	if v := src.get("MONITOR_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("MONITOR_LOG_LEVEL has invalid level %q", v))
		}
	}

	if cfg.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MONITOR_HTTP_TIMEOUT must be positive, got %s", cfg.HTTPTimeout))
	}
	if cfg.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("MONITOR_POLL_INTERVAL must not be negative, got %s", cfg.PollInterval))
	}
	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("MONITOR_WORKERS must be at least 1, got %d", cfg.Workers))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, errors.Join(errs...))
	}

	return cfg, nil
}

// readFile loads the YAML overlay. A missing path means no overlay; a path
// that was given but cannot be read is an error. Scalar values are kept as
// strings and sequences are joined with commas, so every key goes through the
// same parsing as its environment variable.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	out := make(map[string]string, len(raw))
	for key, value := range raw {
		out[strings.ToUpper(key)] = flatten(value)
	}
	return out, nil
}

func flatten(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, flatten(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

func stringOr(src source, key, fallback string) string {
	if v := src.get(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(src source, key string, fallback bool, errs *[]error) bool {
	v := src.get(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s has invalid boolean %q", key, v))
		return fallback
	}
	return b
}

// parseDuration accepts Go duration syntax ("90s", "5m") or a bare number of seconds.
func parseDuration(src source, key string, fallback time.Duration, errs *[]error) time.Duration {
	v := src.get(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s has invalid duration %q: %w", key, v, err))
		return fallback
	}
	return d
}

func parseInt(src source, key string, fallback int, errs *[]error) int {
	v := src.get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s has invalid integer %q", key, v))
		return fallback
	}
	return n
}
