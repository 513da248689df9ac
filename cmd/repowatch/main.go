// Command repowatch polls source repositories for new commits, tags and
// releases and pushes a notification for each change.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
)

// Version is set at build time via ldflags.
var Version = "dev"

// configFile is the --config flag shared by every subcommand.
var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repowatch",
	Short: "Watch repositories for new commits, tags and releases",
	Long: `repowatch polls GitHub repositories (owner/name) and plain git remotes
(https://, ssh://, git@...) and sends a notification for every new commit,
tag or release through Telegram, WxPusher, PushPlus or a Feishu bot.

The first observation of a repository only records a baseline; later runs
notify when the latest identity differs from the stored one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// A missing .env file is normal outside local development.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default $MONITOR_CONFIG_FILE)")
	rootCmd.Version = Version

	rootCmd.AddCommand(runCmd, stateCmd, testNotifyCmd)
}

// setupLogging installs the process-wide text logger at level.
func setupLogging(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
