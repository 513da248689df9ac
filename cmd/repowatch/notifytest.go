package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/repowatch/internal/application"
	"github.com/ericfisherdev/repowatch/internal/config"
	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

var errNoBackendDelivered = errors.New("no notification backend delivered the test message")

var testNotifyCmd = &cobra.Command{
	Use:   "test-notify",
	Short: "Send a test message through every configured backend",
	Long: `Send one test message through every notification backend whose
credentials are configured. Exits non-zero when no backend succeeds.`,
	Args: cobra.NoArgs,
	RunE: testNotify,
}

func testNotify(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOptionalRepositories(configFile)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	out := cmd.OutOrStdout()
	notifiers := buildNotifiers(cfg)
	if len(notifiers) == 0 {
		fmt.Fprintf(out, "%s no notification backend configured\n", color.YellowString("!"))
		return errNoBackendDelivered
	}

	dispatcher := application.NewDispatcher(notifiers, cfg.HTTPTimeout)
	res := dispatcher.Broadcast(cmdContext(cmd), testNotification(time.Now()))

	fmt.Fprintf(out, "%s %d delivered, %d failed\n", statusMark(res.Sent > 0), res.Sent, res.Failed)
	if res.Sent == 0 {
		return errNoBackendDelivered
	}
	return nil
}

func testNotification(now time.Time) model.Notification {
	return model.Notification{
		Title: "🎉 repowatch test notification",
		Body:  "This is a test message.\nTime: " + now.Format("2006-01-02 15:04:05"),
	}
}

func statusMark(ok bool) string {
	if ok {
		return color.GreenString("✓")
	}
	return color.RedString("✗")
}
