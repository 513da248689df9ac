package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/repowatch/internal/config"
	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the stored baseline of every repository",
	Long: `Print the last recorded commit, tag, release and check time of every
repository in the state store. Once a repository has a baseline, only changes
against it are notified; delete the state file to start over.`,
	Args: cobra.NoArgs,
	RunE: showState,
}

func showState(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOptionalRepositories(configFile)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	ctx := cmdContext(cmd)
	repo, closeState := openStateRepository(ctx, cfg)
	defer closeState()

	location := cfg.StateFile
	if cfg.StateDB != "" {
		location = cfg.StateDB
	}

	out := cmd.OutOrStdout()
	states, err := repo.Load(ctx)
	if err != nil {
		fmt.Fprintf(out, "%s reading %s: %v\n", color.RedString("✗"), location, err)
		return nil
	}

	printState(out, location, states, time.Now())
	return nil
}

// printState renders states in repository order. Relative ages are computed against now.
func printState(w io.Writer, location string, states map[string]model.RepositoryState, now time.Time) {
	if len(states) == 0 {
		fmt.Fprintf(w, "%s no state recorded in %s (first run, or the state was deleted)\n", color.YellowString("!"), location)
		return
	}

	repos := make([]string, 0, len(states))
	for name := range states {
		repos = append(repos, name)
	}
	sort.Slice(repos, func(i, j int) bool { return model.RepositoryLess(repos[i], repos[j]) })

	heading := color.New(color.Bold).SprintFunc()
	name := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s %s: %d repositories\n", heading("Repository state"), location, len(repos))

	for i, repo := range repos {
		state := states[repo]
		fmt.Fprintf(w, "\n%d. %s\n", i+1, name(repo))
		fmt.Fprintf(w, "   Last commit:  %s\n", orUnrecorded(state.LastCommitID))
		fmt.Fprintf(w, "   Last tag:     %s\n", orUnrecorded(state.LastTagName))
		fmt.Fprintf(w, "   Last release: %s\n", orUnrecorded(state.LastReleaseTag))
		if state.LastCheckedAt != nil {
			fmt.Fprintf(w, "   Last check:   %s (%s)\n",
				state.LastCheckedAt.Local().Format("2006-01-02 15:04:05"),
				humanize.RelTime(*state.LastCheckedAt, now, "ago", "from now"),
			)
		} else {
			fmt.Fprintf(w, "   Last check:   %s\n", color.HiBlackString("(not recorded)"))
		}
	}
}

func orUnrecorded(p *string) string {
	if p == nil {
		return color.HiBlackString("(not recorded)")
	}
	return *p
}
