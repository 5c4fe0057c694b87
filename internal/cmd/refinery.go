package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/metrics"
	"github.com/polecat-sh/polecat/internal/refinery"
	"github.com/polecat-sh/polecat/internal/worktree"
)

var refineryCmd = &cobra.Command{
	Use:   "refinery",
	Short: "Run one merge scan",
	Long: `Refinery runs one merge scan: if the merge slot is free and a task is
merge_ready, its branch is squash-merged into mainline, verified against
the test suite, pushed, and cleaned up. A failed merge kicks the task back
to review with a report; only internal errors exit non-zero. Run it from
cron or a systemd timer.`,
	Args: cobra.NoArgs,
	RunE: runRefinery,
}

func init() {
	rootCmd.AddCommand(refineryCmd)
}

func runRefinery(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	manager := worktree.NewManager(cfg.Paths.Repo, cfg.Paths.Home)
	engineer := refinery.New(refinery.Options{
		Store:     store,
		Git:       manager.Git(),
		Worktrees: manager,
		RepoDir:   cfg.Paths.Repo,
		Tests:     refinery.NewCommandTestRunner(),
		Metrics:   metrics.NewRecorder(filepath.Join(cfg.Paths.Home, "metrics")),
		Log:       log,
	})

	return engineer.Scan(cmd.Context())
}
