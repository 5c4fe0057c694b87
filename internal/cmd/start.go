package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/errors"
	"github.com/polecat-sh/polecat/internal/task"
	"github.com/polecat-sh/polecat/internal/worktree"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Claim the next ready task and set up its worktree",
	Long: `Start claims the highest-priority ready task, creates (or resumes) its
isolated worktree on branch polecat/<task-id>, and prints the worktree
path. Exits 0 with a notice when no task is ready.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().String("project", "", "only claim tasks for this project")
	startCmd.Flags().String("caller", "", "identity recorded as the task assignee")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	project, _ := cmd.Flags().GetString("project")
	caller, _ := cmd.Flags().GetString("caller")

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	claimed, err := store.ClaimNextReady(project, caller)
	if err != nil {
		if errors.Is(err, errors.ErrNoReadyTasks) {
			fmt.Fprintln(cmd.ErrOrStderr(), "no ready tasks")
			return nil
		}
		return err
	}

	manager := worktree.NewManager(cfg.Paths.Repo, cfg.Paths.Home)
	path, err := manager.Setup(claimed.ID)
	if err != nil {
		// Claiming succeeded but the environment failed: hand the task
		// back so another worker can pick it up.
		if revertErr := store.SetStatus(claimed.ID, task.StatusQueue); revertErr != nil {
			log.Error("failed to revert claim", "task_id", claimed.ID, "error", revertErr.Error())
		}
		return err
	}

	log.WithTask(claimed.ID).Info("task claimed", "caller", caller, "worktree", path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
