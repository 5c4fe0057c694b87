package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/task"
)

var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task's work complete",
	Long: `Done marks a task merge_ready: the agent's work is finished and the
branch is queued for the merge refinery. The task is not done-done until
the refinery lands it on mainline.`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

func init() {
	rootCmd.AddCommand(doneCmd)
}

func runDone(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if err := store.SetStatus(args[0], task.StatusMergeReady); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is merge_ready\n", args[0])
	return nil
}
