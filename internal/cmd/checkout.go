package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/worktree"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <task-id>",
	Short: "Claim or resume a specific task",
	Long: `Checkout claims (or resumes) the given task and sets up its worktree.
Stdout carries only the worktree path so scripts can cd "$(polecat
checkout <id>)"; everything else goes to the log sink.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckout,
}

func init() {
	checkoutCmd.Flags().String("caller", "", "identity recorded as the task assignee")
	rootCmd.AddCommand(checkoutCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
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

	claimed, err := store.Claim(args[0], caller)
	if err != nil {
		return err
	}

	manager := worktree.NewManager(cfg.Paths.Repo, cfg.Paths.Home)
	path, err := manager.Setup(claimed.ID)
	if err != nil {
		return err
	}

	log.WithTask(claimed.ID).Info("task checked out", "caller", caller, "worktree", path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
