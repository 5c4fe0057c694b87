package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/taskid"
	"github.com/polecat-sh/polecat/internal/worktree"
)

var nukeCmd = &cobra.Command{
	Use:   "nuke <task-id>",
	Short: "Destroy a task's worktree and branch",
	Long: `Nuke removes a task's worktree and deletes its branch locally and on
origin. Use it to abandon in-flight work; task state is left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runNuke,
}

func init() {
	rootCmd.AddCommand(nukeCmd)
}

func runNuke(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	id, err := taskid.ValidateOrErr(args[0])
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	manager := worktree.NewManager(cfg.Paths.Repo, cfg.Paths.Home)
	if err := manager.Destroy(id); err != nil {
		return err
	}

	branch := taskid.Branch(id)
	git := manager.Git()
	if local, _ := git.BranchExistsLocal(cfg.Paths.Repo, branch); local {
		if err := git.DeleteBranch(cfg.Paths.Repo, branch); err != nil {
			log.Warn("failed to delete local branch", "branch", branch, "error", err.Error())
		}
	}
	if remote, _ := git.BranchExistsRemote(cfg.Paths.Repo, branch); remote {
		if err := git.DeleteRemoteBranch(cfg.Paths.Repo, branch); err != nil {
			log.Warn("failed to delete remote branch", "branch", branch, "error", err.Error())
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "nuked %s\n", id)
	return nil
}
