package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/errors"
	"github.com/polecat-sh/polecat/internal/prompt"
	"github.com/polecat-sh/polecat/internal/task"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <task-id>",
	Short: "Render the work prompt for a task",
	Long: `Prompt renders the instruction text a worker hands to its agent for
the given task: the task body, metadata, and the bodies of completed soft
dependencies. Output goes to stdout so worker wrappers can pipe it straight
into the agent CLI.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().Bool("issue", false, "task tracks an external issue; omit the mark-complete instruction")
	promptCmd.Flags().String("caller", "", "dispatch identity named in the prompt preamble")
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	isIssue, _ := cmd.Flags().GetBool("issue")
	caller, _ := cmd.Flags().GetString("caller")

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	t, err := store.Get(args[0])
	if err != nil {
		return err
	}

	// Soft dependencies are context, not contracts: a reference to a task
	// that no longer exists is skipped, anything else is a real error.
	var deps []*task.Task
	for _, depID := range t.SoftDeps {
		dep, err := store.Get(depID)
		if err != nil {
			if errors.Is(err, errors.ErrTaskNotFound) || errors.Is(err, errors.ErrInvalidInput) {
				continue
			}
			return err
		}
		deps = append(deps, dep)
	}

	fmt.Fprint(cmd.OutOrStdout(), prompt.Build(t, deps, prompt.Options{
		IsIssue: isIssue,
		Caller:  caller,
	}))
	return nil
}
