package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/errors"
	"github.com/polecat-sh/polecat/internal/worktree"
)

var (
	listHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	listIDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	listStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	listPathStyle   = lipgloss.NewStyle().Faint(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active task worktrees",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	manager := worktree.NewManager(cfg.Paths.Repo, cfg.Paths.Home)
	ids, err := manager.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "no active worktrees")
		return nil
	}

	fmt.Fprintln(out, listHeaderStyle.Render(fmt.Sprintf("%d active worktrees", len(ids))))
	for _, id := range ids {
		status := "?"
		if t, err := store.Get(id); err == nil {
			status = string(t.Status)
		} else if !errors.Is(err, errors.ErrTaskNotFound) {
			return err
		}
		fmt.Fprintf(out, "  %s  %s  %s\n",
			listIDStyle.Render(id),
			listStatusStyle.Render(status),
			listPathStyle.Render(manager.Path(id)),
		)
	}
	return nil
}
