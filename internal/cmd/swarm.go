package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/polecat-sh/polecat/internal/alert"
	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/swarm"
)

var swarmCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Run a fleet of agent workers",
	Long: `Swarm spawns the requested claude and gemini workers and supervises
them. A worker that exits cleanly restarts after a short pause; a worker
that fails stops its slot permanently and alerts the operator.

The first interrupt drains the fleet (workers finish their current cycle);
a second interrupt force-kills. Touching ` + swarm.DrainFileName + ` in the
worker home also requests a drain.`,
	Args: cobra.NoArgs,
	RunE: runSwarm,
}

func init() {
	swarmCmd.Flags().Int("claude", 0, "number of claude workers")
	swarmCmd.Flags().Int("gemini", 0, "number of gemini workers")
	swarmCmd.Flags().String("project", "", "restrict workers to tasks for this project")
	swarmCmd.Flags().String("caller", "", "dispatch identity passed to workers")
	swarmCmd.Flags().Bool("dry-run", false, "spawn workers without invoking any agent")
	swarmCmd.Flags().Int("gemini-stagger", -1, "seconds between gemini worker starts (default from config)")
	rootCmd.AddCommand(swarmCmd)
}

func runSwarm(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	claude, _ := cmd.Flags().GetInt("claude")
	gemini, _ := cmd.Flags().GetInt("gemini")
	project, _ := cmd.Flags().GetString("project")
	caller, _ := cmd.Flags().GetString("caller")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	staggerSecs, _ := cmd.Flags().GetInt("gemini-stagger")

	if claude == 0 {
		claude = cfg.Swarm.ClaudeCount
	}
	if gemini == 0 {
		gemini = cfg.Swarm.GeminiCount
	}
	stagger := cfg.Swarm.GeminiStagger()
	if staggerSecs >= 0 {
		stagger = time.Duration(staggerSecs) * time.Second
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	var runner swarm.CycleRunner
	if dryRun {
		runner = &swarm.DryRunner{Log: log}
	} else {
		runner = &swarm.ExecRunner{
			ClaudeCommand: cfg.Agents.ClaudeCommand,
			GeminiCommand: cfg.Agents.GeminiCommand,
			Home:          cfg.Paths.Home,
			FrameworkRoot: cfg.Paths.FrameworkRoot,
		}
	}

	s := swarm.New(swarm.Options{
		ClaudeCount:   claude,
		GeminiCount:   gemini,
		Caller:        caller,
		Project:       project,
		Home:          cfg.Paths.Home,
		GeminiStagger: stagger,
		CyclePause:    cfg.Swarm.CyclePause(),
		DryRun:        dryRun,
		Runner:        runner,
		Log:           log,
		Notifier:      alert.NewNotifier(),
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stop := s.WatchSignals(cancel)
	defer stop()

	if !dryRun {
		if err := s.WatchDrainFile(ctx); err != nil {
			log.Warn("drain file watcher unavailable", "error", err.Error())
		}
	}

	return s.Run(ctx)
}
