// Package refinery lands completed task branches on mainline. The
// Engineer scans for merge_ready tasks and processes at most one per scan,
// holding the system-wide merge slot for the duration. Failures never
// stop the line: the task is kicked back to human review with a report
// and the slot is vacated.
package refinery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/polecat-sh/polecat/internal/errors"
	"github.com/polecat-sh/polecat/internal/logging"
	"github.com/polecat-sh/polecat/internal/metrics"
	"github.com/polecat-sh/polecat/internal/task"
	"github.com/polecat-sh/polecat/internal/taskid"
	"github.com/polecat-sh/polecat/internal/worktree"
)

// testOutputLimit caps how much test output lands in a kickback report.
const testOutputLimit = 4000

// MergeRecorder records merge attempts. Recording is best-effort.
type MergeRecorder interface {
	RecordMerge(attempt metrics.MergeAttempt) error
}

// Options configures an Engineer.
type Options struct {
	Store     *task.Store
	Git       worktree.Repository
	Worktrees worktree.Worktrees
	// RepoDir is the mainline repository completed branches merge into.
	RepoDir string
	Tests   TestRunner
	Metrics MergeRecorder
	Log     *logging.Logger

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

// Engineer serializes merges of completed task branches into mainline.
type Engineer struct {
	store     *task.Store
	git       worktree.Repository
	worktrees worktree.Worktrees
	repoDir   string
	tests     TestRunner
	metrics   MergeRecorder
	log       *logging.Logger
	now       func() time.Time
}

// New creates an Engineer.
func New(opts Options) *Engineer {
	log := opts.Log
	if log == nil {
		log = logging.NopLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engineer{
		store:     opts.Store,
		git:       opts.Git,
		worktrees: opts.Worktrees,
		repoDir:   opts.RepoDir,
		tests:     opts.Tests,
		metrics:   opts.Metrics,
		log:       log.WithComponent("refinery"),
		now:       now,
	}
}

// Scan runs one merge cycle: if the merge slot is free and a merge_ready
// task exists, exactly one task is processed. Per-task failures are
// absorbed into a kickback; the returned error covers only internal
// failures the scan could not handle.
func (e *Engineer) Scan(ctx context.Context) error {
	merging, err := e.store.List(task.StatusMerging)
	if err != nil {
		return fmt.Errorf("list merging tasks: %w", err)
	}
	ready, err := e.store.List(task.StatusMergeReady)
	if err != nil {
		return fmt.Errorf("list merge_ready tasks: %w", err)
	}

	if len(merging) > 0 {
		e.log.Info("merge slot occupied, skipping scan",
			"merging", merging[0].ID,
			"queue_depth", len(ready),
		)
		return nil
	}
	if len(ready) == 0 {
		e.log.Debug("nothing to merge")
		return nil
	}

	t := ready[0]
	log := e.log.WithTask(t.ID)

	if err := e.store.ClaimMergeSlot(t.ID); err != nil {
		if errors.Is(err, errors.ErrSlotOccupied) {
			log.Info("lost merge slot race, skipping scan")
			return nil
		}
		return fmt.Errorf("claim merge slot: %w", err)
	}

	start := e.now()
	mergeErr := e.process(ctx, t)
	duration := e.now().Sub(start)

	if mergeErr != nil {
		category := errors.MergeCategoryOf(mergeErr)
		log.Warn("merge failed, kicking back",
			"category", string(category),
			"error", mergeErr.Error(),
		)
		e.record(metrics.MergeAttempt{
			TaskID:   t.ID,
			Success:  false,
			Category: category,
			Duration: duration,
		})
		if err := e.store.Kickback(t.ID, kickbackReport(mergeErr)); err != nil {
			return fmt.Errorf("kickback task %s: %w", t.ID, err)
		}
		return nil
	}

	log.Info("merge complete", "duration", duration.String())
	e.record(metrics.MergeAttempt{
		TaskID:   t.ID,
		Success:  true,
		Duration: duration,
	})
	return nil
}

// process drives one task branch through the merge pipeline. Every
// failure is returned as a *errors.MergeError so the caller can
// categorize without inspecting message text.
func (e *Engineer) process(ctx context.Context, t *task.Task) error {
	if e.repoDir == "" {
		return errors.NewMergeError(errors.CategoryOther, "no repository configured", nil).
			WithTaskID(t.ID).WithStage("resolve")
	}
	if !e.git.IsRepository(e.repoDir) {
		return errors.NewMergeError(errors.CategoryOther, "target is not a git repository", errors.ErrNotGitRepository).
			WithTaskID(t.ID).WithStage("resolve")
	}

	// Preflight: never merge over uncommitted local changes.
	dirty, err := e.git.HasUncommittedChanges(e.repoDir)
	if err != nil {
		return errors.NewMergeError(errors.CategoryOther, "preflight status check failed", err).
			WithTaskID(t.ID).WithStage("preflight")
	}
	if dirty {
		return errors.NewMergeError(errors.CategoryDirtyWorktree, "working tree has uncommitted changes", errors.ErrDirtyWorktree).
			WithTaskID(t.ID).WithStage("preflight")
	}

	if err := e.git.Fetch(e.repoDir); err != nil {
		return errors.NewMergeError(errors.CategoryOther, "fetch failed", err).
			WithTaskID(t.ID).WithStage("fetch")
	}

	mainBranch := e.git.FindMainBranch(e.repoDir)
	unpushed, err := e.git.UnpushedCount(e.repoDir, mainBranch)
	if err != nil {
		return errors.NewMergeError(errors.CategoryOther, "unpushed-commit check failed", err).
			WithTaskID(t.ID).WithStage("preflight")
	}
	if unpushed > 0 {
		return errors.NewMergeError(errors.CategoryOther,
			fmt.Sprintf("mainline has %d unpushed commits", unpushed), errors.ErrUnpushedMainline).
			WithTaskID(t.ID).WithStage("preflight")
	}

	branch := taskid.Branch(t.ID)
	local, err := e.git.BranchExistsLocal(e.repoDir, branch)
	if err != nil {
		return errors.NewMergeError(errors.CategoryOther, "local branch check failed", err).
			WithTaskID(t.ID).WithStage("branch")
	}
	mergeRef := branch
	if !local {
		remote, err := e.git.BranchExistsRemote(e.repoDir, branch)
		if err != nil {
			return errors.NewMergeError(errors.CategoryOther, "remote branch check failed", err).
				WithTaskID(t.ID).WithStage("branch")
		}
		if !remote {
			return errors.NewMergeError(errors.CategoryOther, "task branch does not exist", errors.ErrBranchNotFound).
				WithTaskID(t.ID).WithStage("branch")
		}
		mergeRef = "origin/" + branch
	}

	if err := e.git.Checkout(e.repoDir, mainBranch); err != nil {
		return errors.NewMergeError(errors.CategoryOther, "checkout mainline failed", err).
			WithTaskID(t.ID).WithStage("checkout")
	}
	if err := e.git.Pull(e.repoDir); err != nil {
		return errors.NewMergeError(errors.CategoryOther, "pull mainline failed", err).
			WithTaskID(t.ID).WithStage("pull")
	}

	if err := e.git.MergeSquash(e.repoDir, mergeRef); err != nil {
		_ = e.git.AbortMerge(e.repoDir)
		if errors.Is(err, errors.ErrMergeConflict) {
			return errors.NewMergeError(errors.CategoryConflicts, "squash merge conflicted", err).
				WithTaskID(t.ID).WithStage("squash")
		}
		return errors.NewMergeError(errors.CategoryOther, "squash merge failed", err).
			WithTaskID(t.ID).WithStage("squash")
	}

	// A merge never lands unverified.
	if _, _, ok := DetectTestCommand(e.repoDir); !ok {
		_ = e.git.ResetHard(e.repoDir)
		return errors.NewMergeError(errors.CategoryOther, "no recognized test configuration", errors.ErrNoTestConfig).
			WithTaskID(t.ID).WithStage("tests")
	}
	output, err := e.tests.Run(ctx, e.repoDir)
	if err != nil {
		_ = e.git.ResetHard(e.repoDir)
		return errors.NewMergeError(errors.CategoryTestsFailed, "test suite failed", errors.ErrTestsFailed).
			WithTaskID(t.ID).WithStage("tests").
			WithTestOutput(truncate(string(output), testOutputLimit))
	}

	message := fmt.Sprintf("%s: %s", t.ID, t.Title)
	if err := e.git.Commit(e.repoDir, message); err != nil {
		return errors.NewMergeError(errors.CategoryOther, "commit failed", err).
			WithTaskID(t.ID).WithStage("commit")
	}
	if err := e.git.Push(e.repoDir); err != nil {
		return errors.NewMergeError(errors.CategoryOther, "push failed", err).
			WithTaskID(t.ID).WithStage("push")
	}

	// The branch is merged; cleanup failures are logged, never fatal.
	log := e.log.WithTask(t.ID)
	if local {
		if err := e.git.DeleteBranch(e.repoDir, branch); err != nil {
			log.Warn("failed to delete local branch", "branch", branch, "error", err.Error())
		}
	}
	if err := e.git.DeleteRemoteBranch(e.repoDir, branch); err != nil {
		log.Warn("failed to delete remote branch", "branch", branch, "error", err.Error())
	}

	if err := e.store.SetStatus(t.ID, task.StatusDone); err != nil {
		return errors.NewMergeError(errors.CategoryOther, "failed to mark task done", err).
			WithTaskID(t.ID).WithStage("finalize")
	}

	if err := e.worktrees.Destroy(t.ID); err != nil {
		log.Warn("failed to destroy worktree", "error", err.Error())
	}
	return nil
}

func (e *Engineer) record(attempt metrics.MergeAttempt) {
	if e.metrics == nil {
		return
	}
	if err := e.metrics.RecordMerge(attempt); err != nil {
		e.log.Warn("failed to record merge metric", "error", err.Error())
	}
}

// kickbackReport renders the failure for a human reviewer.
func kickbackReport(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automatic merge failed (category: %s).\n\n", errors.MergeCategoryOf(err))
	fmt.Fprintf(&b, "```\n%s\n```\n", err.Error())
	b.WriteString("\nResolve the failure and set the task back to merge_ready, or close it out manually.")
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[... truncated]"
}
