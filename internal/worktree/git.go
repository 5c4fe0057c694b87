// Package worktree provides git worktree and branch operations for task
// isolation. Each task gets a dedicated worktree and branch; the merge
// refinery drives the same git layer to land completed branches.
//
// This file provides concrete CLI implementations wrapping actual git
// commands, while the CommandExecutor abstraction allows tests to run
// without real repositories.
package worktree

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/polecat-sh/polecat/internal/errors"
)

// -----------------------------------------------------------------------------
// Command Executor
// -----------------------------------------------------------------------------

// CommandExecutor abstracts command execution for testability.
// This allows tests to mock git commands without executing them.
type CommandExecutor interface {
	// Run executes a command and returns combined output.
	Run(dir string, name string, args ...string) ([]byte, error)

	// RunQuiet executes a command and returns only the error.
	RunQuiet(dir string, name string, args ...string) error
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

// NewCLICommandExecutor creates a new CLI command executor.
func NewCLICommandExecutor() *CLICommandExecutor {
	return &CLICommandExecutor{}
}

// Run executes a command and returns combined output.
func (e *CLICommandExecutor) Run(dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// RunQuiet executes a command and returns only the error.
func (e *CLICommandExecutor) RunQuiet(dir string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.Run()
}

// -----------------------------------------------------------------------------
// Git - CLI git operations
// -----------------------------------------------------------------------------

// Git implements repository operations using git CLI commands.
type Git struct {
	executor CommandExecutor
}

// NewGit creates a Git backed by the real git CLI.
func NewGit() *Git {
	return &Git{executor: NewCLICommandExecutor()}
}

// NewGitWithExecutor creates a Git with a custom executor.
// This is primarily useful for testing.
func NewGitWithExecutor(executor CommandExecutor) *Git {
	return &Git{executor: executor}
}

// IsRepository reports whether path is inside a git work tree.
func (g *Git) IsRepository(path string) bool {
	output, err := g.executor.Run(path, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(string(output)) == "true"
}

// Fetch updates remote tracking refs from origin.
func (g *Git) Fetch(path string) error {
	output, err := g.executor.Run(path, "git", "fetch", "origin", "--prune")
	if err != nil {
		return errors.NewGitError("failed to fetch origin", err).
			WithRepository(path).
			WithGitOutput(string(output))
	}
	return nil
}

// Checkout switches the working tree to the given branch.
func (g *Git) Checkout(path, branch string) error {
	output, err := g.executor.Run(path, "git", "checkout", branch)
	if err != nil {
		return errors.NewGitError("failed to checkout branch", err).
			WithRepository(path).
			WithBranch(branch).
			WithGitOutput(string(output))
	}
	return nil
}

// Pull fast-forwards the current branch from its upstream.
func (g *Git) Pull(path string) error {
	output, err := g.executor.Run(path, "git", "pull", "--ff-only")
	if err != nil {
		return errors.NewGitError("failed to pull", err).
			WithRepository(path).
			WithGitOutput(string(output))
	}
	return nil
}

// BranchExistsLocal reports whether branch exists in the local repository.
func (g *Git) BranchExistsLocal(path, branch string) (bool, error) {
	err := g.executor.RunQuiet(path, "git", "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	if err != nil {
		// rev-parse --verify exits non-zero when the ref does not exist.
		return false, nil
	}
	return true, nil
}

// BranchExistsRemote reports whether branch exists on origin.
func (g *Git) BranchExistsRemote(path, branch string) (bool, error) {
	output, err := g.executor.Run(path, "git", "ls-remote", "--heads", "origin", branch)
	if err != nil {
		return false, errors.NewGitError("failed to query origin", err).
			WithRepository(path).
			WithBranch(branch).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// HasUncommittedChanges returns true if the working tree is not clean.
func (g *Git) HasUncommittedChanges(path string) (bool, error) {
	output, err := g.executor.Run(path, "git", "status", "--porcelain")
	if err != nil {
		return false, errors.NewGitError("failed to check git status", err).
			WithRepository(path).
			WithGitOutput(string(output))
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// UnpushedCount returns how many commits branch has beyond origin/branch.
func (g *Git) UnpushedCount(path, branch string) (int, error) {
	output, err := g.executor.Run(path, "git", "rev-list", "--count", "origin/"+branch+".."+branch)
	if err != nil {
		return 0, errors.NewGitError("failed to count unpushed commits", err).
			WithRepository(path).
			WithBranch(branch).
			WithGitOutput(string(output))
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(output)))
	if err != nil {
		return 0, errors.NewGitError("failed to parse commit count", err).
			WithRepository(path)
	}
	return count, nil
}

// MergeSquash squash-merges branch into the current branch without
// committing. Conflicts surface as errors.ErrMergeConflict; the caller is
// responsible for aborting.
func (g *Git) MergeSquash(path, branch string) error {
	output, err := g.executor.Run(path, "git", "merge", "--squash", branch)
	if err != nil {
		outputStr := string(output)
		if strings.Contains(outputStr, "CONFLICT") || strings.Contains(outputStr, "Automatic merge failed") {
			return errors.NewGitError("squash merge conflicted", errors.ErrMergeConflict).
				WithRepository(path).
				WithBranch(branch).
				WithGitOutput(outputStr)
		}
		return errors.NewGitError("failed to squash merge", err).
			WithRepository(path).
			WithBranch(branch).
			WithGitOutput(outputStr)
	}
	return nil
}

// AbortMerge aborts an in-progress merge, restoring the pre-merge state.
func (g *Git) AbortMerge(path string) error {
	output, err := g.executor.Run(path, "git", "merge", "--abort")
	if err != nil {
		return errors.NewGitError("failed to abort merge", err).
			WithRepository(path).
			WithGitOutput(string(output))
	}
	return nil
}

// ResetHard discards all uncommitted changes in the working tree.
func (g *Git) ResetHard(path string) error {
	output, err := g.executor.Run(path, "git", "reset", "--hard", "HEAD")
	if err != nil {
		return errors.NewGitError("failed to reset", err).
			WithRepository(path).
			WithGitOutput(string(output))
	}
	return nil
}

// Commit stages and commits all changes with the given message.
// Returns nil if there is nothing to commit.
func (g *Git) Commit(path, message string) error {
	output, err := g.executor.Run(path, "git", "add", "-A")
	if err != nil {
		return errors.NewGitError("failed to stage changes", err).
			WithRepository(path).
			WithGitOutput(string(output))
	}

	output, err = g.executor.Run(path, "git", "commit", "-m", message)
	if err != nil {
		if strings.Contains(string(output), "nothing to commit") {
			return nil
		}
		return errors.NewGitError("failed to commit changes", err).
			WithRepository(path).
			WithGitOutput(string(output))
	}
	return nil
}

// Push pushes the current branch to origin.
func (g *Git) Push(path string) error {
	output, err := g.executor.Run(path, "git", "push", "origin", "HEAD")
	if err != nil {
		return errors.NewGitError("failed to push", err).
			WithRepository(path).
			WithGitOutput(string(output))
	}
	return nil
}

// DeleteBranch force-deletes a local branch.
func (g *Git) DeleteBranch(path, branch string) error {
	output, err := g.executor.Run(path, "git", "branch", "-D", branch)
	if err != nil {
		return errors.NewGitError("failed to delete branch", err).
			WithRepository(path).
			WithBranch(branch).
			WithGitOutput(string(output))
	}
	return nil
}

// DeleteRemoteBranch deletes a branch on origin.
func (g *Git) DeleteRemoteBranch(path, branch string) error {
	output, err := g.executor.Run(path, "git", "push", "origin", "--delete", branch)
	if err != nil {
		return errors.NewGitError("failed to delete remote branch", err).
			WithRepository(path).
			WithBranch(branch).
			WithGitOutput(string(output))
	}
	return nil
}

// FindMainBranch returns the repository's mainline branch name, preferring
// "main" over "master". Defaults to "main" when neither resolves.
func (g *Git) FindMainBranch(path string) string {
	for _, name := range []string{"main", "master"} {
		if err := g.executor.RunQuiet(path, "git", "rev-parse", "--verify", "--quiet", "refs/heads/"+name); err == nil {
			return name
		}
	}
	return "main"
}
