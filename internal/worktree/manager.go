package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/polecat-sh/polecat/internal/errors"
	"github.com/polecat-sh/polecat/internal/taskid"
)

// Manager creates and destroys task worktrees under a worker home
// directory. Each task id maps to exactly one worktree at <home>/<id> on
// branch polecat/<id>, so ownership is exclusive by construction.
type Manager struct {
	repoDir  string
	home     string
	executor CommandExecutor
	git      *Git
}

// NewManager creates a Manager for the given repository and worker home.
func NewManager(repoDir, home string) *Manager {
	executor := NewCLICommandExecutor()
	return &Manager{
		repoDir:  repoDir,
		home:     home,
		executor: executor,
		git:      NewGitWithExecutor(executor),
	}
}

// NewManagerWithExecutor creates a Manager with a custom executor.
// This is primarily useful for testing.
func NewManagerWithExecutor(repoDir, home string, executor CommandExecutor) *Manager {
	return &Manager{
		repoDir:  repoDir,
		home:     home,
		executor: executor,
		git:      NewGitWithExecutor(executor),
	}
}

// Git returns the git operations layer sharing this Manager's executor.
func (m *Manager) Git() *Git { return m.git }

// Home returns the worker home directory.
func (m *Manager) Home() string { return m.home }

// RepoDir returns the managed repository's root directory.
func (m *Manager) RepoDir() string { return m.repoDir }

// Path returns the worktree path for a task id. The id must already be
// validated.
func (m *Manager) Path(id string) string {
	return filepath.Join(m.home, id)
}

// Setup creates (or resumes) the worktree for a task and returns its path.
// The id is validated before any git or filesystem operation. If the
// worktree already exists it is reused as-is; if the branch exists without
// a worktree, the worktree is attached to it.
func (m *Manager) Setup(id string) (string, error) {
	if _, err := taskid.ValidateOrErr(id); err != nil {
		return "", err
	}

	path := m.Path(id)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(m.home, 0755); err != nil {
		return "", fmt.Errorf("create worker home: %w", err)
	}

	branch := taskid.Branch(id)
	exists, err := m.git.BranchExistsLocal(m.repoDir, branch)
	if err != nil {
		return "", err
	}

	var output []byte
	if exists {
		output, err = m.executor.Run(m.repoDir, "git", "worktree", "add", path, branch)
	} else {
		output, err = m.executor.Run(m.repoDir, "git", "worktree", "add", "-b", branch, path)
	}
	if err != nil {
		return "", errors.NewGitError("failed to create worktree", err).
			WithRepository(m.repoDir).
			WithBranch(branch).
			WithWorktree(path).
			WithGitOutput(string(output))
	}
	return path, nil
}

// Destroy removes a task's worktree. The branch is left alone; callers
// that want it gone delete it through the git layer. Destroying a missing
// worktree is not an error.
func (m *Manager) Destroy(id string) error {
	if _, err := taskid.ValidateOrErr(id); err != nil {
		return err
	}

	path := m.Path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	output, err := m.executor.Run(m.repoDir, "git", "worktree", "remove", "--force", path)
	if err != nil {
		// Fall back to manual removal for worktrees git no longer tracks.
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return errors.NewGitError("failed to remove worktree", err).
				WithRepository(m.repoDir).
				WithWorktree(path).
				WithGitOutput(string(output))
		}
		_, _ = m.executor.Run(m.repoDir, "git", "worktree", "prune")
	}
	return nil
}

// List returns the task ids of all worktrees under the worker home,
// sorted. Directories that are not valid task ids are ignored.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.home)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read worker home: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && taskid.Validate(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
