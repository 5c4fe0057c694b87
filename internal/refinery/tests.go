package refinery

import (
	"context"
	"os"
	"path/filepath"

	"github.com/polecat-sh/polecat/internal/worktree"
)

// testConfig maps a recognized build file to the command that runs the
// repository's test suite.
type testConfig struct {
	file string
	name string
	args []string
}

// Checked in order; the first match wins.
var testConfigs = []testConfig{
	{"go.mod", "go", []string{"test", "./..."}},
	{"package.json", "npm", []string{"test"}},
	{"Makefile", "make", []string{"test"}},
	{"pyproject.toml", "pytest", nil},
	{"Cargo.toml", "cargo", []string{"test"}},
}

// DetectTestCommand returns the test command for the repository at dir,
// or ok=false when no recognized test configuration exists. A merge is
// never landed unverified, so the caller must treat ok=false as a failure.
func DetectTestCommand(dir string) (name string, args []string, ok bool) {
	for _, tc := range testConfigs {
		if _, err := os.Stat(filepath.Join(dir, tc.file)); err == nil {
			return tc.name, tc.args, true
		}
	}
	return "", nil, false
}

// TestRunner runs a repository's test suite.
type TestRunner interface {
	Run(ctx context.Context, dir string) ([]byte, error)
}

// CommandTestRunner runs the detected test command through a
// CommandExecutor.
type CommandTestRunner struct {
	executor worktree.CommandExecutor
}

// NewCommandTestRunner creates a CommandTestRunner backed by the real CLI.
func NewCommandTestRunner() *CommandTestRunner {
	return &CommandTestRunner{executor: worktree.NewCLICommandExecutor()}
}

// NewCommandTestRunnerWithExecutor creates a CommandTestRunner with a
// custom executor. This is primarily useful for testing.
func NewCommandTestRunnerWithExecutor(executor worktree.CommandExecutor) *CommandTestRunner {
	return &CommandTestRunner{executor: executor}
}

// Run detects and executes the test suite, returning combined output.
func (r *CommandTestRunner) Run(ctx context.Context, dir string) ([]byte, error) {
	name, args, ok := DetectTestCommand(dir)
	if !ok {
		return nil, os.ErrNotExist
	}
	return r.executor.Run(dir, name, args...)
}
