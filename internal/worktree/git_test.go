package worktree

import (
	"fmt"
	"strings"
	"testing"

	"github.com/polecat-sh/polecat/internal/errors"
)

// fakeExecutor records commands and returns scripted responses keyed by a
// space-joined prefix of the command line.
type fakeExecutor struct {
	calls     []string
	responses map[string]fakeResponse
}

type fakeResponse struct {
	output string
	err    error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{responses: make(map[string]fakeResponse)}
}

func (f *fakeExecutor) respond(prefix, output string, err error) {
	f.responses[prefix] = fakeResponse{output: output, err: err}
}

func (f *fakeExecutor) lookup(name string, args ...string) fakeResponse {
	cmdline := name + " " + strings.Join(args, " ")
	for prefix, resp := range f.responses {
		if strings.HasPrefix(cmdline, prefix) {
			return resp
		}
	}
	return fakeResponse{}
}

func (f *fakeExecutor) Run(dir string, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	resp := f.lookup(name, args...)
	return []byte(resp.output), resp.err
}

func (f *fakeExecutor) RunQuiet(dir string, name string, args ...string) error {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	return f.lookup(name, args...).err
}

func (f *fakeExecutor) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func TestHasUncommittedChanges(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"clean tree", "", false},
		{"whitespace only", "\n", false},
		{"modified file", " M internal/foo.go\n", true},
		{"untracked file", "?? scratch.txt\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor()
			exec.respond("git status --porcelain", tt.output, nil)

			got, err := NewGitWithExecutor(exec).HasUncommittedChanges("/repo")
			if err != nil {
				t.Fatalf("HasUncommittedChanges failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBranchExistsLocal(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("git rev-parse --verify --quiet refs/heads/polecat/aops-yes1", "", nil)
	exec.respond("git rev-parse --verify --quiet refs/heads/polecat/aops-no1", "", fmt.Errorf("exit status 1"))

	git := NewGitWithExecutor(exec)

	exists, err := git.BranchExistsLocal("/repo", "polecat/aops-yes1")
	if err != nil || !exists {
		t.Errorf("existing branch: got (%v, %v), want (true, nil)", exists, err)
	}

	exists, err = git.BranchExistsLocal("/repo", "polecat/aops-no1")
	if err != nil || exists {
		t.Errorf("missing branch: got (%v, %v), want (false, nil)", exists, err)
	}
}

func TestBranchExistsRemote(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("git ls-remote --heads origin polecat/aops-yes1",
		"abc123\trefs/heads/polecat/aops-yes1\n", nil)
	exec.respond("git ls-remote --heads origin polecat/aops-no1", "", nil)

	git := NewGitWithExecutor(exec)

	exists, err := git.BranchExistsRemote("/repo", "polecat/aops-yes1")
	if err != nil || !exists {
		t.Errorf("existing remote branch: got (%v, %v), want (true, nil)", exists, err)
	}

	exists, err = git.BranchExistsRemote("/repo", "polecat/aops-no1")
	if err != nil || exists {
		t.Errorf("missing remote branch: got (%v, %v), want (false, nil)", exists, err)
	}
}

func TestUnpushedCount(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("git rev-list --count origin/main..main", "3\n", nil)

	count, err := NewGitWithExecutor(exec).UnpushedCount("/repo", "main")
	if err != nil {
		t.Fatalf("UnpushedCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestMergeSquashConflict(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("git merge --squash",
		"CONFLICT (content): Merge conflict in main.go\nAutomatic merge failed\n",
		fmt.Errorf("exit status 1"))

	err := NewGitWithExecutor(exec).MergeSquash("/repo", "polecat/aops-c1")
	if err == nil {
		t.Fatal("MergeSquash succeeded, want conflict error")
	}
	if !errors.Is(err, errors.ErrMergeConflict) {
		t.Errorf("error = %v, want ErrMergeConflict", err)
	}

	var ge *errors.GitError
	if !errors.As(err, &ge) {
		t.Fatalf("error is %T, want *errors.GitError", err)
	}
	if !strings.Contains(ge.GitOutput, "CONFLICT") {
		t.Errorf("GitOutput = %q, want captured conflict output", ge.GitOutput)
	}
}

func TestMergeSquashOtherFailure(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("git merge --squash", "fatal: not something we can merge\n", fmt.Errorf("exit status 128"))

	err := NewGitWithExecutor(exec).MergeSquash("/repo", "polecat/aops-x1")
	if err == nil {
		t.Fatal("MergeSquash succeeded, want error")
	}
	if errors.Is(err, errors.ErrMergeConflict) {
		t.Error("non-conflict failure misclassified as merge conflict")
	}
}

func TestCommitNothingToCommit(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("git commit -m", "nothing to commit, working tree clean\n", fmt.Errorf("exit status 1"))

	if err := NewGitWithExecutor(exec).Commit("/repo", "aops-x1: title"); err != nil {
		t.Errorf("Commit with clean tree should be nil, got %v", err)
	}
}

func TestFindMainBranch(t *testing.T) {
	t.Run("prefers main", func(t *testing.T) {
		exec := newFakeExecutor()
		if got := NewGitWithExecutor(exec).FindMainBranch("/repo"); got != "main" {
			t.Errorf("got %q, want main", got)
		}
	})

	t.Run("falls back to master", func(t *testing.T) {
		exec := newFakeExecutor()
		exec.respond("git rev-parse --verify --quiet refs/heads/main", "", fmt.Errorf("exit status 1"))
		if got := NewGitWithExecutor(exec).FindMainBranch("/repo"); got != "master" {
			t.Errorf("got %q, want master", got)
		}
	})
}

func TestDeleteRemoteBranch(t *testing.T) {
	exec := newFakeExecutor()
	git := NewGitWithExecutor(exec)

	if err := git.DeleteRemoteBranch("/repo", "polecat/aops-d1"); err != nil {
		t.Fatalf("DeleteRemoteBranch failed: %v", err)
	}
	if !exec.called("git push origin --delete polecat/aops-d1") {
		t.Errorf("calls = %v", exec.calls)
	}
}
