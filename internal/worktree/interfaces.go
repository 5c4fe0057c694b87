package worktree

// Repository defines the git operations the merge refinery and the CLI
// depend on. The interface abstracts the git CLI so tests can run against
// fakes instead of real repositories.
type Repository interface {
	IsRepository(path string) bool
	Fetch(path string) error
	Checkout(path, branch string) error
	Pull(path string) error
	BranchExistsLocal(path, branch string) (bool, error)
	BranchExistsRemote(path, branch string) (bool, error)
	HasUncommittedChanges(path string) (bool, error)
	UnpushedCount(path, branch string) (int, error)
	MergeSquash(path, branch string) error
	AbortMerge(path string) error
	ResetHard(path string) error
	Commit(path, message string) error
	Push(path string) error
	DeleteBranch(path, branch string) error
	DeleteRemoteBranch(path, branch string) error
	FindMainBranch(path string) string
}

// Worktrees defines the worktree lifecycle operations used by workers and
// the CLI.
type Worktrees interface {
	Setup(id string) (string, error)
	Destroy(id string) error
	List() ([]string, error)
	Path(id string) string
}

// Ensure the CLI implementations satisfy the interfaces at compile time.
var (
	_ Repository = (*Git)(nil)
	_ Worktrees  = (*Manager)(nil)
)
