// Package errors provides centralized error definitions and error handling
// utilities for the polecat codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and
// classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - GitError: errors from git operations (worktrees, branches, merges)
//   - MergeError: categorized failures inside the merge pipeline
//   - WorkerError: errors from swarm worker supervision
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input, carrying a reason code and a sanitized
//     echo of the offending value
//   - NotFoundError: resource not found
//
// # Merge Categories
//
// Every failure inside the merge pipeline is tagged with a MergeCategory at
// the point where the failure is detected. Categorization is a property of
// the error value, never a substring match on free text:
//
//	err := errors.NewMergeError(errors.CategoryConflicts, "squash merge conflicted", cause)
//	...
//	switch errors.MergeCategoryOf(err) {
//	case errors.CategoryConflicts: ...
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience so callers can import
// only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Task-store sentinel errors
var (
	// ErrTaskNotFound indicates that a task could not be found in the store.
	ErrTaskNotFound = New("task not found")
	// ErrNoReadyTasks indicates that the queue has no claimable tasks.
	ErrNoReadyTasks = New("no ready tasks")
	// ErrSlotOccupied indicates that another task currently holds the merge slot.
	ErrSlotOccupied = New("merge slot occupied")
)

// Git-related sentinel errors
var (
	// ErrNotGitRepository indicates that the directory is not a git repository.
	ErrNotGitRepository = New("not a git repository")
	// ErrWorktreeNotFound indicates that a worktree could not be found.
	ErrWorktreeNotFound = New("worktree not found")
	// ErrWorktreeExists indicates that a worktree already exists.
	ErrWorktreeExists = New("worktree already exists")
	// ErrBranchNotFound indicates that a branch exists neither locally nor on origin.
	ErrBranchNotFound = New("branch not found")
	// ErrMergeConflict indicates that a merge conflict occurred.
	ErrMergeConflict = New("merge conflict")
	// ErrDirtyWorktree indicates uncommitted changes in the working tree.
	ErrDirtyWorktree = New("working tree has uncommitted changes")
	// ErrUnpushedMainline indicates local mainline commits not present on origin.
	ErrUnpushedMainline = New("mainline has unpushed commits")
	// ErrNoTestConfig indicates the repository has no recognized test configuration.
	ErrNoTestConfig = New("no recognized test configuration")
	// ErrTestsFailed indicates the repository test suite exited non-zero.
	ErrTestsFailed = New("test suite failed")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrDraining indicates an operation was refused because a drain is in progress.
	ErrDraining = New("swarm is draining")
)

// -----------------------------------------------------------------------------
// Validation Reasons
// -----------------------------------------------------------------------------

// ValidationReason is a machine-readable code describing why an input was
// rejected. The reason is part of the error value so callers and tests never
// need to parse message text.
type ValidationReason string

const (
	// ReasonEmpty means the input was empty.
	ReasonEmpty ValidationReason = "empty"
	// ReasonTooShort means the input was below the minimum length.
	ReasonTooShort ValidationReason = "too short"
	// ReasonTooLong means the input exceeded the maximum length.
	ReasonTooLong ValidationReason = "too long"
	// ReasonForbiddenPattern means the input contained a forbidden substring
	// such as a path traversal or git ref-mangling sequence.
	ReasonForbiddenPattern ValidationReason = "forbidden pattern"
	// ReasonBadCharset means the input contained characters outside the
	// allowed set or bad boundary characters.
	ReasonBadCharset ValidationReason = "invalid characters"
	// ReasonReservedName means the input collided with a reserved git ref name.
	ReasonReservedName ValidationReason = "reserved name"
)

// maxEchoLen caps how much of an offending input is echoed back in a
// validation error. Longer inputs are truncated to keep hostile values from
// flooding logs.
const maxEchoLen = 50

// SanitizeEcho prepares an untrusted input for inclusion in an error message:
// control characters are replaced and the result is truncated to maxEchoLen.
func SanitizeEcho(input string) string {
	var b strings.Builder
	for _, r := range input {
		if b.Len() >= maxEchoLen {
			b.WriteString("...")
			break
		}
		if r < 0x20 || r == 0x7f {
			b.WriteRune('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidationError represents rejected input. It carries a reason code and a
// truncated, sanitized echo of the offending value.
type ValidationError struct {
	Reason ValidationReason
	Input  string // sanitized, truncated
	cause  error
}

// NewValidationError creates a ValidationError for the given raw input.
// The input is sanitized before being stored.
func NewValidationError(reason ValidationReason, input string) *ValidationError {
	return &ValidationError{
		Reason: reason,
		Input:  SanitizeEcho(input),
	}
}

// WithCause attaches an underlying error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error [reason=%s]: %q", e.Reason, e.Input)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Git Errors
// -----------------------------------------------------------------------------

// GitError represents errors from git operations.
//
// Example:
//
//	err := errors.NewGitError("failed to create worktree", errors.ErrWorktreeExists).
//		WithBranch("polecat/aops-1234").WithWorktree("/path/to/worktree")
type GitError struct {
	Branch     string
	Worktree   string
	Repository string
	GitOutput  string // captured git command output
	message    string
	cause      error
}

// NewGitError creates a new GitError.
func NewGitError(message string, cause error) *GitError {
	return &GitError{message: message, cause: cause}
}

// WithBranch adds a branch name to the error context.
func (e *GitError) WithBranch(branch string) *GitError {
	e.Branch = branch
	return e
}

// WithWorktree adds a worktree path to the error context.
func (e *GitError) WithWorktree(path string) *GitError {
	e.Worktree = path
	return e
}

// WithRepository adds a repository path to the error context.
func (e *GitError) WithRepository(path string) *GitError {
	e.Repository = path
	return e
}

// WithGitOutput adds captured git command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = strings.TrimSpace(output)
	return e
}

// Error returns the formatted error message.
func (e *GitError) Error() string {
	var parts []string
	if e.Branch != "" {
		parts = append(parts, fmt.Sprintf("branch=%s", e.Branch))
	}
	if e.Worktree != "" {
		parts = append(parts, fmt.Sprintf("worktree=%s", e.Worktree))
	}
	if e.Repository != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repository))
	}

	prefix := "git error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("git error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, e.GitOutput)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Unwrap returns the underlying error.
func (e *GitError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *GitError) Is(target error) bool {
	if _, ok := target.(*GitError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Merge Errors
// -----------------------------------------------------------------------------

// MergeCategory classifies a merge-pipeline failure for metrics and trend
// analysis. The category is assigned where the failure is detected, so it is
// a stable property of the error value rather than a heuristic over message
// text.
type MergeCategory string

const (
	// CategoryConflicts covers squash-merge conflicts.
	CategoryConflicts MergeCategory = "conflicts"
	// CategoryTestsFailed covers test-suite failures after a clean merge.
	CategoryTestsFailed MergeCategory = "tests_failed"
	// CategoryDirtyWorktree covers pre-flight failures on an unclean tree.
	CategoryDirtyWorktree MergeCategory = "dirty_worktree"
	// CategoryOther covers everything else: missing repos, missing branches,
	// unpushed mainline, push failures.
	CategoryOther MergeCategory = "other"
)

// MergeError is a categorized failure from the merge pipeline.
type MergeError struct {
	Category   MergeCategory
	TaskID     string
	Stage      string // pipeline stage name, e.g. "preflight", "squash", "tests"
	TestOutput string // captured output when Category == CategoryTestsFailed
	message    string
	cause      error
}

// NewMergeError creates a MergeError with the given category.
func NewMergeError(category MergeCategory, message string, cause error) *MergeError {
	return &MergeError{Category: category, message: message, cause: cause}
}

// WithTaskID adds the task id to the error context.
func (e *MergeError) WithTaskID(id string) *MergeError {
	e.TaskID = id
	return e
}

// WithStage adds the pipeline stage name to the error context.
func (e *MergeError) WithStage(stage string) *MergeError {
	e.Stage = stage
	return e
}

// WithTestOutput embeds captured test-suite output in the error.
func (e *MergeError) WithTestOutput(output string) *MergeError {
	e.TestOutput = strings.TrimSpace(output)
	return e
}

// Error returns the formatted error message.
func (e *MergeError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.Stage != "" {
		parts = append(parts, fmt.Sprintf("stage=%s", e.Stage))
	}
	parts = append(parts, fmt.Sprintf("category=%s", e.Category))

	msg := fmt.Sprintf("merge error [%s]: %s", strings.Join(parts, ", "), e.message)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.TestOutput != "" {
		msg = fmt.Sprintf("%s\ntest output:\n%s", msg, e.TestOutput)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *MergeError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *MergeError) Is(target error) bool {
	if _, ok := target.(*MergeError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// MergeCategoryOf extracts the merge category from an error. Errors that are
// not MergeErrors (and do not wrap one) are classified as CategoryOther.
func MergeCategoryOf(err error) MergeCategory {
	var me *MergeError
	if As(err, &me) {
		return me.Category
	}
	return CategoryOther
}

// -----------------------------------------------------------------------------
// Worker Errors
// -----------------------------------------------------------------------------

// WorkerError represents errors from swarm worker supervision.
type WorkerError struct {
	WorkerID string
	Agent    string // agent kind: "claude" or "gemini"
	ExitCode int
	message  string
	cause    error
}

// NewWorkerError creates a new WorkerError.
func NewWorkerError(message string, cause error) *WorkerError {
	return &WorkerError{message: message, cause: cause, ExitCode: -1}
}

// WithWorkerID adds the worker identifier to the error context.
func (e *WorkerError) WithWorkerID(id string) *WorkerError {
	e.WorkerID = id
	return e
}

// WithAgent adds the agent kind to the error context.
func (e *WorkerError) WithAgent(agent string) *WorkerError {
	e.Agent = agent
	return e
}

// WithExitCode records the subprocess exit code.
func (e *WorkerError) WithExitCode(code int) *WorkerError {
	e.ExitCode = code
	return e
}

// Error returns the formatted error message.
func (e *WorkerError) Error() string {
	var parts []string
	if e.WorkerID != "" {
		parts = append(parts, fmt.Sprintf("worker=%s", e.WorkerID))
	}
	if e.Agent != "" {
		parts = append(parts, fmt.Sprintf("agent=%s", e.Agent))
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}

	prefix := "worker error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("worker error [%s]", strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying error.
func (e *WorkerError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *WorkerError) Is(target error) bool {
	if _, ok := target.(*WorkerError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("task", "aops-5056bc83")
//	fmt.Println(err) // `task "aops-5056bc83" not found`
type NotFoundError struct {
	ResourceType string
	ResourceID   string
	cause        error
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

// WithCause attaches an underlying error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s %q not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s %q not found", e.ResourceType, e.ResourceID)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if errors.Is(target, ErrTaskNotFound) && e.ResourceType == "task" {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with an additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
