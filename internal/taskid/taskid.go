// Package taskid validates task identifiers before they reach any git or
// filesystem operation. A task id doubles as a branch name suffix and a
// worktree directory name, so the rules are strict enough for both.
package taskid

import (
	"strings"

	"github.com/polecat-sh/polecat/internal/errors"
)

const (
	// MinLength is the minimum accepted id length.
	MinLength = 2
	// MaxLength is the maximum accepted id length.
	MaxLength = 100
)

// BranchPrefix is the fixed prefix for task branches. The branch name for a
// task is always derivable from its id alone.
const BranchPrefix = "polecat/"

// forbidden substrings mangle git refs or escape the worktree directory.
var forbidden = []string{
	"..", "/", "\\", "@{", "\x00", "\n", "\r", " ",
}

// reserved names collide with git refs or protected branches. Matched
// case-insensitively.
var reserved = map[string]bool{
	"head":             true,
	"fetch_head":       true,
	"orig_head":        true,
	"merge_head":       true,
	"cherry_pick_head": true,
	"revert_head":      true,
	"stash":            true,
	"main":             true,
	"master":           true,
	"develop":          true,
	"origin":           true,
}

// Validate reports whether id is a well-formed task identifier.
func Validate(id string) bool {
	_, err := ValidateOrErr(id)
	return err == nil
}

// ValidateOrErr validates id and returns it unchanged on success. On failure
// it returns a *errors.ValidationError carrying a reason code and a
// sanitized echo of the input.
func ValidateOrErr(id string) (string, error) {
	if id == "" {
		return "", errors.NewValidationError(errors.ReasonEmpty, id)
	}
	if len(id) < MinLength {
		return "", errors.NewValidationError(errors.ReasonTooShort, id)
	}
	if len(id) > MaxLength {
		return "", errors.NewValidationError(errors.ReasonTooLong, id)
	}

	for _, sub := range forbidden {
		if strings.Contains(id, sub) {
			return "", errors.NewValidationError(errors.ReasonForbiddenPattern, id)
		}
	}

	if !isAlnum(id[0]) || !isAlnum(id[len(id)-1]) {
		return "", errors.NewValidationError(errors.ReasonBadCharset, id)
	}
	for i := 0; i < len(id); i++ {
		if !isAllowed(id[i]) {
			return "", errors.NewValidationError(errors.ReasonBadCharset, id)
		}
	}

	if reserved[strings.ToLower(id)] {
		return "", errors.NewValidationError(errors.ReasonReservedName, id)
	}

	return id, nil
}

// Branch returns the git branch name for a validated task id.
func Branch(id string) string {
	return BranchPrefix + id
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

func isAllowed(c byte) bool {
	return isAlnum(c) || c == '-' || c == '_'
}
