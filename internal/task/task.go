// Package task defines the task model and the file-backed task store. Tasks
// live as individual markdown files with YAML frontmatter under a tasks
// directory, so they stay hand-editable and diff-friendly.
package task

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Status is the lifecycle state of a task.
type Status string

// Task lifecycle statuses. The merge slot invariant holds over StatusMerging:
// at most one task system-wide carries it at any time.
const (
	StatusInbox      Status = "inbox"
	StatusQueue      Status = "queue"
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusMergeReady Status = "merge_ready"
	StatusMerging    Status = "merging"
	StatusDone       Status = "done"
	StatusReview     Status = "review"
	StatusBlocked    Status = "blocked"
	StatusArchived   Status = "archived"
)

var validStatuses = map[Status]bool{
	StatusInbox:      true,
	StatusQueue:      true,
	StatusActive:     true,
	StatusInProgress: true,
	StatusMergeReady: true,
	StatusMerging:    true,
	StatusDone:       true,
	StatusReview:     true,
	StatusBlocked:    true,
	StatusArchived:   true,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return validStatuses[s] }

// Task is a unit of work for a worker. The frontmatter fields round-trip
// through YAML; Body is the markdown text below the frontmatter.
type Task struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Type     string   `yaml:"type,omitempty"`
	Status   Status   `yaml:"status"`
	Assignee string   `yaml:"assignee,omitempty"`
	Project  string   `yaml:"project,omitempty"`
	Priority int      `yaml:"priority"`
	Tags     []string `yaml:"tags,omitempty"`
	Parent   string   `yaml:"parent,omitempty"`
	SoftDeps []string `yaml:"soft_deps,omitempty"`
	Body     string   `yaml:"-"`
}

const frontmatterDelim = "---"

// Marshal renders the task as a markdown file: YAML frontmatter between
// `---` delimiters followed by the body.
func (t *Task) Marshal() ([]byte, error) {
	meta, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal task frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	buf.Write(meta)
	buf.WriteString(frontmatterDelim + "\n")
	if t.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(t.Body)
		if !strings.HasSuffix(t.Body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a task file produced by Marshal (or written by hand).
func Unmarshal(data []byte) (*Task, error) {
	text := string(data)
	if !strings.HasPrefix(text, frontmatterDelim+"\n") {
		return nil, fmt.Errorf("task file missing frontmatter delimiter")
	}

	rest := text[len(frontmatterDelim)+1:]
	idx := strings.Index(rest, "\n"+frontmatterDelim+"\n")
	var meta, body string
	switch {
	case idx >= 0:
		meta = rest[:idx+1]
		body = rest[idx+len(frontmatterDelim)+2:]
	case strings.HasSuffix(rest, "\n"+frontmatterDelim):
		meta = rest[:len(rest)-len(frontmatterDelim)]
	default:
		return nil, fmt.Errorf("task file missing closing frontmatter delimiter")
	}

	var t Task
	if err := yaml.Unmarshal([]byte(meta), &t); err != nil {
		return nil, fmt.Errorf("unmarshal task frontmatter: %w", err)
	}
	t.Body = strings.TrimPrefix(body, "\n")

	if t.ID == "" {
		return nil, fmt.Errorf("task file has no id")
	}
	if t.Status != "" && !t.Status.Valid() {
		return nil, fmt.Errorf("task %s has unknown status %q", t.ID, t.Status)
	}
	return &t, nil
}
