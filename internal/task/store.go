package task

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/polecat-sh/polecat/internal/errors"
	"github.com/polecat-sh/polecat/internal/taskid"
)

// Store is a file-backed task store. Each task is a single `<id>.md` file
// under the store directory. Writes are atomic (temp file + rename) and
// mutating operations hold a cross-process file lock, so workers, the
// refinery, and the CLI can safely share one directory.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) a task store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create tasks directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".md")
}

// Get loads a task by id. The id is validated before any filesystem access.
func (s *Store) Get(id string) (*Task, error) {
	if _, err := taskid.ValidateOrErr(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("task", id)
		}
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return Unmarshal(data)
}

// Save writes the task to disk atomically under the store lock.
func (s *Store) Save(t *Task) error {
	if _, err := taskid.ValidateOrErr(t.ID); err != nil {
		return err
	}

	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	return s.write(t)
}

// write persists t without taking the lock. Callers hold it.
func (s *Store) write(t *Task) error {
	data, err := t.Marshal()
	if err != nil {
		return err
	}

	target := s.path(t.ID)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// List returns all tasks, optionally filtered to the given statuses.
// Results are sorted by priority (ascending) then id for stable ordering.
func (s *Store) List(statuses ...Status) ([]*Task, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read tasks directory: %w", err)
	}

	want := make(map[Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var tasks []*Task
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		id := strings.TrimSuffix(name, ".md")
		if !taskid.Validate(id) {
			continue
		}

		t, err := s.Get(id)
		if err != nil {
			return nil, fmt.Errorf("load task %s: %w", id, err)
		}
		if len(want) > 0 && !want[t.Status] {
			continue
		}
		tasks = append(tasks, t)
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority < tasks[j].Priority
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

// ClaimNextReady atomically claims the highest-priority ready task: status
// moves to in_progress and the assignee is recorded. Ready means status
// queue or active, matching the project filter when one is given. Returns
// errors.ErrNoReadyTasks when nothing is claimable.
func (s *Store) ClaimNextReady(project, assignee string) (*Task, error) {
	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	ready, err := s.List(StatusQueue, StatusActive)
	if err != nil {
		return nil, err
	}

	for _, t := range ready {
		if project != "" && t.Project != project {
			continue
		}
		t.Status = StatusInProgress
		t.Assignee = assignee
		if err := s.write(t); err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, errors.ErrNoReadyTasks
}

// Claim marks a specific task in_progress for the given assignee. Unlike
// ClaimNextReady it accepts tasks already in progress, so a worker can
// resume its own task after a crash.
func (s *Store) Claim(id, assignee string) (*Task, error) {
	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	t.Status = StatusInProgress
	t.Assignee = assignee
	if err := s.write(t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetStatus updates a task's status under the store lock.
func (s *Store) SetStatus(id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	t, err := s.Get(id)
	if err != nil {
		return err
	}
	t.Status = status
	return s.write(t)
}

// AppendBody appends text to a task's body under the store lock, separated
// from existing content by a blank line.
func (s *Store) AppendBody(id, text string) error {
	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	t, err := s.Get(id)
	if err != nil {
		return err
	}

	if t.Body == "" {
		t.Body = text
	} else {
		t.Body = strings.TrimRight(t.Body, "\n") + "\n\n" + text
	}
	return s.write(t)
}

// ClaimMergeSlot moves a merge_ready task to merging if and only if no
// other task currently holds the merge slot. The check and the status write
// happen under one lock acquisition, so the at-most-one-merging invariant
// holds across processes. Returns errors.ErrSlotOccupied when the slot is
// taken.
func (s *Store) ClaimMergeSlot(id string) error {
	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	merging, err := s.List(StatusMerging)
	if err != nil {
		return err
	}
	if len(merging) > 0 {
		return errors.Wrapf(errors.ErrSlotOccupied, "task %s is merging", merging[0].ID)
	}

	t, err := s.Get(id)
	if err != nil {
		return err
	}
	t.Status = StatusMerging
	return s.write(t)
}

// Kickback returns a failed merge candidate to human review: the status
// becomes review and a timestamped failure report is appended to the body.
// The slot is vacated by the status change itself.
func (s *Store) Kickback(id, report string) error {
	stamp := time.Now().UTC().Format(time.RFC3339)
	entry := fmt.Sprintf("## Merge kickback (%s)\n\n%s", stamp, report)

	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	t, err := s.Get(id)
	if err != nil {
		return err
	}

	t.Status = StatusReview
	if t.Body == "" {
		t.Body = entry
	} else {
		t.Body = strings.TrimRight(t.Body, "\n") + "\n\n" + entry
	}
	return s.write(t)
}
