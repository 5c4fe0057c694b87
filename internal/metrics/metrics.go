// Package metrics records merge-attempt outcomes as append-only JSONL so
// merge health can be analyzed over time. Recording is best-effort: a
// metrics failure never fails the pipeline that produced the event.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/polecat-sh/polecat/internal/errors"
)

const mergesFileName = "merges.jsonl"

// MergeAttempt is one record in the merge log.
type MergeAttempt struct {
	TaskID    string               `json:"task_id"`
	Success   bool                 `json:"success"`
	Category  errors.MergeCategory `json:"category,omitempty"`
	Duration  time.Duration        `json:"duration_ns"`
	Timestamp time.Time            `json:"timestamp"`
}

// Recorder appends merge attempts to <dir>/merges.jsonl.
type Recorder struct {
	dir string
	now func() time.Time
}

// NewRecorder creates a Recorder writing under dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir, now: time.Now}
}

// Path returns the merge log file path.
func (r *Recorder) Path() string {
	return filepath.Join(r.dir, mergesFileName)
}

// RecordMerge appends one merge attempt. The timestamp is filled in if the
// caller left it zero.
func (r *Recorder) RecordMerge(attempt MergeAttempt) error {
	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = r.now().UTC()
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal merge attempt: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(r.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open merge log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append merge attempt: %w", err)
	}
	return nil
}
