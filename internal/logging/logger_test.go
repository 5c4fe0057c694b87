package logging

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("worker started", "agent", "claude")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readLogLines(t, filepath.Join(dir, "polecat.log"))
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0]["msg"] != "worker started" {
		t.Errorf("msg = %v, want %q", entries[0]["msg"], "worker started")
	}
	if entries[0]["agent"] != "claude" {
		t.Errorf("agent = %v, want %q", entries[0]["agent"], "claude")
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readLogLines(t, filepath.Join(dir, "polecat.log"))
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2 (warn + error)", len(entries))
	}
}

func TestChildLoggerAttributes(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.WithWorker("claude-1").WithTask("aops-5056bc83")
	child.Info("cycle complete")

	// Parent logger must not carry the child's attributes.
	logger.Info("scan complete")

	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readLogLines(t, filepath.Join(dir, "polecat.log"))
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}

	if entries[0]["worker_id"] != "claude-1" {
		t.Errorf("worker_id = %v, want %q", entries[0]["worker_id"], "claude-1")
	}
	if entries[0]["task_id"] != "aops-5056bc83" {
		t.Errorf("task_id = %v, want %q", entries[0]["task_id"], "aops-5056bc83")
	}
	if _, ok := entries[1]["worker_id"]; ok {
		t.Error("parent logger leaked child worker_id attribute")
	}
}

func TestWithIgnoresNonStringKeys(t *testing.T) {
	logger := NopLogger()
	child := logger.With(42, "value", "component", "refinery")

	if len(child.attrs) != 1 {
		t.Fatalf("got %d attrs, want 1", len(child.attrs))
	}
	if child.attrs[0].Key != "component" {
		t.Errorf("attr key = %q, want %q", child.attrs[0].Key, "component")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevels(t *testing.T) {
	levels := ValidLevels()
	if len(levels) != 4 {
		t.Fatalf("got %d levels, want 4", len(levels))
	}
	joined := strings.Join(levels, ",")
	for _, want := range []string{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if !strings.Contains(joined, want) {
			t.Errorf("ValidLevels() missing %q", want)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
