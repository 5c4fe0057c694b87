package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/polecat-sh/polecat/internal/config"
	"github.com/polecat-sh/polecat/internal/task"
)

func execCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func setupTestConfig(t *testing.T) (tasksDir, home string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	home = t.TempDir()
	tasksDir = t.TempDir()
	config.SetDefaults()
	viper.Set("paths.home", home)
	viper.Set("paths.tasks", tasksDir)
	return tasksDir, home
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"start", "checkout", "prompt", "done", "nuke", "list", "swarm", "refinery"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestDoneMarksMergeReady(t *testing.T) {
	tasksDir, _ := setupTestConfig(t)

	store, err := task.NewStore(tasksDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(&task.Task{ID: "aops-fin1", Title: "t", Status: task.StatusInProgress}); err != nil {
		t.Fatal(err)
	}

	out, err := execCommand(t, "done", "aops-fin1")
	if err != nil {
		t.Fatalf("done failed: %v\n%s", err, out)
	}

	got, err := store.Get("aops-fin1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != task.StatusMergeReady {
		t.Errorf("status = %q, want merge_ready", got.Status)
	}
}

func TestPromptRendersTaskWithDeps(t *testing.T) {
	tasksDir, _ := setupTestConfig(t)

	store, err := task.NewStore(tasksDir)
	if err != nil {
		t.Fatal(err)
	}
	save := func(tk *task.Task) {
		t.Helper()
		if err := store.Save(tk); err != nil {
			t.Fatal(err)
		}
	}
	save(&task.Task{ID: "aops-dep1", Title: "schema", Status: task.StatusDone, Body: "tables created"})
	save(&task.Task{
		ID: "aops-api1", Title: "build api", Status: task.StatusInProgress,
		Body:     "expose the endpoints",
		SoftDeps: []string{"aops-dep1", "aops-gone"},
	})

	out, err := execCommand(t, "prompt", "aops-api1", "--caller", "refinery")
	if err != nil {
		t.Fatalf("prompt failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"# Task aops-api1: build api",
		"expose the endpoints",
		"aops-dep1",
		"tables created",
		"Dispatched by: refinery",
		"polecat done aops-api1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt output missing %q", want)
		}
	}
}

func TestPromptIssueOmitsDoneInstruction(t *testing.T) {
	tasksDir, _ := setupTestConfig(t)

	store, err := task.NewStore(tasksDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(&task.Task{ID: "aops-iss1", Title: "t", Status: task.StatusInProgress}); err != nil {
		t.Fatal(err)
	}

	out, err := execCommand(t, "prompt", "aops-iss1", "--issue")
	if err != nil {
		t.Fatalf("prompt failed: %v\n%s", err, out)
	}
	if strings.Contains(out, "polecat done") {
		t.Error("issue prompt contains mark-complete instruction")
	}
}

func TestDoneUnknownTask(t *testing.T) {
	setupTestConfig(t)

	if _, err := execCommand(t, "done", "aops-missing"); err == nil {
		t.Error("done with unknown task succeeded, want error")
	}
}

func TestListEmptyHome(t *testing.T) {
	setupTestConfig(t)

	out, err := execCommand(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "no active worktrees") {
		t.Errorf("output = %q", out)
	}
}

func TestNukeRejectsInvalidID(t *testing.T) {
	setupTestConfig(t)

	if _, err := execCommand(t, "nuke", "../etc/passwd"); err == nil {
		t.Error("nuke with traversal id succeeded, want error")
	}
}
