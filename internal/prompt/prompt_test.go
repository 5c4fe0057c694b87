package prompt

import (
	"strings"
	"testing"

	"github.com/polecat-sh/polecat/internal/task"
)

func baseTask() *task.Task {
	return &task.Task{
		ID:       "aops-5056bc83",
		Title:    "Fix the widget frobnicator",
		Type:     "bug",
		Status:   task.StatusInProgress,
		Project:  "widgets",
		Priority: 1,
		Tags:     []string{"backend"},
		Parent:   "aops-epic01",
		Body:     "The frobnicator is broken.\nRepro steps attached.",
	}
}

func TestBuildEmbedsTaskLiterally(t *testing.T) {
	got := Build(baseTask(), nil, Options{})

	for _, want := range []string{
		"aops-5056bc83",
		"Fix the widget frobnicator",
		"The frobnicator is broken.\nRepro steps attached.",
		"Project: widgets",
		"Type: bug",
		"Parent: aops-epic01",
		"Priority: 1",
		"Tags: backend",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\n---\n%s", want, got)
		}
	}
}

func TestBuildIsPure(t *testing.T) {
	a := Build(baseTask(), nil, Options{Caller: "swarm"})
	b := Build(baseTask(), nil, Options{Caller: "swarm"})
	if a != b {
		t.Error("Build is not deterministic for identical inputs")
	}
}

func TestBuildOnlyDoneDeps(t *testing.T) {
	deps := []*task.Task{
		{ID: "aops-dep-done", Title: "Done dep", Status: task.StatusDone, Body: "finished work"},
		{ID: "aops-dep-open", Title: "Open dep", Status: task.StatusQueue, Body: "unfinished work"},
		{ID: "aops-dep-rev", Title: "Review dep", Status: task.StatusReview, Body: "kicked back"},
	}

	got := Build(baseTask(), deps, Options{})

	if !strings.Contains(got, "aops-dep-done") || !strings.Contains(got, "finished work") {
		t.Error("prompt missing done dependency")
	}
	for _, absent := range []string{"aops-dep-open", "unfinished work", "aops-dep-rev", "kicked back"} {
		if strings.Contains(got, absent) {
			t.Errorf("prompt includes non-done dependency content %q", absent)
		}
	}
}

func TestBuildNoDepsSection(t *testing.T) {
	deps := []*task.Task{
		{ID: "aops-dep-open", Status: task.StatusQueue, Body: "unfinished"},
	}
	got := Build(baseTask(), deps, Options{})
	if strings.Contains(got, "Completed dependencies") {
		t.Error("deps section present with no done deps")
	}
}

func TestBuildTruncatesLongDepBody(t *testing.T) {
	long := strings.Repeat("x", DepBodyLimit+500)
	deps := []*task.Task{
		{ID: "aops-dep-long", Title: "Long dep", Status: task.StatusDone, Body: long},
	}

	got := Build(baseTask(), deps, Options{})

	if !strings.Contains(got, "[... truncated]") {
		t.Error("truncation marker missing")
	}
	if strings.Contains(got, long) {
		t.Error("full dependency body embedded despite limit")
	}
	if !strings.Contains(got, strings.Repeat("x", DepBodyLimit)) {
		t.Error("truncated body should keep the first DepBodyLimit characters")
	}
}

func TestBuildShortDepBodyNotTruncated(t *testing.T) {
	deps := []*task.Task{
		{ID: "aops-dep-ok", Title: "Short dep", Status: task.StatusDone, Body: "short body"},
	}
	got := Build(baseTask(), deps, Options{})
	if strings.Contains(got, "[... truncated]") {
		t.Error("truncation marker present for short body")
	}
}

func TestBuildClosingInstructions(t *testing.T) {
	local := Build(baseTask(), nil, Options{IsIssue: false})
	if !strings.Contains(local, "polecat done aops-5056bc83") {
		t.Error("local task prompt missing mark-complete instruction")
	}

	issue := Build(baseTask(), nil, Options{IsIssue: true})
	if strings.Contains(issue, "polecat done") {
		t.Error("issue task prompt must not instruct a mark-complete call")
	}
	if !strings.Contains(issue, "commit history") {
		t.Error("issue task prompt missing commit-history instruction")
	}
}

func TestBuildCaller(t *testing.T) {
	got := Build(baseTask(), nil, Options{Caller: "swarm/claude-1"})
	if !strings.Contains(got, "Dispatched by: swarm/claude-1") {
		t.Error("prompt missing caller attribution")
	}
}
