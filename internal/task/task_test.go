package task

import (
	"strings"
	"testing"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	orig := &Task{
		ID:       "aops-5056bc83",
		Title:    "Fix the widget frobnicator",
		Type:     "bug",
		Status:   StatusQueue,
		Assignee: "claude-1",
		Project:  "widgets",
		Priority: 1,
		Tags:     []string{"backend", "urgent"},
		Parent:   "aops-epic01",
		SoftDeps: []string{"aops-dep01", "aops-dep02"},
		Body:     "The frobnicator widget is broken.\n\nSteps:\n1. frob\n2. observe",
	}

	data, err := orig.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if got.ID != orig.ID || got.Title != orig.Title || got.Status != orig.Status {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.Priority != 1 || got.Parent != orig.Parent || got.Project != orig.Project {
		t.Errorf("metadata mismatch: got %+v", got)
	}
	if len(got.SoftDeps) != 2 || got.SoftDeps[0] != "aops-dep01" {
		t.Errorf("soft deps mismatch: got %v", got.SoftDeps)
	}
	if strings.TrimRight(got.Body, "\n") != orig.Body {
		t.Errorf("body mismatch:\ngot  %q\nwant %q", got.Body, orig.Body)
	}
}

func TestMarshalEmptyBody(t *testing.T) {
	orig := &Task{ID: "aops-empty1", Title: "No body", Status: StatusInbox}

	data, err := orig.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Body != "" {
		t.Errorf("Body = %q, want empty", got.Body)
	}
}

func TestUnmarshalHandWritten(t *testing.T) {
	raw := `---
id: aops-manual1
title: Hand-written task
status: merge_ready
priority: 2
soft_deps:
  - aops-dep01
---

Body written by a human.

With multiple paragraphs.
`
	got, err := Unmarshal([]byte(raw))
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.ID != "aops-manual1" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Status != StatusMergeReady {
		t.Errorf("Status = %q, want merge_ready", got.Status)
	}
	if !strings.Contains(got.Body, "multiple paragraphs") {
		t.Errorf("Body = %q", got.Body)
	}
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no frontmatter", "just some markdown\n"},
		{"unclosed frontmatter", "---\nid: aops-x1\n"},
		{"missing id", "---\ntitle: nope\nstatus: queue\n---\n"},
		{"unknown status", "---\nid: aops-x1\nstatus: exploded\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.raw)); err == nil {
				t.Error("Unmarshal succeeded, want error")
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, st := range []Status{
		StatusInbox, StatusQueue, StatusActive, StatusInProgress,
		StatusMergeReady, StatusMerging, StatusDone, StatusReview,
		StatusBlocked, StatusArchived,
	} {
		if !st.Valid() {
			t.Errorf("Status %q should be valid", st)
		}
	}
	if Status("exploded").Valid() {
		t.Error(`Status "exploded" should be invalid`)
	}
}
