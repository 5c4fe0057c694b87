// Package prompt assembles the work prompt handed to a coding agent when it
// picks up a task. Building a prompt is pure: no I/O, no clock, just the
// task, its dependency context, and options in, one string out.
package prompt

import (
	"fmt"
	"strings"

	"github.com/polecat-sh/polecat/internal/task"
)

// DepBodyLimit caps how much of a dependency's body is embedded in the
// prompt. Longer bodies are cut and marked so the agent knows context is
// incomplete.
const DepBodyLimit = 2000

// truncationMarker is appended to dependency bodies cut at DepBodyLimit.
const truncationMarker = "[... truncated]"

// Options controls prompt assembly.
type Options struct {
	// IsIssue marks tasks mirrored from an external issue tracker. The
	// closing instructions differ: completion is inferred from commit
	// history instead of an explicit mark-complete call.
	IsIssue bool
	// Caller identifies who dispatched the work, for attribution in the
	// prompt preamble. Optional.
	Caller string
}

// Build renders the work prompt for t. Only dependencies whose status is
// done are included; their bodies are truncated at DepBodyLimit.
func Build(t *task.Task, deps []*task.Task, opts Options) string {
	var b strings.Builder

	b.WriteString("You are an autonomous coding agent working on the following task.\n")
	if opts.Caller != "" {
		b.WriteString(fmt.Sprintf("Dispatched by: %s\n", opts.Caller))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("# Task %s: %s\n\n", t.ID, t.Title))

	writeMetadata(&b, t)

	if t.Body != "" {
		b.WriteString("## Description\n\n")
		b.WriteString(strings.TrimRight(t.Body, "\n"))
		b.WriteString("\n\n")
	}

	writeDeps(&b, deps)
	writeClosing(&b, t, opts)

	return b.String()
}

func writeMetadata(b *strings.Builder, t *task.Task) {
	b.WriteString("## Metadata\n\n")
	if t.Project != "" {
		b.WriteString(fmt.Sprintf("- Project: %s\n", t.Project))
	}
	if t.Type != "" {
		b.WriteString(fmt.Sprintf("- Type: %s\n", t.Type))
	}
	if t.Parent != "" {
		b.WriteString(fmt.Sprintf("- Parent: %s\n", t.Parent))
	}
	b.WriteString(fmt.Sprintf("- Priority: %d\n", t.Priority))
	if len(t.Tags) > 0 {
		b.WriteString(fmt.Sprintf("- Tags: %s\n", strings.Join(t.Tags, ", ")))
	}
	b.WriteString("\n")
}

// writeDeps embeds completed dependencies as context. Unfinished
// dependencies are soft, so they are omitted rather than summarized.
func writeDeps(b *strings.Builder, deps []*task.Task) {
	var done []*task.Task
	for _, d := range deps {
		if d.Status == task.StatusDone {
			done = append(done, d)
		}
	}
	if len(done) == 0 {
		return
	}

	b.WriteString("## Completed dependencies\n\n")
	for _, d := range done {
		b.WriteString(fmt.Sprintf("### %s: %s\n\n", d.ID, d.Title))
		body := strings.TrimRight(d.Body, "\n")
		if len(body) > DepBodyLimit {
			body = body[:DepBodyLimit] + " " + truncationMarker
		}
		if body != "" {
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}
}

func writeClosing(b *strings.Builder, t *task.Task, opts Options) {
	b.WriteString("## When you are done\n\n")
	b.WriteString("Commit your work with clear messages. ")
	if opts.IsIssue {
		b.WriteString("This task tracks an external issue: do NOT mark it " +
			"complete yourself. Completion is inferred from your commit history.\n")
	} else {
		b.WriteString(fmt.Sprintf("Then mark the task complete by running:\n\n"+
			"    polecat done %s\n", t.ID))
	}
}
