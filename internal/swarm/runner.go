package swarm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/polecat-sh/polecat/internal/errors"
	"github.com/polecat-sh/polecat/internal/logging"
)

// Agent is the kind of coding agent a worker runs.
type Agent string

// Supported agent kinds.
const (
	AgentClaude Agent = "claude"
	AgentGemini Agent = "gemini"
)

// WorkerSpec identifies one worker slot in the swarm.
type WorkerSpec struct {
	ID      string // e.g. "claude-1"
	Agent   Agent
	CPU     int // CPU index for pinning; -1 disables pinning
	Caller  string
	Project string
}

// CycleRunner runs one agent work cycle for a worker. A nil return means
// the agent exited cleanly and the worker may run another cycle; a
// *errors.WorkerError means the agent failed and the slot must stop.
type CycleRunner interface {
	RunCycle(ctx context.Context, spec WorkerSpec) error
}

// ExecRunner runs agent CLIs as subprocesses. The worker's identity and
// dispatch context travel in POLECAT_* environment variables; the agent
// CLI itself claims tasks through the polecat CLI.
type ExecRunner struct {
	ClaudeCommand string
	GeminiCommand string
	Home          string
	FrameworkRoot string
}

// RunCycle invokes the agent command once, blocking until it exits. On
// linux the process is pinned to the spec's CPU via taskset when a CPU is
// assigned; elsewhere the assignment is advisory through POLECAT_CPU.
func (r *ExecRunner) RunCycle(ctx context.Context, spec WorkerSpec) error {
	command := r.ClaudeCommand
	if spec.Agent == AgentGemini {
		command = r.GeminiCommand
	}
	if command == "" {
		return errors.NewWorkerError("no command configured for agent", nil).
			WithWorkerID(spec.ID).
			WithAgent(string(spec.Agent))
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "linux" && spec.CPU >= 0 {
		cmd = exec.CommandContext(ctx, "taskset", "-c", strconv.Itoa(spec.CPU), command)
	} else {
		cmd = exec.CommandContext(ctx, command)
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"POLECAT_WORKER_ID="+spec.ID,
		"POLECAT_AGENT="+string(spec.Agent),
		"POLECAT_CPU="+strconv.Itoa(spec.CPU),
		"POLECAT_CALLER="+spec.Caller,
		"POLECAT_PROJECT="+spec.Project,
		"POLECAT_HOME="+r.Home,
		"POLECAT_FRAMEWORK_ROOT="+r.FrameworkRoot,
	)

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return errors.NewWorkerError("agent run failed", err).
			WithWorkerID(spec.ID).
			WithAgent(string(spec.Agent)).
			WithExitCode(code)
	}
	return nil
}

// DryRunner logs what each cycle would execute without invoking anything.
type DryRunner struct {
	Log *logging.Logger
}

// RunCycle records the would-be invocation and returns success.
func (r *DryRunner) RunCycle(ctx context.Context, spec WorkerSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := r.Log
	if log == nil {
		log = logging.NopLogger()
	}
	log.Info("dry run: would start agent cycle",
		"worker_id", spec.ID,
		"agent", string(spec.Agent),
		"cpu", fmt.Sprint(spec.CPU),
	)
	return nil
}
