// Package swarm supervises a fleet of agent workers. Each worker owns a
// slot in the fleet and loops: run one agent cycle, pause, check drain,
// repeat. Clean exits restart; failures alert an operator and permanently
// stop the slot.
package swarm

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"

	"github.com/polecat-sh/polecat/internal/logging"
)

// DrainFileName is the file an operator touches in the worker home to
// request a drain without signaling the process.
const DrainFileName = "polecat.drain"

// AlertNotifier delivers operator alerts on worker failure.
type AlertNotifier interface {
	Notify(title, message string)
}

// Options configures a Supervisor.
type Options struct {
	ClaudeCount   int
	GeminiCount   int
	Caller        string
	Project       string
	Home          string
	GeminiStagger time.Duration
	CyclePause    time.Duration
	DryRun        bool

	Runner   CycleRunner
	Affinity AffinityProvider
	Log      *logging.Logger
	Notifier AlertNotifier

	// Sleep is injectable for tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Supervisor runs and supervises the worker fleet. All state lives on the
// struct; two supervisors never interfere through shared globals.
type Supervisor struct {
	opts     Options
	sleep    func(time.Duration)
	log      *logging.Logger
	draining atomic.Bool
}

// New creates a Supervisor. Missing optional dependencies get working
// defaults.
func New(opts Options) *Supervisor {
	if opts.Affinity == nil {
		opts.Affinity = DefaultProvider()
	}
	if opts.Log == nil {
		opts.Log = logging.NopLogger()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Supervisor{
		opts:  opts,
		sleep: sleep,
		log:   opts.Log.WithComponent("swarm"),
	}
}

// Drain requests a graceful wind-down: workers finish their current cycle
// and do not start another.
func (s *Supervisor) Drain() {
	if s.draining.CompareAndSwap(false, true) {
		s.log.Info("drain requested")
	}
}

// Draining reports whether a drain is in progress.
func (s *Supervisor) Draining() bool {
	return s.draining.Load()
}

// Run spawns the fleet and blocks until every worker has exited. Gemini
// workers are staggered to avoid thundering-herd quota errors: the first
// starts immediately, each subsequent start waits the configured stagger.
// Stagger is skipped entirely when zero or in dry-run mode.
func (s *Supervisor) Run(ctx context.Context) error {
	specs := s.buildSpecs()
	if len(specs) == 0 {
		return fmt.Errorf("no workers requested")
	}

	s.log.Info("swarm starting",
		"claude", s.opts.ClaudeCount,
		"gemini", s.opts.GeminiCount,
		"dry_run", s.opts.DryRun,
	)

	var wg conc.WaitGroup
	geminiStarted := 0
	for _, spec := range specs {
		if spec.Agent == AgentGemini {
			if geminiStarted > 0 && s.opts.GeminiStagger > 0 && !s.opts.DryRun {
				s.sleep(s.opts.GeminiStagger)
			}
			geminiStarted++
		}
		spec := spec
		wg.Go(func() {
			s.runWorker(ctx, spec)
		})
	}
	wg.Wait()

	s.log.Info("swarm dispersed")
	return nil
}

// buildSpecs lays out worker slots with round-robin CPU assignment.
func (s *Supervisor) buildSpecs() []WorkerSpec {
	cpus := s.opts.Affinity.CPUs()

	var specs []WorkerSpec
	add := func(agent Agent, count int) {
		for i := 1; i <= count; i++ {
			cpu := -1
			if len(cpus) > 0 {
				cpu = cpus[len(specs)%len(cpus)]
			}
			specs = append(specs, WorkerSpec{
				ID:      fmt.Sprintf("%s-%d", agent, i),
				Agent:   agent,
				CPU:     cpu,
				Caller:  s.opts.Caller,
				Project: s.opts.Project,
			})
		}
	}
	add(AgentClaude, s.opts.ClaudeCount)
	add(AgentGemini, s.opts.GeminiCount)
	return specs
}

// runWorker is one slot's supervision loop.
func (s *Supervisor) runWorker(ctx context.Context, spec WorkerSpec) {
	log := s.log.WithWorker(spec.ID)
	log.Info("worker starting", "agent", string(spec.Agent), "cpu", spec.CPU)

	for {
		if s.Draining() {
			log.Info("worker draining before cycle")
			return
		}
		if ctx.Err() != nil {
			return
		}

		if err := s.opts.Runner.RunCycle(ctx, spec); err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopped by shutdown")
				return
			}
			log.Error("worker failed, stopping slot permanently", "error", err.Error())
			if s.opts.Notifier != nil {
				s.opts.Notifier.Notify("polecat worker stopped",
					fmt.Sprintf("%s: %v", spec.ID, err))
			}
			return
		}

		if s.opts.DryRun {
			return
		}

		// Safety pause between cycles so a crash-looping agent cannot
		// hammer the queue.
		s.sleep(s.opts.CyclePause)

		if s.Draining() {
			log.Info("worker drained after cycle")
			return
		}
	}
}

// WatchSignals installs the interrupt handler: the first SIGINT/SIGTERM
// drains, a second force-kills workers by canceling their context. The
// returned stop function removes the handler.
func (s *Supervisor) WatchSignals(cancel context.CancelFunc) (stop func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		first := true
		for range ch {
			if first {
				first = false
				s.log.Info("interrupt received, draining (interrupt again to force-kill)")
				s.Drain()
				continue
			}
			s.log.Warn("second interrupt, force-killing workers")
			cancel()
			return
		}
	}()

	return func() { signal.Stop(ch) }
}

// WatchDrainFile watches the worker home for the drain file and requests a
// drain when it appears. An already-present file drains immediately. The
// watcher shuts down with ctx.
func (s *Supervisor) WatchDrainFile(ctx context.Context) error {
	drainPath := filepath.Join(s.opts.Home, DrainFileName)
	if _, err := os.Stat(drainPath); err == nil {
		s.log.Info("drain file present at startup", "path", drainPath)
		s.Drain()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create drain watcher: %w", err)
	}
	if err := watcher.Add(s.opts.Home); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch worker home: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == drainPath && event.Op.Has(fsnotify.Create|fsnotify.Write) {
					s.log.Info("drain file detected", "path", drainPath)
					s.Drain()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("drain watcher error", "error", err.Error())
			}
		}
	}()
	return nil
}
