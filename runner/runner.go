// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner executes the external commands of a load session: long
// running services in the background, and the steps that drive them in the
// foreground.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loadsweep/loadsweep/common"
	"github.com/loadsweep/loadsweep/common/log"
)

// DefaultStopTimeout is how long a background task gets to exit after being
// interrupted before it is killed.
const DefaultStopTimeout = 10 * time.Second

type Task struct {
	Name string

	// Args is the command and its arguments. It is executed directly,
	// not through a shell.
	Args []string

	// Dir is the working directory. Empty means the current one.
	Dir string

	// Env is the complete environment. Nil means the process environment.
	Env *common.Env

	// Background tasks are started and left running until all foreground
	// tasks have finished, then interrupted.
	Background bool

	// Settle is how long to wait after starting a background task before
	// moving on to the next task.
	Settle time.Duration

	// AllowFailure records a failure of the task without stopping the
	// session.
	AllowFailure bool
}

type Result struct {
	Name string

	// ExitCode is the exit status, or -1 if the process could not be
	// started or was terminated by a signal.
	ExitCode int

	Duration time.Duration

	// Stopped is set for background tasks that were interrupted by the
	// runner. Their exit status is not a failure.
	Stopped bool

	// Err is the reason the task failed, nil on success.
	Err error
}

type Runner struct {
	// Stdout and Stderr receive the output of every task. If Stderr is
	// nil, standard error is captured and attached to failures instead.
	Stdout, Stderr io.Writer

	// StopTimeout bounds the wait for an interrupted task to exit.
	// Zero means DefaultStopTimeout.
	StopTimeout time.Duration
}

// FromConfig builds the task list described by a validated config.
func FromConfig(cfg *common.Config) ([]*Task, error) {
	tasks := make([]*Task, 0, len(cfg.Tasks))
	for _, tc := range cfg.Tasks {
		args, err := tc.Args()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, &Task{
			Name:         tc.Name,
			Args:         args,
			Dir:          cfg.TaskDir(tc),
			Env:          tc.Env.Env,
			Background:   tc.Background,
			Settle:       time.Duration(tc.Settle),
			AllowFailure: tc.AllowFailure,
		})
	}
	return tasks, nil
}

func (r *Runner) stopTimeout() time.Duration {
	if r.StopTimeout > 0 {
		return r.StopTimeout
	}
	return DefaultStopTimeout
}

// configure applies t to cmd and returns the buffer capturing standard
// error, if any.
func (r *Runner) configure(cmd *exec.Cmd, t *Task) *bytes.Buffer {
	cmd.Dir = t.Dir
	if t.Env != nil {
		cmd.Env = t.Env.Collapse()
	}
	setProcessGroup(cmd)
	cmd.Stdout = r.Stdout
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
		return nil
	}
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	return stderr
}

// exitError attaches captured stderr to a failed command's error.
func exitError(err error, stderr *bytes.Buffer) error {
	var ee *exec.ExitError
	if errors.As(err, &ee) && stderr != nil && stderr.Len() != 0 {
		ee.Stderr = stderr.Bytes()
		return fmt.Errorf("%w. stderr:\n%s", err, stderr)
	}
	return err
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

func (r *Runner) runForeground(ctx context.Context, t *Task) *Result {
	res := &Result{Name: t.Name, ExitCode: -1}
	if len(t.Args) == 0 {
		res.Err = fmt.Errorf("empty command")
		return res
	}
	cmd := exec.CommandContext(ctx, t.Args[0], t.Args[1:]...)
	cmd.Cancel = func() error {
		log.TraceKill(cmd, "SIGINT")
		return interrupt(cmd)
	}
	cmd.WaitDelay = r.stopTimeout()
	stderr := r.configure(cmd, t)
	log.TraceCommand(cmd, false)
	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.ExitCode = exitCode(cmd)
	if err != nil {
		res.Err = exitError(err, stderr)
	}
	return res
}

// process is a running background task.
type process struct {
	task    *Task
	cmd     *exec.Cmd
	stderr  *bytes.Buffer
	start   time.Time
	res     *Result
	stopped atomic.Bool
	done    chan struct{}
}

func (r *Runner) startBackground(t *Task) (*process, error) {
	if len(t.Args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	cmd := exec.Command(t.Args[0], t.Args[1:]...)
	stderr := r.configure(cmd, t)
	log.TraceCommand(cmd, true)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &process{
		task:   t,
		cmd:    cmd,
		stderr: stderr,
		start:  time.Now(),
		res:    &Result{Name: t.Name, ExitCode: -1},
		done:   make(chan struct{}),
	}, nil
}

// wait reaps the process and fills in its result. It reports an error only
// if the task failed on its own and failures are not allowed.
func (p *process) wait() error {
	defer close(p.done)
	err := p.cmd.Wait()
	p.res.Duration = time.Since(p.start)
	p.res.ExitCode = exitCode(p.cmd)
	if p.stopped.Load() {
		p.res.Stopped = true
		return nil
	}
	if err == nil {
		log.Printf("background task %s exited before the session ended", p.task.Name)
		return nil
	}
	p.res.Err = exitError(err, p.stderr)
	if p.task.AllowFailure {
		log.Printf("background task %s failed (ignored): %v", p.task.Name, err)
		return nil
	}
	return fmt.Errorf("background task %q: %w", p.task.Name, p.res.Err)
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// stop interrupts every background process still running, escalating to a
// kill for those that outlive the stop timeout.
func (r *Runner) stop(procs []*process) {
	var live []*process
	for _, p := range procs {
		if p.exited() {
			continue
		}
		p.stopped.Store(true)
		log.TraceKill(p.cmd, "SIGINT")
		if err := interrupt(p.cmd); err != nil {
			log.Printf("interrupting %s: %v", p.task.Name, err)
		}
		live = append(live, p)
	}
	deadline := time.After(r.stopTimeout())
	for _, p := range live {
		select {
		case <-p.done:
		case <-deadline:
			for _, q := range live {
				if q.exited() {
					continue
				}
				log.TraceKill(q.cmd, "SIGKILL")
				if err := kill(q.cmd); err != nil {
					log.Printf("killing %s: %v", q.task.Name, err)
				}
			}
			return
		}
	}
}

// Run executes tasks in order and returns one Result per task that was
// started, in task order.
//
// A failing foreground task ends the session unless it allows failure.
// Either way, background tasks are interrupted once the foreground tasks are
// done and are reaped before Run returns.
func (r *Runner) Run(ctx context.Context, tasks []*Task) ([]*Result, error) {
	var (
		results []*Result
		procs   []*process
		runErr  error
		g       errgroup.Group
	)
loop:
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if t.Background {
			p, err := r.startBackground(t)
			if err != nil {
				results = append(results, &Result{Name: t.Name, ExitCode: -1, Err: err})
				runErr = fmt.Errorf("starting task %q: %w", t.Name, err)
				break
			}
			log.Printf("Started %s (pid %d)", t.Name, p.cmd.Process.Pid)
			results = append(results, p.res)
			procs = append(procs, p)
			g.Go(p.wait)
			if t.Settle > 0 {
				log.CommandPrintf("sleep %g", t.Settle.Seconds())
				settle := time.NewTimer(t.Settle)
				select {
				case <-settle.C:
				case <-p.done:
					settle.Stop()
					// wait has already returned the error to
					// the group; don't start the next task.
					if p.res.Err != nil && !t.AllowFailure {
						break loop
					}
				case <-ctx.Done():
					settle.Stop()
					runErr = ctx.Err()
					break loop
				}
			}
			continue
		}

		log.Printf("Running %s", t.Name)
		res := r.runForeground(ctx, t)
		results = append(results, res)
		if res.Err == nil {
			log.Printf("%s finished in %s", t.Name, res.Duration.Round(time.Millisecond))
			continue
		}
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("task %q: %w", t.Name, err)
			break
		}
		if t.AllowFailure {
			log.Printf("%s failed with exit status %d (ignored)", t.Name, res.ExitCode)
			continue
		}
		runErr = fmt.Errorf("task %q: %w", t.Name, res.Err)
		break
	}

	r.stop(procs)
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return results, runErr
}
