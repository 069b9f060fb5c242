// Package launcher starts the auxiliary gopherlol server once and supervises
// it until it exits or the shell shuts down.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"gopherlol-shell/internal/procutil"
	"gopherlol-shell/internal/workerutil"

	"github.com/google/uuid"
)

// ErrAlreadyStarted is returned by Start after the first call.
var ErrAlreadyStarted = errors.New("server launcher already started")

const (
	// waitDelay bounds how long Wait keeps the output pipes open after the
	// process has been killed at shutdown.
	waitDelay = 2 * time.Second
	// maxLineBytes caps one line of child output; longer lines are split.
	maxLineBytes = 256 * 1024
)

var newRunIDFn = uuid.NewString

// State is the lifecycle phase of the server process.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateExited  State = "exited"
	StateFailed  State = "failed"
)

// Status is a snapshot of the server process lifecycle.
type Status struct {
	State     State     `json:"state"`
	RunID     string    `json:"run_id,omitempty"`
	PID       int       `json:"pid,omitempty"`
	ExitCode  int       `json:"exit_code"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	ExitedAt  time.Time `json:"exited_at,omitzero"`
}

// Options describes the process to launch.
type Options struct {
	Command string
	Args    []string
	// Dir is the working directory of the child.
	Dir string
	// Env entries are appended to the shell's own environment.
	Env []string
	// OnStatus observes every status transition. May be nil.
	OnStatus func(Status)
}

// Launcher owns the single server process of a shell run.
type Launcher struct {
	opts    Options
	started atomic.Bool

	mu     sync.Mutex
	status Status
}

// New creates a launcher. Nothing is spawned until Start.
func New(opts Options) *Launcher {
	opts.Args = append([]string(nil), opts.Args...)
	opts.Env = append([]string(nil), opts.Env...)
	return &Launcher{
		opts:   opts,
		status: Status{State: StateIdle},
	}
}

// Start spawns the server in a detached goroutine tracked by wg and returns
// immediately. Spawn and exit failures are logged and recorded in Status;
// they are never returned. Cancelling ctx kills the process tree.
func (l *Launcher) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	runID := newRunIDFn()
	workerutil.Go(ctx, "server-launcher", wg, func(ctx context.Context) {
		l.run(ctx, runID)
	}, func(err error) {
		l.setStatus(func(s *Status) {
			s.State = StateFailed
			s.Error = err.Error()
			s.ExitedAt = time.Now()
		})
	})
	return nil
}

// Status returns the current lifecycle snapshot.
func (l *Launcher) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Launcher) run(ctx context.Context, runID string) {
	logger := slog.With("runID", runID, "command", l.opts.Command)

	cmd := exec.CommandContext(ctx, l.opts.Command, l.opts.Args...)
	cmd.Dir = l.opts.Dir
	if len(l.opts.Env) > 0 {
		cmd.Env = append(os.Environ(), l.opts.Env...)
	}
	procutil.PrepareBackground(cmd)
	cmd.Cancel = func() error { return procutil.KillTree(cmd) }
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		l.fail(logger, runID, err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		l.fail(logger, runID, err)
		return
	}
	if err := cmd.Start(); err != nil {
		l.fail(logger, runID, err)
		return
	}

	pid := cmd.Process.Pid
	l.setStatus(func(s *Status) {
		*s = Status{State: StateRunning, RunID: runID, PID: pid, StartedAt: time.Now()}
	})
	logger.Info("[server] started", "pid", pid, "dir", l.opts.Dir)

	// All reads must finish before Wait closes the pipes.
	var streams sync.WaitGroup
	streams.Go(func() { logLines(logger, "stdout", stdout) })
	streams.Go(func() { logLines(logger, "stderr", stderr) })
	streams.Wait()

	waitErr := cmd.Wait()
	exitCode := cmd.ProcessState.ExitCode()
	l.setStatus(func(s *Status) {
		s.State = StateExited
		s.ExitCode = exitCode
		s.ExitedAt = time.Now()
		if waitErr != nil {
			s.Error = waitErr.Error()
		}
	})

	switch {
	case ctx.Err() != nil:
		logger.Info("[server] stopped with shell shutdown", "pid", pid)
	case waitErr != nil:
		logger.Warn("[server] exited with error", "pid", pid, "exitCode", exitCode, "error", waitErr)
	default:
		logger.Info("[server] exited", "pid", pid)
	}
}

func (l *Launcher) fail(logger *slog.Logger, runID string, err error) {
	logger.Error("[server] failed to start", "dir", l.opts.Dir, "error", err)
	l.setStatus(func(s *Status) {
		*s = Status{State: StateFailed, RunID: runID, ExitCode: -1, Error: err.Error(), ExitedAt: time.Now()}
	})
}

func (l *Launcher) setStatus(update func(*Status)) {
	l.mu.Lock()
	update(&l.status)
	snapshot := l.status
	l.mu.Unlock()

	if l.opts.OnStatus != nil {
		l.opts.OnStatus(snapshot)
	}
}

func logLines(logger *slog.Logger, stream string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		logger.Info("[server] "+scanner.Text(), "stream", stream)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.Debug("[server] output stream ended", "stream", stream, "error", err)
	}
}
