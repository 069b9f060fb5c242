package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gopherlol-shell/internal/testutil"
)

const helperEnv = "GOPHERLOL_SHELL_WANT_HELPER"

// TestHelperProcess is not a real test. It is the child process spawned by
// the launcher tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	switch os.Getenv("HELPER_MODE") {
	case "echo":
		fmt.Println("listening on :8080")
		fmt.Fprintln(os.Stderr, "warming up")
	case "fail":
		os.Exit(3)
	case "sleep":
		time.Sleep(time.Minute)
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Println("wd=" + wd)
	}
	os.Exit(0)
}

func helperOptions(mode string) Options {
	return Options{
		Command: os.Args[0],
		Args:    []string{"-test.run=^TestHelperProcess$", "--"},
		Env:     []string{helperEnv + "=1", "HELPER_MODE=" + mode},
	}
}

func waitGroupDone(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("launcher did not finish within %v", timeout)
	}
}

func TestStartRunsProcessOnceAndLogsOutput(t *testing.T) {
	buf := testutil.CaptureLogBuffer(t, slog.LevelInfo)

	var (
		seenMu sync.Mutex
		seen   []State
	)
	opts := helperOptions("echo")
	opts.OnStatus = func(s Status) {
		seenMu.Lock()
		seen = append(seen, s.State)
		seenMu.Unlock()
	}
	l := New(opts)
	if got := l.Status().State; got != StateIdle {
		t.Fatalf("initial state = %q, want %q", got, StateIdle)
	}

	var wg sync.WaitGroup
	if err := l.Start(context.Background(), &wg); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitGroupDone(t, &wg, 30*time.Second)

	st := l.Status()
	if st.State != StateExited {
		t.Fatalf("state = %q, want %q", st.State, StateExited)
	}
	if st.ExitCode != 0 || st.Error != "" {
		t.Fatalf("exit = %d %q, want clean exit", st.ExitCode, st.Error)
	}
	if st.PID == 0 || st.RunID == "" {
		t.Fatalf("status missing pid/run id: %+v", st)
	}
	if st.StartedAt.IsZero() || st.ExitedAt.Before(st.StartedAt) {
		t.Fatalf("timestamps out of order: %+v", st)
	}

	seenMu.Lock()
	gotSeen := append([]State(nil), seen...)
	seenMu.Unlock()
	if len(gotSeen) != 2 || gotSeen[0] != StateRunning || gotSeen[1] != StateExited {
		t.Fatalf("status transitions = %v, want [running exited]", gotSeen)
	}

	logs := buf.String()
	for _, want := range []string{"[server] started", "listening on :8080", "warming up", "[server] exited"} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %q:\n%s", want, logs)
		}
	}
}

func TestStartTwiceReturnsErrAlreadyStarted(t *testing.T) {
	testutil.CaptureLogBuffer(t, slog.LevelInfo)

	l := New(helperOptions("echo"))
	var wg sync.WaitGroup
	if err := l.Start(context.Background(), &wg); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := l.Start(context.Background(), &wg); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
	waitGroupDone(t, &wg, 30*time.Second)
}

func TestSpawnFailureIsLoggedNotReturned(t *testing.T) {
	buf := testutil.CaptureLogBuffer(t, slog.LevelInfo)

	l := New(Options{Command: filepath.Join(t.TempDir(), "no-such-binary")})
	var wg sync.WaitGroup
	if err := l.Start(context.Background(), &wg); err != nil {
		t.Fatalf("Start() error = %v, spawn failures must not be returned", err)
	}
	waitGroupDone(t, &wg, 10*time.Second)

	st := l.Status()
	if st.State != StateFailed {
		t.Fatalf("state = %q, want %q", st.State, StateFailed)
	}
	if st.Error == "" || st.ExitCode != -1 {
		t.Fatalf("failed status = %+v, want error and exit code -1", st)
	}
	if !strings.Contains(buf.String(), "[server] failed to start") {
		t.Fatalf("spawn failure was not logged:\n%s", buf.String())
	}
}

func TestSpawnFailureInMissingDir(t *testing.T) {
	testutil.CaptureLogBuffer(t, slog.LevelInfo)

	opts := helperOptions("echo")
	opts.Dir = filepath.Join(t.TempDir(), "missing")
	l := New(opts)
	var wg sync.WaitGroup
	if err := l.Start(context.Background(), &wg); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitGroupDone(t, &wg, 10*time.Second)

	if got := l.Status().State; got != StateFailed {
		t.Fatalf("state = %q, want %q", got, StateFailed)
	}
}

func TestNonZeroExitIsRecorded(t *testing.T) {
	buf := testutil.CaptureLogBuffer(t, slog.LevelInfo)

	l := New(helperOptions("fail"))
	var wg sync.WaitGroup
	if err := l.Start(context.Background(), &wg); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitGroupDone(t, &wg, 30*time.Second)

	st := l.Status()
	if st.State != StateExited || st.ExitCode != 3 {
		t.Fatalf("status = %+v, want exited with code 3", st)
	}
	if !strings.Contains(buf.String(), "[server] exited with error") {
		t.Fatalf("non-zero exit was not logged:\n%s", buf.String())
	}
}

func TestProcessRunsInConfiguredDir(t *testing.T) {
	buf := testutil.CaptureLogBuffer(t, slog.LevelInfo)

	dir := t.TempDir()
	opts := helperOptions("pwd")
	opts.Dir = dir
	l := New(opts)
	var wg sync.WaitGroup
	if err := l.Start(context.Background(), &wg); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitGroupDone(t, &wg, 30*time.Second)

	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	logs := buf.String()
	if !strings.Contains(logs, "wd="+want) && !strings.Contains(logs, "wd="+dir) {
		t.Fatalf("child did not run in %q:\n%s", dir, logs)
	}
}

func TestCancelKillsProcess(t *testing.T) {
	buf := testutil.CaptureLogBuffer(t, slog.LevelInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	running := make(chan struct{}, 1)
	opts := helperOptions("sleep")
	opts.OnStatus = func(s Status) {
		if s.State == StateRunning {
			running <- struct{}{}
		}
	}
	l := New(opts)
	var wg sync.WaitGroup
	if err := l.Start(ctx, &wg); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-running:
	case <-time.After(30 * time.Second):
		t.Fatal("server never reached running state")
	}
	cancel()
	waitGroupDone(t, &wg, 15*time.Second)

	if got := l.Status().State; got != StateExited {
		t.Fatalf("state = %q, want %q", got, StateExited)
	}
	if !strings.Contains(buf.String(), "[server] stopped with shell shutdown") {
		t.Fatalf("shutdown stop was not logged:\n%s", buf.String())
	}
}

func TestNewCopiesSlices(t *testing.T) {
	args := []string{"run", "."}
	l := New(Options{Command: "go", Args: args})
	args[0] = "mutated"
	if l.opts.Args[0] != "run" {
		t.Fatalf("Args aliased caller slice: %v", l.opts.Args)
	}
}
