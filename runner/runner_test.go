// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/loadsweep/loadsweep/common"
)

func sh(name, script string) *Task {
	return &Task{Name: name, Args: []string{"/bin/sh", "-c", script}}
}

func needShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" || runtime.GOOS == "plan9" {
		t.Skipf("no POSIX shell on %s", runtime.GOOS)
	}
}

func TestRunSequence(t *testing.T) {
	needShell(t)
	dir := t.TempDir()

	t.Run("StopsOnFailure", func(t *testing.T) {
		r := &Runner{}
		results, err := r.Run(context.Background(), []*Task{
			sh("build", "exit 0"),
			sh("server", "exit 3"),
			sh("load", "touch "+filepath.Join(dir, "load-ran")),
		})
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			t.Fatalf("expected an exit error, got %v", err)
		}
		if !strings.Contains(err.Error(), `task "server"`) {
			t.Errorf("error does not name the task: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		if results[0].ExitCode != 0 || results[0].Err != nil {
			t.Errorf("build: %+v", results[0])
		}
		if results[1].ExitCode != 3 {
			t.Errorf("server exit code: got %d, want 3", results[1].ExitCode)
		}
		if _, err := os.Stat(filepath.Join(dir, "load-ran")); err == nil {
			t.Error("task after the failure was run")
		}
	})

	t.Run("AllowFailure", func(t *testing.T) {
		failing := sh("cd", "exit 1")
		failing.AllowFailure = true
		r := &Runner{}
		results, err := r.Run(context.Background(), []*Task{
			failing,
			sh("load", "exit 0"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		if results[0].ExitCode != 1 || results[0].Err == nil {
			t.Errorf("failure not recorded: %+v", results[0])
		}
	})
}

func TestDirAndEnv(t *testing.T) {
	needShell(t)
	dir := t.TempDir()
	env, err := common.NewEnvFromEnviron().Set("LOAD_CLIENTS=4")
	if err != nil {
		t.Fatal(err)
	}
	task := sh("load", `printf %s "$LOAD_CLIENTS" > clients`)
	task.Dir = dir
	task.Env = env

	if _, err := (&Runner{}).Run(context.Background(), []*Task{task}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "clients"))
	if err != nil {
		t.Fatalf("task did not run in its directory: %v", err)
	}
	if string(b) != "4" {
		t.Errorf("LOAD_CLIENTS: got %q, want %q", b, "4")
	}
}

func TestCapturedStderr(t *testing.T) {
	needShell(t)
	_, err := (&Runner{}).Run(context.Background(), []*Task{
		sh("server", "echo 'BUILD FAILED' >&2; exit 1"),
	})
	if err == nil || !strings.Contains(err.Error(), "BUILD FAILED") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) || !strings.Contains(string(ee.Stderr), "BUILD FAILED") {
		t.Errorf("stderr not attached to the exit error")
	}
}

func TestCommandNotFound(t *testing.T) {
	results, err := (&Runner{}).Run(context.Background(), []*Task{
		{Name: "missing", Args: []string{filepath.Join(t.TempDir(), "gradlew")}},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(results) != 1 || results[0].ExitCode != -1 {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestBackground(t *testing.T) {
	needShell(t)

	t.Run("StoppedAfterForeground", func(t *testing.T) {
		server := sh("server", "exec sleep 30")
		server.Background = true
		r := &Runner{StopTimeout: 5 * time.Second}
		start := time.Now()
		results, err := r.Run(context.Background(), []*Task{server, sh("load", "exit 0")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d := time.Since(start); d > 10*time.Second {
			t.Errorf("background task was not stopped promptly (%s)", d)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		if !results[0].Stopped || results[0].Err != nil {
			t.Errorf("server result: %+v", results[0])
		}
	})

	t.Run("KilledAfterTimeout", func(t *testing.T) {
		server := sh("server", `trap '' INT; while :; do sleep 0.1; done`)
		server.Background = true
		r := &Runner{StopTimeout: 200 * time.Millisecond}
		results, err := r.Run(context.Background(), []*Task{server, sh("load", "exit 0")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !results[0].Stopped || results[0].ExitCode != -1 {
			t.Errorf("server result: %+v", results[0])
		}
	})

	t.Run("FailsDuringSettle", func(t *testing.T) {
		dir := t.TempDir()
		server := sh("server", "exit 4")
		server.Background = true
		server.Settle = 10 * time.Second
		load := sh("load", "touch "+filepath.Join(dir, "load-ran"))
		start := time.Now()
		results, err := (&Runner{}).Run(context.Background(), []*Task{server, load})
		if err == nil || !strings.Contains(err.Error(), `background task "server"`) {
			t.Fatalf("expected background failure, got %v", err)
		}
		if time.Since(start) > 5*time.Second {
			t.Error("settle wait not cut short by the early exit")
		}
		if len(results) != 1 || results[0].ExitCode != 4 {
			t.Fatalf("unexpected results %+v", results)
		}
		if _, err := os.Stat(filepath.Join(dir, "load-ran")); err == nil {
			t.Error("load task ran against a dead server")
		}
	})
}

func TestContextCancel(t *testing.T) {
	needShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	results, err := (&Runner{StopTimeout: time.Second}).Run(ctx, []*Task{
		sh("load", "exec sleep 30"),
		sh("after", "exit 0"),
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestFromConfig(t *testing.T) {
	server, client := t.TempDir(), t.TempDir()
	cfg := common.DefaultConfig(server, client)
	cfg.Tasks[1].AllowFailure = true
	if err := cfg.Validate(server); err != nil {
		t.Fatal(err)
	}
	tasks, err := FromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if got := strings.Join(tasks[0].Args, " "); got != "./gradlew runIdeaServer" {
		t.Errorf("server args: %q", got)
	}
	if tasks[0].Dir != server || tasks[1].Dir != client {
		t.Errorf("dirs: %q, %q", tasks[0].Dir, tasks[1].Dir)
	}
	if !tasks[0].Background || tasks[0].Settle != 30*time.Second {
		t.Errorf("server task: %+v", tasks[0])
	}
	if tasks[1].Background || !tasks[1].AllowFailure || tasks[1].Env == nil {
		t.Errorf("load task: %+v", tasks[1])
	}
}

func TestParseLoadAvg(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.15 0.30 0.42 1/512 12345\n", 0.15, false},
		{"3.99 2.00 1.00 4/900 1", 3.99, false},
		{"", 0, true},
		{"high 0.1 0.1 1/1 1", 0, true},
	}
	for _, test := range tests {
		got, err := parseLoadAvg([]byte(test.in))
		if (err != nil) != test.wantErr {
			t.Errorf("parseLoadAvg(%q): unexpected error state %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("parseLoadAvg(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}
