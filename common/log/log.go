// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log carries loadsweep's two output streams: a trace of every
// command issued, written as an equivalent shell transcript, and a log of
// what the tool itself is doing.
package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

var (
	cmdLog, actLog *log.Logger
	cmdOn, actOn   = false, true
	baseEnv        map[string]string
)

func init() {
	cmdLog = log.New(os.Stdout, "[shell] ", 0)
	actLog = log.New(os.Stderr, "[loadsweep] ", 0)
	baseEnv = make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			baseEnv[k] = v
		}
	}
}

func SetCommandTrace(on bool) {
	cmdOn = on
}

func SetActivityLog(on bool) {
	actOn = on
}

// SetOutput redirects both streams. Intended for tests.
func SetOutput(cmd, act io.Writer) {
	cmdLog.SetOutput(cmd)
	actLog.SetOutput(act)
}

// changedEnv returns the variables in env that differ from the process
// environment, shell-quoted.
func changedEnv(env []string) []string {
	var out []string
	for _, e := range env {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if bv, ok := baseEnv[k]; ok && bv == v {
			continue
		}
		out = append(out, fmt.Sprintf("%s=%s", k, shellquote.Join(v)))
	}
	return out
}

// CommandLine renders cmd as a shell command line, without directory or
// environment.
func CommandLine(cmd *exec.Cmd) string {
	return shellquote.Join(cmd.Args...)
}

func TraceCommand(cmd *exec.Cmd, background bool) {
	if !cmdOn {
		return
	}
	if cmd.Dir != "" {
		cmdLog.Printf("pushd %s", shellquote.Join(cmd.Dir))
	}
	line := CommandLine(cmd)
	if env := changedEnv(cmd.Env); len(env) != 0 {
		line = strings.Join(env, " ") + " " + line
	}
	if background {
		line += " &"
	}
	cmdLog.Print(line)
	if cmd.Dir != "" {
		cmdLog.Printf("popd")
	}
}

func TraceKill(cmd *exec.Cmd, signal string) {
	if !cmdOn {
		return
	}
	cmdLog.Printf("killall -%s %s", signal, filepath.Base(cmd.Path))
}

func CommandPrintf(format string, args ...interface{}) {
	if !cmdOn {
		return
	}
	cmdLog.Printf(format, args...)
}

func Printf(format string, args ...interface{}) {
	if !actOn {
		return
	}
	actLog.Printf(format, args...)
}

// Error always logs err, including the stderr captured by an ExitError.
func Error(err error) {
	actLog.Printf("error: %v", err)
	var ee *exec.ExitError
	if errors.As(err, &ee) && len(ee.Stderr) != 0 {
		actLog.Printf("output:\n%s", ee.Stderr)
	}
}
