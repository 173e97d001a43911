// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package subcommands is a small registry of flag-driven subcommands.
package subcommands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/loadsweep/loadsweep/common"
)

const (
	usageHeader = `loadsweep %s: CPU load sampling for server load tests

`
	usageTop = `loadsweep starts a server and a load generator, then reads the CPU load
readings the server logged while under load, summarizes them and charts them.

Usage: %s <subcommand> [subcommand flags] [subcommand args]

Subcommands:
`
)

var (
	base string
	cmds []*command
	out  io.Writer
)

func init() {
	base = filepath.Base(os.Args[0])
	out = os.Stderr
}

type command struct {
	Command
	flags *flag.FlagSet
}

func (c *command) usage() {
	fmt.Fprintf(out, usageHeader, common.Version)
	c.PrintUsage(out, base)
	c.flags.PrintDefaults()
}

type Command interface {
	Name() string
	Synopsis() string
	PrintUsage(w io.Writer, base string)
	SetFlags(f *flag.FlagSet)
	Run(args []string) error
}

func Register(cmd Command) {
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	f.SetOutput(out)
	cmd.SetFlags(f)
	c := &command{
		Command: cmd,
		flags:   f,
	}
	f.Usage = func() {
		c.usage()
	}
	cmds = append(cmds, c)
}

func usage() {
	fmt.Fprintf(out, usageHeader, common.Version)
	fmt.Fprintf(out, usageTop, base)
	maxnamelen := 10
	for _, c := range cmds {
		if l := utf8.RuneCountInString(c.Name()); l > maxnamelen {
			maxnamelen = l
		}
	}
	for _, c := range cmds {
		fmt.Fprintf(out, "  %*s: %s\n", maxnamelen, c.Name(), c.Synopsis())
	}
}

// Run dispatches os.Args to the registered subcommands and returns the
// process exit code.
func Run() int {
	return RunArgs(os.Args[1:])
}

// RunArgs is Run with explicit arguments, excluding the program name.
func RunArgs(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}
	subcmd := args[0]
	if subcmd == "help" {
		if len(args) >= 2 {
			for _, cmd := range cmds {
				if cmd.Name() == args[1] {
					cmd.usage()
					return 0
				}
			}
		}
		usage()
		return 0
	}
	var chosen *command
	for _, cmd := range cmds {
		if cmd.Name() == subcmd {
			chosen = cmd
			break
		}
	}
	if chosen == nil {
		fmt.Fprintf(out, "unknown subcommand: %q\n", subcmd)
		fmt.Fprintln(out)
		usage()
		return 1
	}
	if err := chosen.flags.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if err := chosen.Run(chosen.flags.Args()); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 1
	}
	return 0
}

// SetOutput redirects usage and error output. Intended for tests.
func SetOutput(w io.Writer) {
	out = w
	for _, c := range cmds {
		c.flags.SetOutput(w)
	}
}

// Reset forgets every registered subcommand. Intended for tests.
func Reset() {
	cmds = nil
}
