// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/loadsweep/loadsweep/common"
)

const initUsage = `Usage: %s init [flags] [config.toml]

Write a configuration describing the default session to the given file, or
to stdout. Paths are kept as given and resolve against the file's directory.
`

type initCmd struct {
	serverRoot string
	clientRoot string
	force      bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "Writes a default configuration file." }
func (*initCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, initUsage, base)
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.serverRoot, "server-root", ".", "server source tree")
	f.StringVar(&c.clientRoot, "client-root", "../projector-client", "load generator source tree")
	f.BoolVar(&c.force, "f", false, "overwrite an existing file")
}

func (c *initCmd) Run(args []string) error {
	cfg := common.DefaultConfig(c.serverRoot, c.clientRoot)
	cfg.SetDefaults()
	b, err := common.MarshalConfigTOML(cfg)
	if err != nil {
		return err
	}
	switch len(args) {
	case 0:
		_, err := os.Stdout.Write(b)
		return err
	case 1:
	default:
		return fmt.Errorf("expected at most one output file, got %d", len(args))
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !c.force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(args[0], flags, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
