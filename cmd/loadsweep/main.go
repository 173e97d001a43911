// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/loadsweep/loadsweep/cli/subcommands"
)

func main() {
	subcommands.Register(&runCmd{})
	subcommands.Register(&sampleCmd{})
	subcommands.Register(&watchCmd{})
	subcommands.Register(&initCmd{})
	os.Exit(subcommands.Run())
}
