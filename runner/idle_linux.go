// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"fmt"
	"os"
)

var loadAvgPath = "/proc/loadavg"

func loadAvg() (float64, error) {
	b, err := os.ReadFile(loadAvgPath)
	if err != nil {
		return 0, fmt.Errorf("error reading %s: %w", loadAvgPath, err)
	}
	return parseLoadAvg(b)
}
