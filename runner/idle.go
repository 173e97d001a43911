// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loadsweep/loadsweep/common/log"
)

// DefaultIdleLoad is the 1-minute load average below which the machine is
// considered idle.
const DefaultIdleLoad = 0.2

var errNoLoadAvg = errors.New("load average not available on this platform")

// parseLoadAvg extracts the 1-minute load average from the contents of
// /proc/loadavg.
func parseLoadAvg(b []byte) (float64, error) {
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty load average")
	}
	avg, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed load average %q: %v", fields[0], err)
	}
	return avg, nil
}

// WaitForIdle blocks until the 1-minute load average drops below maxLoad,
// checking every poll. On platforms without a load average it returns
// immediately.
func WaitForIdle(ctx context.Context, maxLoad float64, poll time.Duration) error {
	for {
		avg, err := loadAvg()
		if errors.Is(err, errNoLoadAvg) {
			log.Printf("warning: %v; not waiting for idle", err)
			return nil
		} else if err != nil {
			return fmt.Errorf("error reading load average: %w", err)
		}
		log.Printf("Load average: %.2f", avg)
		if avg < maxLoad {
			return nil
		}
		log.Printf("Waiting for load average to drop below %.2f...", maxLoad)
		t := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
