// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fakeLoadAvg(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loadavg")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	old := loadAvgPath
	loadAvgPath = path
	t.Cleanup(func() { loadAvgPath = old })
	return path
}

func TestWaitForIdle(t *testing.T) {
	t.Run("AlreadyIdle", func(t *testing.T) {
		fakeLoadAvg(t, "0.05 0.10 0.20 1/300 42\n")
		if err := WaitForIdle(context.Background(), DefaultIdleLoad, time.Hour); err != nil {
			t.Fatal(err)
		}
	})
	t.Run("BecomesIdle", func(t *testing.T) {
		path := fakeLoadAvg(t, "5.00 4.00 3.00 9/300 42\n")
		go func() {
			time.Sleep(50 * time.Millisecond)
			os.WriteFile(path, []byte("0.01 1.00 2.00 1/300 42\n"), 0644)
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := WaitForIdle(ctx, DefaultIdleLoad, 20*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	})
	t.Run("Cancelled", func(t *testing.T) {
		fakeLoadAvg(t, "5.00 4.00 3.00 9/300 42\n")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := WaitForIdle(ctx, DefaultIdleLoad, 10*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	})
	t.Run("Unreadable", func(t *testing.T) {
		old := loadAvgPath
		loadAvgPath = filepath.Join(t.TempDir(), "missing")
		defer func() { loadAvgPath = old }()
		if err := WaitForIdle(context.Background(), DefaultIdleLoad, time.Millisecond); err == nil {
			t.Fatal("expected an error")
		}
	})
}
