// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common_test

import (
	"reflect"
	"testing"

	"github.com/loadsweep/loadsweep/common"
)

func TestEnv(t *testing.T) {
	lookup := func(t *testing.T, env *common.Env, name, want string) {
		t.Helper()
		if v, ok := env.Lookup(name); !ok {
			t.Fatalf("expected to find variable %q", name)
		} else if v != want {
			t.Fatalf("lookup %q: got %q, want %q", name, v, want)
		}
	}
	missing := func(t *testing.T, env *common.Env, name string) {
		t.Helper()
		if v, ok := env.Lookup(name); ok {
			t.Fatalf("expected %q to be unset, got %q", name, v)
		}
	}

	base, err := common.NewEnv("SERVER_PORT=8887", "JAVA_HOME=/opt/jdk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("BadCreate", func(t *testing.T) {
		if _, err := common.NewEnv("SERVER_PORT", "A=1"); err == nil {
			t.Fatal("expected error for variable without '='")
		}
		if _, err := common.NewEnv("=x"); err == nil {
			t.Fatal("expected error for variable without a name")
		}
	})
	t.Run("Lookup", func(t *testing.T) {
		lookup(t, base, "SERVER_PORT", "8887")
		missing(t, base, "GRADLE_OPTS")
	})
	t.Run("ValueWithEquals", func(t *testing.T) {
		env, err := base.Set("GRADLE_OPTS=-Dorg.gradle.jvmargs=-Xmx2g")
		if err != nil {
			t.Fatal(err)
		}
		lookup(t, env, "GRADLE_OPTS", "-Dorg.gradle.jvmargs=-Xmx2g")
	})
	t.Run("Layering", func(t *testing.T) {
		child := base.MustSet("SERVER_PORT=9000", "GRADLE_OPTS=-q")
		grandchild := child.MustSet("JAVA_HOME=/usr/lib/jvm")
		lookup(t, grandchild, "SERVER_PORT", "9000")
		lookup(t, grandchild, "JAVA_HOME", "/usr/lib/jvm")
		lookup(t, base, "SERVER_PORT", "8887")
		missing(t, base, "GRADLE_OPTS")

		want := []string{"GRADLE_OPTS=-q", "JAVA_HOME=/usr/lib/jvm", "SERVER_PORT=9000"}
		if got := grandchild.Collapse(); !reflect.DeepEqual(got, want) {
			t.Fatalf("collapse: got %v, want %v", got, want)
		}
		if got := child.Overrides(); !reflect.DeepEqual(got, []string{"GRADLE_OPTS=-q", "SERVER_PORT=9000"}) {
			t.Fatalf("overrides: got %v", got)
		}
	})
	t.Run("Environ", func(t *testing.T) {
		t.Setenv("LOADSWEEP_TEST_VAR", "on")
		lookup(t, common.NewEnvFromEnviron(), "LOADSWEEP_TEST_VAR", "on")
	})
}
