// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Env is a layered set of environment variables handed to task processes.
// Each layer shadows the variables of its parent. Layers are immutable.
type Env struct {
	parent *Env
	vars   map[string]string
}

func splitVars(vars ...string) (map[string]string, error) {
	m := make(map[string]string, len(vars))
	for _, v := range vars {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%q is not a valid environment variable", v)
		}
		m[name] = value
	}
	return m, nil
}

// NewEnv returns a root Env holding vars, each of the form NAME=value.
func NewEnv(vars ...string) (*Env, error) {
	m, err := splitVars(vars...)
	if err != nil {
		return nil, err
	}
	return &Env{vars: m}, nil
}

// NewEnvFromEnviron returns a root Env seeded from the process environment.
func NewEnvFromEnviron() *Env {
	env := &Env{vars: make(map[string]string)}
	for _, v := range os.Environ() {
		// Windows carries entries like "=C:=C:\" which are not assignable.
		if name, value, ok := strings.Cut(v, "="); ok && name != "" {
			env.vars[name] = value
		}
	}
	return env
}

// Set returns a child of e with vars layered on top.
func (e *Env) Set(vars ...string) (*Env, error) {
	m, err := splitVars(vars...)
	if err != nil {
		return nil, err
	}
	return &Env{parent: e, vars: m}, nil
}

// MustSet is like Set but panics on a malformed variable.
func (e *Env) MustSet(vars ...string) *Env {
	env, err := e.Set(vars...)
	if err != nil {
		panic(err)
	}
	return env
}

func (e *Env) Lookup(name string) (string, bool) {
	for t := e; t != nil; t = t.parent {
		if v, ok := t.vars[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Collapse flattens the layers into NAME=value pairs suitable for
// exec.Cmd.Env. The result is sorted by name.
func (e *Env) Collapse() []string {
	seen := make(map[string]string)
	for t := e; t != nil; t = t.parent {
		for k, v := range t.vars {
			if _, ok := seen[k]; !ok {
				seen[k] = v
			}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, k := range names {
		out = append(out, k+"="+seen[k])
	}
	return out
}

// Overrides returns only the variables set on e itself, in NAME=value form
// and sorted. It is what gets written back out when a config is encoded.
func (e *Env) Overrides() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
