// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	shellquote "github.com/kballard/go-shellquote"
)

const ConfigHelp = `
The input configuration format is TOML. It has the following sections, all of
which are optional:

  [paths]
      server_root: directory the server tasks run in and where the log lives
                   (default: the directory containing the config file)
      client_root: directory the load-generation tasks run in
                   (default: server_root)
              log: path of the server log, relative to server_root
                   (default: logback.log)

  [[task]] (an array; tasks run in the order given)
             name: a unique name for the task (required)
          command: the command line, split into words like a POSIX shell
                   would, but never run through a shell (required)
             root: "server" or "client", the root the task runs in
                   (default: server)
              dir: a subdirectory of root to run in (optional)
       background: start the task and keep it running until every
                   foreground task has finished (optional)
           settle: how long to wait after starting a background task,
                   e.g. "30s" (optional)
    allow_failure: record a non-zero exit status but keep going (optional)
              env: additional environment variables, each of the form
                   "X=Y" (optional)

  [sampler]
            label: the text preceding each reading (default: "CPU load:")
           filter: which samples enter the filtered set; one of none,
                   nonzero, above=<x> (default: nonzero)
        malformed: what to do with a label followed by something that is
                   not a number; one of fail, skip (default: fail)
  breakout_window: minimum segment length for breakout detection, 0 to
                   disable (default: 8)

  [plot]
          backend: gonum or gochart (default: gonum)
           output: chart file, .png or .svg, relative to server_root
                   (default: cpu-load.png)
    width, height: chart size in inches (default: 30 x 3)
             show: display the chart in a window (default: true)

  [upload]
           bucket: GCS bucket to copy the chart and report to (optional)
           prefix: object name prefix (default: loadsweep)
             auth: app-default or none (default: app-default)

A configuration reproducing a typical session might look like:

[paths]
  server_root = "."
  client_root = "../projector-client"

[[task]]
  name = "server"
  command = "./gradlew runIdeaServer"
  background = true
  settle = "30s"

[[task]]
  name = "load"
  root = "client"
  command = "./gradlew startLoad"
`

const (
	DefaultLogName        = "logback.log"
	DefaultLabel          = "CPU load:"
	DefaultFilter         = "nonzero"
	DefaultMalformed      = "fail"
	DefaultBreakoutWindow = 8
	DefaultBackend        = "gonum"
	DefaultPlotOutput     = "cpu-load.png"
	DefaultPlotWidth      = 30.0
	DefaultPlotHeight     = 3.0
	DefaultUploadPrefix   = "loadsweep"
	DefaultUploadAuth     = "app-default"
)

// Config is a complete loadsweep session description.
type Config struct {
	Paths   PathsConfig   `toml:"paths"`
	Tasks   []*TaskConfig `toml:"task"`
	Sampler SamplerConfig `toml:"sampler"`
	Plot    PlotConfig    `toml:"plot"`
	Upload  UploadConfig  `toml:"upload"`
}

type PathsConfig struct {
	ServerRoot string `toml:"server_root"`
	ClientRoot string `toml:"client_root"`
	Log        string `toml:"log"`
}

type TaskConfig struct {
	Name         string    `toml:"name"`
	Command      string    `toml:"command"`
	Root         string    `toml:"root"`
	Dir          string    `toml:"dir"`
	Background   bool      `toml:"background"`
	Settle       Duration  `toml:"settle"`
	AllowFailure bool      `toml:"allow_failure"`
	Env          ConfigEnv `toml:"env"`
}

type SamplerConfig struct {
	Label          string `toml:"label"`
	Filter         string `toml:"filter"`
	Malformed      string `toml:"malformed"`
	BreakoutWindow *int   `toml:"breakout_window"`
}

type PlotConfig struct {
	Backend string  `toml:"backend"`
	Output  string  `toml:"output"`
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	Show    *bool   `toml:"show"`
}

type UploadConfig struct {
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
	Auth   string `toml:"auth"`
}

// Duration is a time.Duration written in TOML as a string such as "30s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %v", text, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ConfigEnv is a task environment: the process environment with the
// configured variables layered on top.
type ConfigEnv struct {
	*Env
}

func (c *ConfigEnv) UnmarshalTOML(data interface{}) error {
	ldata, ok := data.([]interface{})
	if !ok {
		return fmt.Errorf("expected data for env to be a list")
	}
	vars := make([]string, 0, len(ldata))
	for _, d := range ldata {
		s, ok := d.(string)
		if !ok {
			return fmt.Errorf("expected data for env to contain strings")
		}
		vars = append(vars, s)
	}
	var err error
	c.Env, err = NewEnvFromEnviron().Set(vars...)
	return err
}

// ShowPlot reports whether the chart should be displayed, which it is
// unless the config says otherwise.
func (p *PlotConfig) ShowPlot() bool {
	return p.Show == nil || *p.Show
}

// Window returns the configured breakout window.
func (s *SamplerConfig) Window() int {
	if s.BreakoutWindow == nil {
		return DefaultBreakoutWindow
	}
	return *s.BreakoutWindow
}

// LogPath is the absolute path of the server log. Only meaningful after
// Validate.
func (c *Config) LogPath() string {
	return canonicalizePath(c.Paths.Log, c.Paths.ServerRoot)
}

// PlotPath is the absolute path of the chart. Only meaningful after Validate.
func (c *Config) PlotPath() string {
	return canonicalizePath(c.Plot.Output, c.Paths.ServerRoot)
}

// TaskDir resolves the working directory of t. Only meaningful after
// Validate.
func (c *Config) TaskDir(t *TaskConfig) string {
	root := c.Paths.ServerRoot
	if t.Root == "client" {
		root = c.Paths.ClientRoot
	}
	if t.Dir == "" {
		return root
	}
	return canonicalizePath(t.Dir, root)
}

// Args splits the command line of t into words.
func (t *TaskConfig) Args() ([]string, error) {
	args, err := shellquote.Split(t.Command)
	if err != nil {
		return nil, fmt.Errorf("task %q: parsing command: %v", t.Name, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("task %q has an empty command", t.Name)
	}
	return args, nil
}

// DefaultConfig describes the session the tool was first written for: an
// IDE server started from serverRoot in the background, and a load
// generator started from clientRoot.
func DefaultConfig(serverRoot, clientRoot string) *Config {
	return &Config{
		Paths: PathsConfig{
			ServerRoot: serverRoot,
			ClientRoot: clientRoot,
		},
		Tasks: []*TaskConfig{
			{
				Name:       "server",
				Command:    "./gradlew runIdeaServer",
				Root:       "server",
				Background: true,
				Settle:     Duration(30 * time.Second),
			},
			{
				Name:    "load",
				Command: "./gradlew startLoad",
				Root:    "client",
			},
		},
	}
}

// LoadConfig reads and validates the config file at path. Relative paths in
// the file are resolved against the file's directory.
func LoadConfig(path string) (*Config, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to absolutize %q: %v", path, err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %q: %v", path, err)
	}
	if err := cfg.Validate(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate fills in defaults, makes every path absolute relative to base and
// checks the config for consistency. The sampler and plot settings are only
// defaulted here; their owning packages parse them.
func (c *Config) Validate(base string) error {
	base, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("creating absolute path from %q: %v", base, err)
	}

	if c.Paths.ServerRoot == "" {
		c.Paths.ServerRoot = base
	}
	if c.Paths.ClientRoot == "" {
		c.Paths.ClientRoot = c.Paths.ServerRoot
	}
	c.SetDefaults()
	for _, p := range []*string{&c.Paths.ServerRoot, &c.Paths.ClientRoot} {
		if strings.HasPrefix(*p, "~") {
			return fmt.Errorf("path %q: ~ expansion is not supported", *p)
		}
		*p = canonicalizePath(*p, base)
		if err := checkDir(*p); err != nil {
			return err
		}
	}

	names := make(map[string]struct{})
	for i, t := range c.Tasks {
		if t.Name == "" {
			return fmt.Errorf("task #%d is missing a name", i+1)
		}
		if _, ok := names[t.Name]; ok {
			return fmt.Errorf("name of task is not unique: %s", t.Name)
		}
		names[t.Name] = struct{}{}
		switch t.Root {
		case "server", "client":
		default:
			return fmt.Errorf("task %q: root must be server or client, got %q", t.Name, t.Root)
		}
		if _, err := t.Args(); err != nil {
			return err
		}
		if t.Settle < 0 {
			return fmt.Errorf("task %q: negative settle time", t.Name)
		}
		if t.Env.Env == nil {
			t.Env.Env = NewEnvFromEnviron().MustSet()
		}
		if dir := c.TaskDir(t); dir != c.Paths.ServerRoot && dir != c.Paths.ClientRoot {
			if err := checkDir(dir); err != nil {
				return fmt.Errorf("task %q: %w", t.Name, err)
			}
		}
	}

	if c.Sampler.Window() < 0 {
		return fmt.Errorf("breakout_window must not be negative")
	}
	if c.Plot.Width < 0 || c.Plot.Height < 0 {
		return fmt.Errorf("plot size must be positive, got %gx%g", c.Plot.Width, c.Plot.Height)
	}
	return nil
}

// SetDefaults fills in every unset setting except the roots.
func (c *Config) SetDefaults() {
	if c.Paths.Log == "" {
		c.Paths.Log = DefaultLogName
	}
	for _, t := range c.Tasks {
		if t.Root == "" {
			t.Root = "server"
		}
	}
	if c.Sampler.Label == "" {
		c.Sampler.Label = DefaultLabel
	}
	if c.Sampler.Filter == "" {
		c.Sampler.Filter = DefaultFilter
	}
	if c.Sampler.Malformed == "" {
		c.Sampler.Malformed = DefaultMalformed
	}
	if c.Plot.Backend == "" {
		c.Plot.Backend = DefaultBackend
	}
	if c.Plot.Output == "" {
		c.Plot.Output = DefaultPlotOutput
	}
	if c.Plot.Width == 0 {
		c.Plot.Width = DefaultPlotWidth
	}
	if c.Plot.Height == 0 {
		c.Plot.Height = DefaultPlotHeight
	}
	if c.Upload.Prefix == "" {
		c.Upload.Prefix = DefaultUploadPrefix
	}
	if c.Upload.Auth == "" {
		c.Upload.Auth = DefaultUploadAuth
	}
}

func canonicalizePath(path, base string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory %q does not exist", path)
	} else if err != nil {
		return fmt.Errorf("stat %q: %v", path, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", path)
	}
	return nil
}

// MarshalConfigTOML encodes c as TOML. Task environments are written as
// their overrides only, not the inherited process environment.
func MarshalConfigTOML(c *Config) ([]byte, error) {
	// github.com/BurntSushi/toml at v1.0.0 doesn't call Marshaler on
	// nested values (https://github.com/BurntSushi/toml/issues/341), so
	// encode through plain mirror types instead.
	type task struct {
		Name         string   `toml:"name"`
		Command      string   `toml:"command"`
		Root         string   `toml:"root,omitempty"`
		Dir          string   `toml:"dir,omitempty"`
		Background   bool     `toml:"background,omitempty"`
		Settle       string   `toml:"settle,omitempty"`
		AllowFailure bool     `toml:"allow_failure,omitempty"`
		Env          []string `toml:"env,omitempty"`
	}
	type sampler struct {
		Label          string `toml:"label,omitempty"`
		Filter         string `toml:"filter,omitempty"`
		Malformed      string `toml:"malformed,omitempty"`
		BreakoutWindow int    `toml:"breakout_window"`
	}
	type plot struct {
		Backend string  `toml:"backend,omitempty"`
		Output  string  `toml:"output,omitempty"`
		Width   float64 `toml:"width,omitempty"`
		Height  float64 `toml:"height,omitempty"`
		Show    bool    `toml:"show"`
	}
	type configFile struct {
		Paths   PathsConfig  `toml:"paths"`
		Tasks   []*task      `toml:"task"`
		Sampler sampler      `toml:"sampler"`
		Plot    plot         `toml:"plot"`
		Upload  UploadConfig `toml:"upload"`
	}
	out := configFile{
		Paths: c.Paths,
		Sampler: sampler{
			Label:          c.Sampler.Label,
			Filter:         c.Sampler.Filter,
			Malformed:      c.Sampler.Malformed,
			BreakoutWindow: c.Sampler.Window(),
		},
		Plot: plot{
			Backend: c.Plot.Backend,
			Output:  c.Plot.Output,
			Width:   c.Plot.Width,
			Height:  c.Plot.Height,
			Show:    c.Plot.ShowPlot(),
		},
		Upload: c.Upload,
	}
	for _, t := range c.Tasks {
		tt := &task{
			Name:         t.Name,
			Command:      t.Command,
			Root:         t.Root,
			Dir:          t.Dir,
			Background:   t.Background,
			AllowFailure: t.AllowFailure,
			Env:          t.Env.Overrides(),
		}
		if t.Settle != 0 {
			tt.Settle = time.Duration(t.Settle).String()
		}
		out.Tasks = append(out.Tasks, tt)
	}
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(&out); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
