// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/splatgrid/internal/fsutil"
)

// Command selects which top-level operation the App runs.
type Command string

const (
	// CommandSubmit reads the manifest and submits one scheduler job per
	// scene.
	CommandSubmit Command = "submit"
	// CommandScene processes every case of a single scene on this machine.
	// It is what the submitted jobs themselves run.
	CommandScene Command = "scene"
	// CommandAggregate collects per-case results.json files into a batch
	// summary.
	CommandAggregate Command = "aggregate"
	// CommandWatch shows a live scheduler-state view for a submitted batch.
	CommandWatch Command = "watch"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command Command

	ManifestPath string
	DataRoot     string
	OutputRoot   string
	// LogDir receives scheduler job logs and the generated monitor script.
	LogDir string

	// Scene is the single scene to process (scene command).
	Scene string

	// Partition, DryRun and Executable shape submissions (submit command).
	Partition  string
	DryRun     bool
	Executable string

	// Jobs and ScriptPath locate the batch to watch (watch command).
	Jobs       []string
	ScriptPath string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates a Config before any work starts: required fields per
// command, plus existence of the input paths the command will read.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandSubmit, CommandScene:
		if cfg.ManifestPath == "" {
			return nil, errors.New("-manifest is required")
		}
		if !fsutil.FileExists(cfg.ManifestPath) {
			return nil, fmt.Errorf("manifest %s does not exist", cfg.ManifestPath)
		}
		if cfg.DataRoot == "" {
			return nil, errors.New("-data-root is required")
		}
		if !fsutil.DirExists(cfg.DataRoot) {
			return nil, fmt.Errorf("data root %s does not exist", cfg.DataRoot)
		}
		if cfg.OutputRoot == "" {
			return nil, errors.New("-output-root is required")
		}
		if cfg.Command == CommandScene && cfg.Scene == "" {
			return nil, errors.New("-scene is required")
		}
		if cfg.Command == CommandSubmit && cfg.LogDir == "" {
			cfg.LogDir = cfg.OutputRoot
		}
	case CommandAggregate:
		if cfg.OutputRoot == "" {
			return nil, errors.New("-output-root is required")
		}
		if !fsutil.DirExists(cfg.OutputRoot) {
			return nil, fmt.Errorf("output root %s does not exist", cfg.OutputRoot)
		}
	case CommandWatch:
		if len(cfg.Jobs) == 0 && cfg.ScriptPath == "" {
			return nil, errors.New("watch needs -jobs or -script")
		}
		if cfg.ScriptPath != "" && !fsutil.FileExists(cfg.ScriptPath) {
			return nil, fmt.Errorf("monitor script %s does not exist", cfg.ScriptPath)
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	return &cfg, nil
}
