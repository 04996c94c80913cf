// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package submit implements the batch submission coordinator: the operator
// entry point that turns a manifest into one scheduler job per scene.
//
// Why one job per scene?
//
// Scenes are fully independent, so the cluster scheduler can parallelize
// them freely, while each job stays a bounded, sequential unit (one case at
// a time) that fits a single accelerator allocation. The coordinator itself
// never runs pipeline work; it only enumerates, submits, and records.

package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/specialistvlad/splatgrid/internal/ctxlog"
	"github.com/specialistvlad/splatgrid/internal/manifest"
	"github.com/specialistvlad/splatgrid/internal/monitor"
	"github.com/specialistvlad/splatgrid/internal/slurm"
)

// ErrSubmissionsFailed reports that at least one scene could not be
// submitted. Earlier and later submissions are unaffected; re-running submit
// for the failed scenes is the remediation path.
var ErrSubmissionsFailed = errors.New("one or more submissions failed")

// monitorScript is the basename of the generated status script.
const monitorScript = "check_status.sh"

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Coordinator submits one unit of work per scene and collects the
// scheduler-issued identifiers. The record list is plain local state: born
// empty in Run, finalized into the monitor script, never global.
type Coordinator struct {
	// Out receives the operator-facing summary.
	Out io.Writer
	// Client talks to the cluster scheduler.
	Client *slurm.Client

	ManifestPath string
	DataRoot     string
	OutputRoot   string
	// LogDir receives per-scene job logs; %j in the log name keeps repeated
	// attempts for a scene from overwriting each other.
	LogDir string
	// Partition optionally pins jobs to a scheduler partition.
	Partition string
	// Executable is the splatgrid binary the submitted jobs will run.
	Executable string
	// DryRun prints the would-be submissions without talking to the
	// scheduler and without writing the monitor script.
	DryRun bool
}

// Run reads the manifest and attempts exactly one submission per declared
// scene, in declaration order. Manifest problems (missing, malformed, empty
// scene set) abort the whole batch before anything is submitted; a single
// scene's submission failure is logged and does not block the rest.
func (c *Coordinator) Run(ctx context.Context) ([]slurm.JobRecord, error) {
	logger := ctxlog.FromContext(ctx)

	m, err := manifest.Load(ctx, c.ManifestPath)
	if err != nil {
		return nil, err
	}
	if m.Len() == 0 {
		return nil, fmt.Errorf("manifest %s: %w", c.ManifestPath, manifest.ErrNoScenes)
	}

	scenes := m.Scenes()
	logger.Info("Submitting batch.", "scenes", len(scenes), "manifest", c.ManifestPath)

	var records []slurm.JobRecord
	var failed []string
	for _, sceneName := range scenes {
		spec := slurm.SubmitSpec{
			JobName:   "splat_" + sceneName,
			LogPath:   filepath.Join(c.LogDir, sceneName+"_%j.log"),
			Partition: c.Partition,
			Command:   c.sceneCommand(sceneName),
		}

		if c.DryRun {
			fmt.Fprintf(c.Out, "[dry-run] %s\n", mutedStyle.Render(strings.Join(spec.Command, " ")))
			continue
		}

		jobID, err := c.Client.Submit(ctx, spec)
		if err != nil {
			logger.Error("Submission failed, continuing with remaining scenes.", "scene", sceneName, "error", err)
			failed = append(failed, sceneName)
			continue
		}
		logger.Info("Scene submitted.", "scene", sceneName, "job_id", jobID, "log", spec.LogPath)
		records = append(records, slurm.JobRecord{Scene: sceneName, JobID: jobID})
	}

	if c.DryRun {
		fmt.Fprintf(c.Out, "\n[dry-run] would submit %d scenes\n", len(scenes))
		return nil, nil
	}

	c.printSummary(records, failed, len(scenes))

	if len(records) > 0 {
		scriptPath := filepath.Join(c.LogDir, monitorScript)
		if err := monitor.Write(scriptPath, records); err != nil {
			logger.Error("Could not write monitor script.", "error", err)
		} else {
			fmt.Fprintf(c.Out, "Monitor script: %s\n", scriptPath)
		}
	}

	if len(failed) > 0 {
		return records, fmt.Errorf("%d of %d scenes: %w", len(failed), len(scenes), ErrSubmissionsFailed)
	}
	return records, nil
}

// sceneCommand builds the command line a submitted job runs on its node.
func (c *Coordinator) sceneCommand(sceneName string) []string {
	return []string{
		c.Executable, "scene",
		"-scene", sceneName,
		"-manifest", c.ManifestPath,
		"-data-root", c.DataRoot,
		"-output-root", c.OutputRoot,
	}
}

func (c *Coordinator) printSummary(records []slurm.JobRecord, failed []string, total int) {
	fmt.Fprintln(c.Out, headerStyle.Render(fmt.Sprintf("Submitted %d/%d scenes", len(records), total)))
	fmt.Fprintf(c.Out, "%-32s %s\n", "SCENE", "JOB")
	for _, r := range records {
		fmt.Fprintf(c.Out, "%-32s %s\n", r.Scene, okStyle.Render(r.JobID))
	}
	for _, sceneName := range failed {
		fmt.Fprintf(c.Out, "%-32s %s\n", sceneName, failStyle.Render("SUBMISSION FAILED"))
	}
}
