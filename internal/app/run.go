// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/splatgrid/internal/ctxlog"
	"github.com/specialistvlad/splatgrid/internal/extrun"
	"github.com/specialistvlad/splatgrid/internal/manifest"
	"github.com/specialistvlad/splatgrid/internal/monitor"
	"github.com/specialistvlad/splatgrid/internal/pipeline"
	"github.com/specialistvlad/splatgrid/internal/results"
	"github.com/specialistvlad/splatgrid/internal/slurm"
	"github.com/specialistvlad/splatgrid/internal/submit"
	"github.com/specialistvlad/splatgrid/internal/watch"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	switch a.config.Command {
	case CommandSubmit:
		return a.runSubmit(ctx)
	case CommandScene:
		return a.runScene(ctx)
	case CommandAggregate:
		return a.runAggregate(ctx)
	case CommandWatch:
		return a.runWatch(ctx)
	default:
		return fmt.Errorf("unknown command %q", a.config.Command)
	}
}

func (a *App) runSubmit(ctx context.Context) error {
	executable := a.config.Executable
	if executable == "" {
		// Submitted jobs run the same binary the operator invoked.
		path, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate own executable: %w", err)
		}
		executable = path
	}

	if err := os.MkdirAll(a.config.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	coordinator := &submit.Coordinator{
		Out:          a.outW,
		Client:       slurm.NewClient(extrun.ExecRunner{}),
		ManifestPath: a.config.ManifestPath,
		DataRoot:     a.config.DataRoot,
		OutputRoot:   a.config.OutputRoot,
		LogDir:       a.config.LogDir,
		Partition:    a.config.Partition,
		Executable:   executable,
		DryRun:       a.config.DryRun,
	}
	_, err := coordinator.Run(ctx)
	return err
}

func (a *App) runScene(ctx context.Context) error {
	m, err := manifest.Load(ctx, a.config.ManifestPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.config.OutputRoot, 0o755); err != nil {
		return fmt.Errorf("create output root: %w", err)
	}

	runner := &pipeline.SceneRunner{
		Cases: &pipeline.CaseRunner{
			Runner:       extrun.ExecRunner{},
			Tools:        pipeline.DefaultTools(),
			ManifestPath: a.config.ManifestPath,
			DataRoot:     a.config.DataRoot,
			OutputRoot:   a.config.OutputRoot,
		},
	}

	stats, err := runner.Run(ctx, m, a.config.Scene)
	fmt.Fprintf(a.outW, "Scene %s: %d/%d cases succeeded, %d failed\n",
		a.config.Scene, stats.Succeeded, stats.Total, stats.Failed)
	return err
}

func (a *App) runAggregate(ctx context.Context) error {
	summary, err := results.Aggregate(ctx, a.config.OutputRoot)
	if err != nil {
		return err
	}

	fmt.Fprint(a.outW, summary.Render())

	jsonPath := filepath.Join(a.config.OutputRoot, "results_summary.json")
	if err := summary.WriteJSON(jsonPath); err != nil {
		return err
	}
	csvPath := filepath.Join(a.config.OutputRoot, "results_summary.csv")
	if err := summary.WriteCSV(csvPath); err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "\nSummary written to %s and %s\n", jsonPath, csvPath)
	return nil
}

func (a *App) runWatch(ctx context.Context) error {
	var records []slurm.JobRecord
	if a.config.ScriptPath != "" {
		parsed, err := monitor.ParseJobIDs(a.config.ScriptPath)
		if err != nil {
			return err
		}
		records = parsed
	} else {
		for _, id := range a.config.Jobs {
			records = append(records, slurm.JobRecord{JobID: id})
		}
	}

	return watch.Run(ctx, a.outW, slurm.NewClient(extrun.ExecRunner{}), records)
}
