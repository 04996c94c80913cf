// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements the per-case pipeline: train → render → RGB metrics →
// depth metrics for exactly one (scene, case) pair.
//
// Why is only training critical?
//
// The trained model is the one artifact a case cannot exist without; every
// evaluation stage can be re-run later against a surviving checkpoint. So a
// train failure aborts the case, while render and metric failures are logged
// warnings that never downgrade the case outcome.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/splatgrid/internal/ctxlog"
	"github.com/specialistvlad/splatgrid/internal/extrun"
	"github.com/specialistvlad/splatgrid/internal/scene"
)

// logFile is the combined stage log inside a case directory. All four
// stages append to it, so one file tells the whole story of a case.
const logFile = "processing.log"

// CaseResult is the structured outcome of one case pipeline run. The same
// final status is also persisted durably via WriteStatus.
type CaseResult struct {
	Scene   string
	Index   int
	Status  Status
	LogPath string
}

// CaseRunner executes the four-stage pipeline for single cases.
type CaseRunner struct {
	// Runner executes the external stage programs.
	Runner extrun.Runner
	// Tools locates the stage scripts and checkpoint iterations.
	Tools Tools

	ManifestPath string
	DataRoot     string
	OutputRoot   string
}

// Run processes one case. The returned error is non-nil only for
// environmental failures (invalid scene structure, unwritable output
// directory); a train failure is a normal, recorded outcome, reported
// through CaseResult.Status, not through the error.
func (r *CaseRunner) Run(ctx context.Context, sceneName string, index int) (CaseResult, error) {
	ctx = ctxlog.With(ctx, "scene", sceneName, "case", index)
	logger := ctxlog.FromContext(ctx)

	caseDir := scene.CaseDir(r.OutputRoot, sceneName, index)
	result := CaseResult{
		Scene:   sceneName,
		Index:   index,
		Status:  StatusPending,
		LogPath: filepath.Join(caseDir, logFile),
	}

	if err := os.MkdirAll(caseDir, 0o755); err != nil {
		return result, fmt.Errorf("create case directory: %w", err)
	}

	// Scene structure is checked before any stage runs, but after the case
	// directory exists so the failure still leaves a durable FAILED marker.
	if err := scene.Validate(r.DataRoot, sceneName); err != nil {
		result.Status = StatusFailed
		if werr := WriteStatus(caseDir, StatusFailed); werr != nil {
			logger.Error("Could not persist status marker.", "error", werr)
		}
		return result, err
	}

	log, err := os.OpenFile(result.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return result, fmt.Errorf("open case log: %w", err)
	}
	defer log.Close()

	if err := WriteStatus(caseDir, StatusPending); err != nil {
		return result, err
	}

	sceneDir := scene.Dir(r.DataRoot, sceneName)

	// --- Train (critical) ---
	logger.Info("Training case.", "log", result.LogPath)
	err = r.Runner.Run(ctx, extrun.Spec{
		Program: r.Tools.Python,
		Args:    r.Tools.trainArgs(sceneDir, caseDir, r.ManifestPath, index),
		Output:  log,
	})
	if err != nil {
		logger.Error("Training failed, skipping remaining stages.", "error", err, "log", result.LogPath)
		fmt.Fprintf(log, "ERROR: training failed: %v\n", err)
		result.Status = StatusFailed
		if werr := WriteStatus(caseDir, StatusFailed); werr != nil {
			logger.Error("Could not persist status marker.", "error", werr)
		}
		return result, nil
	}

	// --- Render, one sub-step per checkpoint iteration (non-critical) ---
	for _, iteration := range r.Tools.RenderIterations {
		logger.Info("Rendering checkpoint.", "iteration", iteration)
		err = r.Runner.Run(ctx, extrun.Spec{
			Program: r.Tools.Python,
			Args:    r.Tools.renderArgs(sceneDir, caseDir, r.ManifestPath, index, iteration),
			Output:  log,
		})
		if err != nil {
			logger.Warn("Render failed, continuing.", "iteration", iteration, "error", err)
			fmt.Fprintf(log, "WARNING: render at iteration %d failed: %v\n", iteration, err)
		}
	}

	// --- RGB metrics (non-critical) ---
	logger.Info("Computing RGB metrics.")
	err = r.Runner.Run(ctx, extrun.Spec{
		Program: r.Tools.Python,
		Args:    r.Tools.metricsArgs(sceneDir, caseDir, r.ManifestPath, index),
		Output:  log,
	})
	if err != nil {
		logger.Warn("RGB metrics failed, continuing.", "error", err)
		fmt.Fprintf(log, "WARNING: RGB metrics failed: %v\n", err)
	}

	// --- Depth metrics (conditional, non-critical) ---
	if scene.HasDepths(r.DataRoot, sceneName) {
		logger.Info("Computing depth metrics.")
		err = r.Runner.Run(ctx, extrun.Spec{
			Program: r.Tools.Python,
			Args:    r.Tools.depthMetricsArgs(sceneDir, caseDir, r.ManifestPath, index),
			Output:  log,
		})
		if err != nil {
			logger.Warn("Depth metrics failed, continuing.", "error", err)
			fmt.Fprintf(log, "WARNING: depth metrics failed: %v\n", err)
		}
	} else {
		logger.Info("No depths/ directory, skipping depth metrics.")
		fmt.Fprintln(log, "skipping depth metrics: no depths/ directory")
	}

	// Success hinges on training alone.
	result.Status = StatusSuccess
	if err := WriteStatus(caseDir, StatusSuccess); err != nil {
		return result, err
	}
	logger.Info("Case finished.", "status", result.Status)
	return result, nil
}
