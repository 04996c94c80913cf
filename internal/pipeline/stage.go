// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the four pipeline stages and the argument contract the
// external tools expect.
//
// Why string argv instead of a tool API?
//
// Training, rendering and metric computation are opaque external programs
// (spec'd elsewhere, usually Python). The whole contract is: argv in, exit
// code out, everything else in the case log. Each stage receives the scene
// data path, the case output path, the manifest path and the case index, so
// the tools can pick their own per-case configuration out of the same
// manifest this orchestrator reads.

package pipeline

import (
	"strconv"
)

// Tools locates the external pipeline programs and fixes the checkpoint
// iterations that get rendered and evaluated.
type Tools struct {
	// Python is the interpreter used for all four stage scripts.
	Python string
	// TrainScript, RenderScript, MetricsScript and DepthMetricsScript are
	// paths to the external stage entry points.
	TrainScript        string
	RenderScript       string
	MetricsScript      string
	DepthMetricsScript string
	// RenderIterations are the training checkpoints to render, one render
	// sub-step per iteration.
	RenderIterations []int
}

// DefaultTools mirrors the conventional vanilla-3DGS layout: stage scripts
// in the working directory and the 7k/30k checkpoints.
func DefaultTools() Tools {
	return Tools{
		Python:             "python",
		TrainScript:        "train.py",
		RenderScript:       "render.py",
		MetricsScript:      "metrics.py",
		DepthMetricsScript: "depth_metrics.py",
		RenderIterations:   []int{7000, 30000},
	}
}

// stageArgs builds the shared argument tail every stage receives.
func stageArgs(sceneDir, caseDir, manifestPath string, caseIndex int) []string {
	return []string{
		"--source_path", sceneDir,
		"--model_path", caseDir,
		"--split_manifest", manifestPath,
		"--case_idx", strconv.Itoa(caseIndex),
	}
}

func (t Tools) trainArgs(sceneDir, caseDir, manifestPath string, caseIndex int) []string {
	return append([]string{t.TrainScript}, stageArgs(sceneDir, caseDir, manifestPath, caseIndex)...)
}

func (t Tools) renderArgs(sceneDir, caseDir, manifestPath string, caseIndex, iteration int) []string {
	args := append([]string{t.RenderScript}, stageArgs(sceneDir, caseDir, manifestPath, caseIndex)...)
	return append(args, "--iteration", strconv.Itoa(iteration))
}

func (t Tools) metricsArgs(sceneDir, caseDir, manifestPath string, caseIndex int) []string {
	return append([]string{t.MetricsScript}, stageArgs(sceneDir, caseDir, manifestPath, caseIndex)...)
}

func (t Tools) depthMetricsArgs(sceneDir, caseDir, manifestPath string, caseIndex int) []string {
	return append([]string{t.DepthMetricsScript}, stageArgs(sceneDir, caseDir, manifestPath, caseIndex)...)
}
