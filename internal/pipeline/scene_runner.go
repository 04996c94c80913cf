// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file runs all cases of one scene. It is what a submitted scheduler
// job executes on its allocated node.
//
// Why strictly sequential?
//
// One case at a time bounds peak accelerator memory per allocation to a
// single training run. Cross-scene parallelism comes for free from the
// cluster scheduler; in-process parallelism would only fight it.

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/splatgrid/internal/ctxlog"
	"github.com/specialistvlad/splatgrid/internal/manifest"
)

// ErrCasesFailed reports that at least one case of a scene finished FAILED.
// The scene run still attempts every case before returning it.
var ErrCasesFailed = errors.New("one or more cases failed")

// SceneStats aggregates per-case outcomes for one scene.
type SceneStats struct {
	Total     int
	Succeeded int
	Failed    int
}

// SceneRunner drives the case pipeline across all cases of a scene.
type SceneRunner struct {
	Cases *CaseRunner
}

// Run processes every case of the named scene in index order 0..C-1, where C
// comes from the manifest. Case failures never abort the loop; the error is
// ErrCasesFailed when any case failed, so callers can exit non-zero while
// still having complete stats.
func (s *SceneRunner) Run(ctx context.Context, m *manifest.Manifest, sceneName string) (SceneStats, error) {
	logger := ctxlog.FromContext(ctx)

	count, err := m.CaseCount(sceneName)
	if err != nil {
		return SceneStats{}, err
	}

	stats := SceneStats{Total: count}
	logger.Info("Processing scene.", "scene", sceneName, "cases", count)

	for index := 0; index < count; index++ {
		result, err := s.Cases.Run(ctx, sceneName, index)
		if err != nil {
			// Environmental failure: recorded like a case failure so the
			// remaining cases still get their attempt.
			logger.Error("Case aborted.", "scene", sceneName, "case", index, "error", err)
			stats.Failed++
			continue
		}

		switch result.Status {
		case StatusSuccess:
			logger.Info("Case SUCCESS.", "scene", sceneName, "case", index)
			stats.Succeeded++
		default:
			logger.Error("Case FAILED.", "scene", sceneName, "case", index, "log", result.LogPath)
			stats.Failed++
		}
	}

	logger.Info("Scene finished.",
		"scene", sceneName,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"total", stats.Total,
	)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("scene %q: %d of %d cases: %w", sceneName, stats.Failed, stats.Total, ErrCasesFailed)
	}
	return stats, nil
}
