// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package system

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/splatgrid/internal/app"
)

func writeCase(t *testing.T, outputRoot, caseDir, results string) {
	t.Helper()
	dir := filepath.Join(outputRoot, caseDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if results != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "results.json"), []byte(results), 0o600))
	}
}

// Test for: aggregate over a finished batch produces the summary artifacts.
func TestAggregate_Batch_SceneWeightedOverall(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// garden has two cases (PSNR 20 and 30, scene mean 25); bicycle has one
	// (PSNR 35). The overall mean weighs scenes equally: (25 + 35) / 2 = 30.
	outputRoot := t.TempDir()
	writeCase(t, outputRoot, "garden_case0", `{"ours_30000": {"PSNR": 20.0}}`)
	writeCase(t, outputRoot, "garden_case1", `{"ours_30000": {"PSNR": 30.0}}`)
	writeCase(t, outputRoot, "bicycle_case0", `{"ours_30000": {"PSNR": 35.0}}`)
	// An abandoned case without results must be counted, not averaged.
	writeCase(t, outputRoot, "bicycle_case1", "")

	config, err := app.NewConfig(app.Config{
		Command:    app.CommandAggregate,
		OutputRoot: outputRoot,
		LogLevel:   "info",
		LogFormat:  "text",
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &bytes.Buffer{}
	testApp := app.NewApp(out, logs, config)

	// --- Act ---
	runErr := testApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, runErr)

	data, err := os.ReadFile(filepath.Join(outputRoot, "results_summary.json"))
	require.NoError(t, err)

	var summary struct {
		Scenes         int `json:"scenes"`
		Cases          int `json:"cases"`
		MissingResults int `json:"missing_results"`
		Overall        map[string]map[string]struct {
			Mean  float64 `json:"mean"`
			Count int     `json:"count"`
		} `json:"overall_statistics"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))

	require.Equal(t, 2, summary.Scenes)
	require.Equal(t, 4, summary.Cases)
	require.Equal(t, 1, summary.MissingResults)

	psnr := summary.Overall["ours_30000"]["PSNR"]
	require.InDelta(t, 30.0, psnr.Mean, 1e-9)
	require.Equal(t, 2, psnr.Count, "overall stats run over per-scene means")

	require.FileExists(t, filepath.Join(outputRoot, "results_summary.csv"))
	require.Contains(t, out.String(), "Overall Results")
}
