// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package results aggregates the per-case results.json files that the RGB
// metrics stage leaves behind into per-scene and batch-wide statistics.
//
// Each results.json maps a checkpoint label (e.g. "ours_30000") to a metric
// map (PSNR/SSIM/LPIPS). Per-scene statistics run over the scene's case
// values; overall statistics run over the per-scene means, so a scene with
// many cases does not outweigh one with few.
package results

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/specialistvlad/splatgrid/internal/ctxlog"
	"github.com/specialistvlad/splatgrid/internal/fsutil"
	"github.com/specialistvlad/splatgrid/internal/scene"
)

// resultsFile is the per-case metrics file written by the RGB metrics stage.
const resultsFile = "results.json"

// Stats summarizes one metric's sample set.
type Stats struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// checkpointStats maps checkpoint label → metric name → stats.
type checkpointStats map[string]map[string]Stats

// Summary is the complete aggregation of one output root.
type Summary struct {
	Scenes         int                        `json:"scenes"`
	Cases          int                        `json:"cases"`
	MissingResults int                        `json:"missing_results"`
	Overall        checkpointStats            `json:"overall_statistics"`
	PerScene       map[string]checkpointStats `json:"per_scene_statistics"`
}

// Aggregate walks <outputRoot>/<scene>_case<idx>/results.json and computes
// the summary. Cases without a results file are counted, warned about, and
// otherwise skipped: an unevaluated case must not zero out a scene's stats.
func Aggregate(ctx context.Context, outputRoot string) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	dirs, err := fsutil.FindDirsContaining(outputRoot, "_case")
	if err != nil {
		return nil, fmt.Errorf("scan output root %s: %w", outputRoot, err)
	}

	// scene → checkpoint → metric → case values
	values := map[string]map[string]map[string][]float64{}
	summary := &Summary{
		Overall:  checkpointStats{},
		PerScene: map[string]checkpointStats{},
	}

	for _, dir := range dirs {
		sceneName, _, ok := scene.ParseCaseDir(dir)
		if !ok {
			continue
		}
		summary.Cases++

		path := filepath.Join(outputRoot, dir, resultsFile)
		caseResults, err := readResults(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Warn("Missing results file.", "case_dir", dir)
			} else {
				logger.Warn("Unreadable results file.", "case_dir", dir, "error", err)
			}
			summary.MissingResults++
			continue
		}

		for checkpoint, metrics := range caseResults {
			for metric, value := range metrics {
				byCheckpoint, ok := values[sceneName]
				if !ok {
					byCheckpoint = map[string]map[string][]float64{}
					values[sceneName] = byCheckpoint
				}
				byMetric, ok := byCheckpoint[checkpoint]
				if !ok {
					byMetric = map[string][]float64{}
					byCheckpoint[checkpoint] = byMetric
				}
				byMetric[metric] = append(byMetric[metric], value)
			}
		}
	}

	if summary.Cases == 0 {
		return nil, fmt.Errorf("no case directories found under %s", outputRoot)
	}

	// Per-scene statistics over case values.
	for sceneName, byCheckpoint := range values {
		summary.Scenes++
		sceneStats := checkpointStats{}
		for checkpoint, byMetric := range byCheckpoint {
			sceneStats[checkpoint] = map[string]Stats{}
			for metric, samples := range byMetric {
				sceneStats[checkpoint][metric] = computeStats(samples)
			}
		}
		summary.PerScene[sceneName] = sceneStats
	}

	// Overall statistics over per-scene means.
	sceneMeans := map[string]map[string][]float64{}
	for _, sceneStats := range summary.PerScene {
		for checkpoint, byMetric := range sceneStats {
			if sceneMeans[checkpoint] == nil {
				sceneMeans[checkpoint] = map[string][]float64{}
			}
			for metric, stats := range byMetric {
				sceneMeans[checkpoint][metric] = append(sceneMeans[checkpoint][metric], stats.Mean)
			}
		}
	}
	for checkpoint, byMetric := range sceneMeans {
		summary.Overall[checkpoint] = map[string]Stats{}
		for metric, means := range byMetric {
			summary.Overall[checkpoint][metric] = computeStats(means)
		}
	}

	logger.Info("Results aggregated.",
		"scenes", summary.Scenes,
		"cases", summary.Cases,
		"missing", summary.MissingResults,
	)
	return summary, nil
}

// readResults loads one results.json, keeping only numeric metric values.
func readResults(path string) (map[string]map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make(map[string]map[string]float64, len(raw))
	for checkpoint, metrics := range raw {
		out[checkpoint] = map[string]float64{}
		for metric, value := range metrics {
			if f, ok := value.(float64); ok {
				out[checkpoint][metric] = f
			}
		}
	}
	return out, nil
}

// computeStats returns mean, population standard deviation, min and max.
func computeStats(samples []float64) Stats {
	s := Stats{Count: len(samples), Min: math.Inf(1), Max: math.Inf(-1)}
	if s.Count == 0 {
		return Stats{}
	}

	var sum float64
	for _, v := range samples {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(s.Count)

	var sq float64
	for _, v := range samples {
		d := v - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(s.Count))
	return s
}

// WriteJSON persists the full summary.
func (s *Summary) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

// WriteCSV persists the overall statistics as a flat table.
func (s *Summary) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Checkpoint", "Metric", "Mean", "Std", "Min", "Max", "Count"}); err != nil {
		return err
	}
	for _, checkpoint := range sortedKeys(s.Overall) {
		byMetric := s.Overall[checkpoint]
		metrics := make([]string, 0, len(byMetric))
		for m := range byMetric {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, metric := range metrics {
			st := byMetric[metric]
			if err := w.Write([]string{
				checkpoint, metric,
				strconv.FormatFloat(st.Mean, 'f', 6, 64),
				strconv.FormatFloat(st.Std, 'f', 6, 64),
				strconv.FormatFloat(st.Min, 'f', 6, 64),
				strconv.FormatFloat(st.Max, 'f', 6, 64),
				strconv.Itoa(st.Count),
			}); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	legendStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// metricOrder pins the display order of the standard RGB metrics; anything
// else follows alphabetically.
var metricOrder = []string{"PSNR", "SSIM", "LPIPS"}

// Render formats the overall statistics for terminal display.
func (s *Summary) Render() string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render("Overall Results"))
	fmt.Fprintln(&b, legendStyle.Render(fmt.Sprintf(
		"%d scenes, %d cases (%d missing results.json)", s.Scenes, s.Cases, s.MissingResults)))

	for _, checkpoint := range sortedKeys(s.Overall) {
		byMetric := s.Overall[checkpoint]
		fmt.Fprintf(&b, "\n%s:\n", checkpoint)
		fmt.Fprintf(&b, "  %-10s %12s %12s %12s %12s\n", "Metric", "Mean", "Std", "Min", "Max")

		for _, metric := range orderedMetrics(byMetric) {
			st := byMetric[metric]
			fmt.Fprintf(&b, "  %-10s %12.4f %12.4f %12.4f %12.4f\n",
				metric, st.Mean, st.Std, st.Min, st.Max)
		}
	}
	return b.String()
}

func orderedMetrics(byMetric map[string]Stats) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range metricOrder {
		if _, ok := byMetric[m]; ok {
			out = append(out, m)
			seen[m] = true
		}
	}
	var rest []string
	for m := range byMetric {
		if !seen[m] {
			rest = append(rest, m)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func sortedKeys(cs checkpointStats) []string {
	keys := make([]string, 0, len(cs))
	for k := range cs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
