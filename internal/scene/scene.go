// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package scene encodes the on-disk contract for scene data and case output
// directories.
//
// Why a dedicated package?
//
// The directory layout is shared state between this orchestrator, the
// external train/render/metrics programs, and the results aggregation step.
// Centralizing the path arithmetic (and its inverse) here keeps the
// "<scene>_case<index>" convention in exactly one place.
package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/specialistvlad/splatgrid/internal/fsutil"
)

// ErrInvalidStructure reports a scene data directory that is missing the
// required sub-structure (an images/ or sparse/ subdirectory).
var ErrInvalidStructure = errors.New("invalid scene structure")

// Dir returns the data directory for a scene: <dataRoot>/<name>.
func Dir(dataRoot, name string) string {
	return filepath.Join(dataRoot, name)
}

// Validate checks that the scene's data directory exists and contains either
// an images/ or a sparse/ subdirectory. It must pass before any pipeline
// stage runs.
func Validate(dataRoot, name string) error {
	dir := Dir(dataRoot, name)
	if !fsutil.DirExists(dir) {
		return fmt.Errorf("scene %q: data directory %s does not exist: %w", name, dir, ErrInvalidStructure)
	}
	if !fsutil.DirExists(filepath.Join(dir, "images")) && !fsutil.DirExists(filepath.Join(dir, "sparse")) {
		return fmt.Errorf("scene %q: %s has neither images/ nor sparse/: %w", name, dir, ErrInvalidStructure)
	}
	return nil
}

// HasDepths reports whether the scene ships ground-truth depth maps. Their
// absence is a normal condition: it only disables the depth evaluation
// stage.
func HasDepths(dataRoot, name string) bool {
	return fsutil.DirExists(filepath.Join(Dir(dataRoot, name), "depths"))
}

// CaseDir returns the output directory for one case:
// <outputRoot>/<name>_case<index>.
func CaseDir(outputRoot, name string, index int) string {
	return filepath.Join(outputRoot, fmt.Sprintf("%s_case%d", name, index))
}

// ParseCaseDir splits a case directory basename back into its scene name and
// case index. Names without the "_case<index>" suffix report ok=false; the
// results walker uses this to skip unrelated directories.
func ParseCaseDir(basename string) (name string, index int, ok bool) {
	i := strings.LastIndex(basename, "_case")
	if i <= 0 {
		return "", 0, false
	}
	index, err := strconv.Atoi(basename[i+len("_case"):])
	if err != nil || index < 0 {
		return "", 0, false
	}
	return basename[:i], index, true
}
