// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package manifest reads the declarative split manifest that drives a batch
// run. The manifest maps scene names to their cases, where a case set is
// either an explicit ordered sequence of case descriptors or a bare count
// that stands for indices 0..N-1.
//
// Why a dedicated package?
//
// The manifest is the single source of truth shared between this orchestrator
// and the external train/render/metrics programs: we only read scene names
// and case counts out of it, while the tools re-read the same file to pick
// their per-case configuration. Keeping the reader isolated (and side-effect
// free) means the orchestration layer can never drift from what the tools
// will see.
//
// Three syntaxes are accepted, chosen by file extension: native HCL (.hcl),
// JSON (.json, parsed through HCL's JSON syntax), and YAML (.yaml/.yml). All
// three support both the direct scene mapping and the nested "scenes"
// wrapper.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/splatgrid/internal/ctxlog"
)

// sceneEntry pairs a scene name with its resolved case count, preserving the
// order scenes were declared in.
type sceneEntry struct {
	name  string
	count int
}

// Manifest is the immutable, in-memory view of one manifest document.
type Manifest struct {
	path   string
	scenes []sceneEntry
	index  map[string]int
}

// Load reads and parses the manifest at path. It returns ErrNotFound when the
// file does not exist and a parse error (wrapping the underlying HCL
// diagnostics or YAML error) when the document is malformed.
func Load(ctx context.Context, path string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var entries []sceneEntry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl", ".json":
		entries, err = parseHCL(path, data, ext == ".json")
	case ".yaml", ".yml":
		entries, err = parseYAML(path, data)
	default:
		return nil, fmt.Errorf("manifest %s: unsupported extension %q (want .hcl, .json, .yaml or .yml)", path, ext)
	}
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		path:   path,
		scenes: entries,
		index:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if _, dup := m.index[e.name]; dup {
			return nil, fmt.Errorf("manifest %s: scene %q declared twice", path, e.name)
		}
		m.index[e.name] = i
	}

	logger.Debug("Manifest loaded.", "path", path, "scenes", len(entries))
	return m, nil
}

// Path returns the location the manifest was loaded from. The path is handed
// on to the external pipeline tools unchanged.
func (m *Manifest) Path() string {
	return m.path
}

// Scenes returns all scene names in declaration order.
func (m *Manifest) Scenes() []string {
	names := make([]string, len(m.scenes))
	for i, e := range m.scenes {
		names[i] = e.name
	}
	return names
}

// Len returns the number of declared scenes.
func (m *Manifest) Len() int {
	return len(m.scenes)
}

// CaseCount returns the number of cases declared for the given scene. A
// scene that is absent from the manifest is an error, never "zero work".
func (m *Manifest) CaseCount(scene string) (int, error) {
	i, ok := m.index[scene]
	if !ok {
		return 0, fmt.Errorf("scene %q: %w", scene, ErrSceneNotListed)
	}
	return m.scenes[i].count, nil
}

// checkCount enforces the case-count invariant shared by all three parsers:
// a count must be a positive integer. Zero and negative counts are both
// rejected, as is a count field that cannot be read as a whole number.
func checkCount(scene string, count int) error {
	if count <= 0 {
		return fmt.Errorf("scene %q declares %d cases: %w", scene, count, ErrMalformedCaseCount)
	}
	return nil
}
