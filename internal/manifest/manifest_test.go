// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/splatgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DirectMapping_HCL(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	path := writeManifest(t, "splits.hcl", `
		scene0686_01 = [0, 1]
		scene0700_00 = 3
	`)

	m, err := Load(ctx, path)
	require.NoError(t, err)
	require.Equal(t, []string{"scene0686_01", "scene0700_00"}, m.Scenes())

	count, err := m.CaseCount("scene0686_01")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = m.CaseCount("scene0700_00")
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestLoad_ScenesWrapper_JSON(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	// The scenario from the original split files: explicit case lists under a
	// "scenes" key.
	path := writeManifest(t, "splits.json", `{"scenes": {"s1": [0, 1], "s2": [0]}}`)

	m, err := Load(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	count, err := m.CaseCount("s1")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = m.CaseCount("s2")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestLoad_ScenesWrapper_YAML(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	path := writeManifest(t, "splits.yaml", `
scenes:
  s1:
    - 0
    - 1
  s2: 1
`)

	m, err := Load(ctx, path)
	require.NoError(t, err)
	require.Equal(t, []string{"s1", "s2"}, m.Scenes())

	count, err := m.CaseCount("s1")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestLoad_SyntaxParity(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	// The same logical manifest in all three syntaxes must resolve to the
	// same scene set and counts.
	docs := map[string]string{
		"m.hcl":  "alpha = 2\nbeta = [0]\n",
		"m.json": `{"alpha": 2, "beta": [0]}`,
		"m.yaml": "alpha: 2\nbeta:\n  - 0\n",
	}

	for name, content := range docs {
		m, err := Load(ctx, writeManifest(t, name, content))
		require.NoError(t, err, "syntax %s", name)

		count, err := m.CaseCount("alpha")
		require.NoError(t, err, "syntax %s", name)
		require.Equal(t, 2, count, "syntax %s", name)

		count, err = m.CaseCount("beta")
		require.NoError(t, err, "syntax %s", name)
		require.Equal(t, 1, count, "syntax %s", name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	_, err := Load(ctx, filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_MalformedDocument(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	_, err := Load(ctx, writeManifest(t, "broken.json", `{"scenes": `))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	_, err := Load(ctx, writeManifest(t, "splits.toml", `s1 = 2`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported extension")
}

func TestLoad_ZeroAndNegativeCounts(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	// Zero cases and an empty case list are manifest bugs, not empty work.
	for _, content := range []string{
		`{"s1": 0}`,
		`{"s1": -1}`,
		`{"s1": []}`,
		`{"scenes": {"s1": 0}}`,
	} {
		_, err := Load(ctx, writeManifest(t, "m.json", content))
		require.ErrorIs(t, err, ErrMalformedCaseCount, "content %s", content)
	}
}

func TestLoad_NonIntegerCount(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	_, err := Load(ctx, writeManifest(t, "m.json", `{"s1": 1.5}`))
	require.ErrorIs(t, err, ErrMalformedCaseCount)
}

func TestCaseCount_SceneNotListed(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	m, err := Load(ctx, writeManifest(t, "m.json", `{"s1": 1}`))
	require.NoError(t, err)

	_, err = m.CaseCount("unknown")
	require.ErrorIs(t, err, ErrSceneNotListed)
}

func TestLoad_DuplicateScene_YAML(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	_, err := Load(ctx, writeManifest(t, "m.yaml", "s1: 1\ns1: 2\n"))
	require.Error(t, err)
}
