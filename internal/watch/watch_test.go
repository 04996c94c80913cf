// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package watch

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/specialistvlad/splatgrid/internal/slurm"
	"github.com/specialistvlad/splatgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	ctx, _ := testutil.LoggedContext(t)
	records := []slurm.JobRecord{
		{Scene: "s1", JobID: "101"},
		{Scene: "s2", JobID: "102"},
	}
	return New(ctx, nil, records)
}

func TestView_BeforeFirstPoll(t *testing.T) {
	t.Parallel()
	m := newTestModel(t)

	view := m.View()
	require.Contains(t, view, "Watching 2 jobs")
	require.Contains(t, view, "s1")
	require.Contains(t, view, "...")
}

func TestUpdate_StatesMessage(t *testing.T) {
	t.Parallel()
	m := newTestModel(t)

	next, _ := m.Update(statesMsg{
		{JobID: "101", State: "RUNNING"},
		{JobID: "102", State: slurm.StateUnknown},
	})

	view := next.View()
	require.Contains(t, view, "RUNNING")
	require.Contains(t, view, slurm.StateUnknown)
	require.NotContains(t, view, "...")
}

func TestUpdate_QuitKeys(t *testing.T) {
	t.Parallel()

	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	}
	for _, key := range keys {
		m := newTestModel(t)
		next, cmd := m.Update(key)
		require.NotNil(t, cmd, "key %q should quit", key.String())
		require.Empty(t, next.View(), "quitting view should clear")
	}
}
