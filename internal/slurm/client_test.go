// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package slurm

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/splatgrid/internal/extrun"
	"github.com/specialistvlad/splatgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

// scriptedRunner fakes the scheduler commands: each Capture call pops the
// next scripted result and records the invocation.
type scriptedRunner struct {
	results []extrun.Result
	calls   [][]string
}

func (r *scriptedRunner) Run(ctx context.Context, spec extrun.Spec) error {
	panic("slurm client must not use Run")
}

func (r *scriptedRunner) Capture(ctx context.Context, program string, args ...string) extrun.Result {
	r.calls = append(r.calls, append([]string{program}, args...))
	if len(r.results) == 0 {
		return extrun.Result{}
	}
	res := r.results[0]
	r.results = r.results[1:]
	return res
}

func TestSubmit_ParsesJobID(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &scriptedRunner{results: []extrun.Result{
		{Stdout: "Submitted batch job 424242\n"},
	}}
	client := NewClient(runner)

	id, err := client.Submit(ctx, SubmitSpec{
		JobName:   "splat_s1",
		LogPath:   "/logs/s1_%j.log",
		Partition: "gpu",
		Command:   []string{"splatgrid", "scene", "-scene", "s1"},
	})
	require.NoError(t, err)
	require.Equal(t, "424242", id)

	require.Len(t, runner.calls, 1)
	require.Equal(t, []string{
		"sbatch",
		"--job-name=splat_s1",
		"--output=/logs/s1_%j.log",
		"--partition=gpu",
		"--wrap=splatgrid scene -scene s1",
	}, runner.calls[0])
}

func TestSubmit_CommandFailure(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &scriptedRunner{results: []extrun.Result{
		{Err: errors.New("sbatch: error: invalid partition")},
	}}
	client := NewClient(runner)

	_, err := client.Submit(ctx, SubmitSpec{JobName: "splat_s1", Command: []string{"true"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "splat_s1")
}

func TestSubmit_UnparseableAcknowledgement(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &scriptedRunner{results: []extrun.Result{
		{Stdout: "something unexpected\n"},
	}}
	client := NewClient(runner)

	_, err := client.Submit(ctx, SubmitSpec{JobName: "splat_s1", Command: []string{"true"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "could not find job id")
}

func TestQuery_MixedStates(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &scriptedRunner{results: []extrun.Result{
		{Stdout: "RUNNING\n"},
		{Stdout: "", Err: errors.New("squeue: error: Invalid job id specified")},
		{Stdout: "\n"}, // drained from the queue, empty reply
	}}
	client := NewClient(runner)

	states := client.Query(ctx, []string{"1", "2", "3"})
	require.Equal(t, []JobState{
		{JobID: "1", State: "RUNNING"},
		{JobID: "2", State: StateUnknown},
		{JobID: "3", State: StateUnknown},
	}, states)
}
