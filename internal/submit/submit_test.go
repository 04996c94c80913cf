// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/splatgrid/internal/extrun"
	"github.com/specialistvlad/splatgrid/internal/manifest"
	"github.com/specialistvlad/splatgrid/internal/slurm"
	"github.com/specialistvlad/splatgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

// queueRunner hands out scripted sbatch acknowledgements and records every
// command line it saw.
type queueRunner struct {
	results []extrun.Result
	calls   [][]string
}

func (r *queueRunner) Run(ctx context.Context, spec extrun.Spec) error {
	panic("the coordinator must not exec pipeline work")
}

func (r *queueRunner) Capture(ctx context.Context, program string, args ...string) extrun.Result {
	r.calls = append(r.calls, append([]string{program}, args...))
	res := r.results[0]
	r.results = r.results[1:]
	return res
}

func ack(id int) extrun.Result {
	return extrun.Result{Stdout: fmt.Sprintf("Submitted batch job %d\n", id)}
}

func newCoordinator(t *testing.T, runner extrun.Runner, manifestContent string) *Coordinator {
	t.Helper()
	root := t.TempDir()
	manifestPath := filepath.Join(root, "splits.json")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifestContent), 0o644))

	return &Coordinator{
		Out:          &bytes.Buffer{},
		Client:       slurm.NewClient(runner),
		ManifestPath: manifestPath,
		DataRoot:     filepath.Join(root, "data"),
		OutputRoot:   filepath.Join(root, "output"),
		LogDir:       root,
		Executable:   "splatgrid",
	}
}

func TestRun_SubmitsOneJobPerScene(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	// The canonical scenario: two scenes, case lists of length 2 and 1.
	runner := &queueRunner{results: []extrun.Result{ack(101), ack(102)}}
	c := newCoordinator(t, runner, `{"scenes": {"s1": [0, 1], "s2": [0]}}`)

	records, err := c.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, []slurm.JobRecord{
		{Scene: "s1", JobID: "101"},
		{Scene: "s2", JobID: "102"},
	}, records)

	require.Len(t, runner.calls, 2)
	require.Contains(t, runner.calls[0], "--job-name=splat_s1")
	require.Contains(t, runner.calls[1], "--job-name=splat_s2")

	// Each job wraps a single-scene invocation carrying the batch paths.
	wrap := runner.calls[0][len(runner.calls[0])-1]
	require.Contains(t, wrap, "scene -scene s1")
	require.Contains(t, wrap, "-manifest "+c.ManifestPath)
	require.Contains(t, wrap, "-output-root "+c.OutputRoot)
}

func TestRun_SubmissionFailureDoesNotBlockNextScene(t *testing.T) {
	t.Parallel()
	ctx, buf := testutil.LoggedContext(t)

	runner := &queueRunner{results: []extrun.Result{
		{Err: errors.New("sbatch: error: queue full")},
		ack(102),
		ack(103),
	}}
	c := newCoordinator(t, runner, `{"a": 1, "b": 1, "c": 1}`)

	records, err := c.Run(ctx)
	require.ErrorIs(t, err, ErrSubmissionsFailed)
	require.Len(t, runner.calls, 3, "every scene must get its submission attempt")
	require.Equal(t, []slurm.JobRecord{
		{Scene: "b", JobID: "102"},
		{Scene: "c", JobID: "103"},
	}, records)
	require.Contains(t, buf.String(), "Submission failed")
}

func TestRun_WritesMonitorScript(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &queueRunner{results: []extrun.Result{ack(7), ack(8)}}
	c := newCoordinator(t, runner, `{"s1": 1, "s2": 2}`)

	_, err := c.Run(ctx)
	require.NoError(t, err)

	script, err := os.ReadFile(filepath.Join(c.LogDir, "check_status.sh"))
	require.NoError(t, err)
	require.Contains(t, string(script), "JOB_IDS=(7 8 )")
}

func TestRun_PerAttemptLogPaths(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &queueRunner{results: []extrun.Result{ack(1)}}
	c := newCoordinator(t, runner, `{"s1": 1}`)

	_, err := c.Run(ctx)
	require.NoError(t, err)

	// %j expands to the scheduler job id, so resubmissions never clobber an
	// earlier attempt's log.
	var logArg string
	for _, arg := range runner.calls[0] {
		if strings.HasPrefix(arg, "--output=") {
			logArg = arg
		}
	}
	require.Contains(t, logArg, "s1_%j.log")
}

func TestRun_EmptySceneSetIsFatal(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &queueRunner{}
	c := newCoordinator(t, runner, `{"scenes": {}}`)

	_, err := c.Run(ctx)
	require.ErrorIs(t, err, manifest.ErrNoScenes)
	require.Empty(t, runner.calls, "nothing may be submitted for an empty batch")
}

func TestRun_MissingManifestIsFatal(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &queueRunner{}
	c := newCoordinator(t, runner, `{"s1": 1}`)
	c.ManifestPath = filepath.Join(t.TempDir(), "absent.json")

	_, err := c.Run(ctx)
	require.ErrorIs(t, err, manifest.ErrNotFound)
	require.Empty(t, runner.calls)
}

func TestRun_DryRunSubmitsNothing(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.LoggedContext(t)

	runner := &queueRunner{}
	c := newCoordinator(t, runner, `{"s1": 1, "s2": 1}`)
	c.DryRun = true
	out := &bytes.Buffer{}
	c.Out = out

	records, err := c.Run(ctx)
	require.NoError(t, err)
	require.Nil(t, records)
	require.Empty(t, runner.calls)
	require.Contains(t, out.String(), "would submit 2 scenes")
	require.NoFileExists(t, filepath.Join(c.LogDir, "check_status.sh"))
}
