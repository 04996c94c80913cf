// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package slurm wraps the external cluster scheduler's command-line
// interface. The scheduler is an opaque collaborator: splatgrid submits one
// unit of work per scene through sbatch and reads live state back through
// squeue, nothing more. Queueing, resource allocation, cancellation and time
// limits all stay on the scheduler's side of the fence.
package slurm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/splatgrid/internal/ctxlog"
	"github.com/specialistvlad/splatgrid/internal/extrun"
)

// JobRecord pairs a scene with the scheduler-issued identifier of the unit
// of work submitted for it. Records are immutable after creation.
type JobRecord struct {
	Scene string
	JobID string
}

// SubmitSpec describes one unit of work to submit.
type SubmitSpec struct {
	// JobName is the human-identifiable label shown in the queue.
	JobName string
	// LogPath receives the job's stdout/stderr. Slurm expands %j to the job
	// id, which keeps repeated attempts from overwriting each other.
	LogPath string
	// Partition optionally selects a scheduler partition.
	Partition string
	// Command is the command line the allocated node will run.
	Command []string
}

// StateUnknown is the state reported for identifiers the scheduler no longer
// knows about. Slurm forgets jobs shortly after they leave the queue, so
// this reads as an instruction, not an error.
const StateUnknown = "completed or failed - check logs"

// JobState is one row of a Query result.
type JobState struct {
	JobID string
	State string
}

var submittedRe = regexp.MustCompile(`Submitted batch job (\d+)`)

// Client talks to the scheduler through its command-line tools.
type Client struct {
	runner extrun.Runner
	sbatch string
	squeue string
}

// NewClient returns a Client that shells out to sbatch and squeue via the
// given runner.
func NewClient(runner extrun.Runner) *Client {
	return &Client{runner: runner, sbatch: "sbatch", squeue: "squeue"}
}

// Submit hands one unit of work to the scheduler and returns the issued job
// identifier parsed from sbatch's acknowledgement line.
func (c *Client) Submit(ctx context.Context, spec SubmitSpec) (string, error) {
	logger := ctxlog.FromContext(ctx)

	args := []string{"--job-name=" + spec.JobName, "--output=" + spec.LogPath}
	if spec.Partition != "" {
		args = append(args, "--partition="+spec.Partition)
	}
	args = append(args, "--wrap="+strings.Join(spec.Command, " "))

	res := c.runner.Capture(ctx, c.sbatch, args...)
	if res.Err != nil {
		return "", fmt.Errorf("submit %s: %w", spec.JobName, res.Err)
	}

	match := submittedRe.FindStringSubmatch(res.Stdout)
	if match == nil {
		return "", fmt.Errorf("submit %s: could not find job id in sbatch output %q", spec.JobName, strings.TrimSpace(res.Stdout))
	}

	logger.Debug("Job submitted.", "job_name", spec.JobName, "job_id", match[1])
	return match[1], nil
}

// Query asks the scheduler for the live state of each identifier. Jobs the
// scheduler no longer tracks come back as StateUnknown; Query itself never
// fails, so a half-drained queue still renders a full table.
func (c *Client) Query(ctx context.Context, ids []string) []JobState {
	states := make([]JobState, 0, len(ids))
	for _, id := range ids {
		res := c.runner.Capture(ctx, c.squeue, "-h", "-j", id, "-o", "%T")
		state := strings.TrimSpace(res.Stdout)
		if res.Err != nil || state == "" {
			state = StateUnknown
		}
		states = append(states, JobState{JobID: id, State: state})
	}
	return states
}
