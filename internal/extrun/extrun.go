// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package extrun is the single choke point through which splatgrid invokes
// external programs: the pipeline tools (train/render/metrics) and the
// cluster scheduler commands.
//
// Why an interface?
//
// Every orchestration decision in this codebase hinges on an external
// program's exit code. Putting the exec behind a narrow interface lets the
// pipeline and submission logic be tested with scripted outcomes instead of
// real processes, and keeps the stdout/stderr capture policy in one place.
package extrun

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/specialistvlad/splatgrid/internal/ctxlog"
)

// Spec describes one external program invocation.
type Spec struct {
	// Program is the executable name or path.
	Program string
	// Args are the program arguments, excluding the program itself.
	Args []string
	// Dir is the working directory; empty means inherit.
	Dir string
	// Output receives the combined stdout and stderr of the process. Nil
	// discards the output.
	Output io.Writer
}

// Result holds the outcome of a captured invocation.
type Result struct {
	Stdout string
	Err    error
}

// Runner executes external programs.
type Runner interface {
	// Run executes the program, streaming combined output to spec.Output,
	// and returns the process error (nil on exit code 0).
	Run(ctx context.Context, spec Spec) error

	// Capture executes the program and returns its stdout as a string.
	// Stderr is folded into the returned error on failure. Used for
	// scheduler commands whose stdout must be parsed.
	Capture(ctx context.Context, program string, args ...string) Result
}

// ExecRunner is the production Runner backed by os/exec. Invocations block
// until the process exits; time limits are the scheduler's job, not ours.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, spec Spec) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running external program.", "program", spec.Program, "args", strings.Join(spec.Args, " "))

	cmd := exec.CommandContext(ctx, spec.Program, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Output != nil {
		// Command-line echo first, so the case log reads like a session
		// transcript.
		fmt.Fprintf(spec.Output, "$ %s %s\n", spec.Program, strings.Join(spec.Args, " "))
		cmd.Stdout = spec.Output
		cmd.Stderr = spec.Output
	}

	return cmd.Run()
}

// Capture implements Runner.
func (ExecRunner) Capture(ctx context.Context, program string, args ...string) Result {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Capturing external program output.", "program", program, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, program, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && stderr.Len() > 0 {
		err = fmt.Errorf("%s: %w: %s", program, err, strings.TrimSpace(stderr.String()))
	}
	return Result{Stdout: stdout.String(), Err: err}
}
