// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/splatgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageText = `
splatgrid - batch runner for multi-stage reconstruction experiments on a
Slurm cluster.

Usage:
  splatgrid <command> [options]

Commands:
  submit     Submit one cluster job per scene listed in the manifest.
  scene      Process every case of one scene on this machine.
  aggregate  Collect per-case results into a batch summary.
  watch      Live scheduler-state view for a submitted batch.

Run 'splatgrid <command> -h' for command-specific options.
`

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	if len(args) == 0 {
		fmt.Fprint(output, usageText)
		return nil, true, nil
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "-h", "-help", "--help", "help":
		fmt.Fprint(output, usageText)
		return nil, true, nil
	case "submit":
		return parseSubmit(rest, output)
	case "scene":
		return parseScene(rest, output)
	case "aggregate":
		return parseAggregate(rest, output)
	case "watch":
		return parseWatch(rest, output)
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q; run 'splatgrid -h' for usage", command)}
	}
}

// commonFlags carries the flags every command shares.
type commonFlags struct {
	logFormat  *string
	logLevel   *string
	healthPort *int
}

func registerCommon(flagSet *flag.FlagSet) *commonFlags {
	common := &commonFlags{}
	common.logFormat = flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	common.logLevel = flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	common.healthPort = flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return common
}

// validate normalizes the shared flags or reports the first invalid one.
func (c *commonFlags) validate() (format, level string, err error) {
	format = strings.ToLower(*c.logFormat)
	if format != "text" && format != "json" {
		return "", "", &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	level = strings.ToLower(*c.logLevel)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return "", "", &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	return format, level, nil
}

// parseFlags runs the FlagSet and folds the shared flags into cfg. A true
// second return means help was requested.
func parseFlags(flagSet *flag.FlagSet, args []string, common *commonFlags, cfg *app.Config) (bool, error) {
	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return true, nil
		}
		return false, &ExitError{Code: 2, Message: err.Error()}
	}

	format, level, err := common.validate()
	if err != nil {
		return false, err
	}
	cfg.LogFormat = format
	cfg.LogLevel = level
	cfg.HealthcheckPort = *common.healthPort
	return false, nil
}

func buildConfig(cfg app.Config) (*app.Config, bool, error) {
	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}

func parseSubmit(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("splatgrid submit", flag.ContinueOnError)
	flagSet.SetOutput(output)

	manifest := flagSet.String("manifest", "", "Path to the scene manifest (.hcl, .json, .yaml).")
	dataRoot := flagSet.String("data-root", "", "Directory containing one subdirectory per scene.")
	outputRoot := flagSet.String("output-root", "", "Directory receiving per-case output directories.")
	logDir := flagSet.String("log-dir", "", "Directory for job logs and the monitor script. Defaults to the output root.")
	partition := flagSet.String("partition", "", "Cluster partition to submit to. Empty uses the scheduler default.")
	executable := flagSet.String("executable", "", "Binary the submitted jobs run. Defaults to this binary.")
	dryRun := flagSet.Bool("dry-run", false, "Print the per-scene commands without submitting anything.")
	common := registerCommon(flagSet)

	cfg := app.Config{Command: app.CommandSubmit}
	if done, err := parseFlags(flagSet, args, common, &cfg); done || err != nil {
		return nil, done, err
	}
	cfg.ManifestPath = *manifest
	cfg.DataRoot = *dataRoot
	cfg.OutputRoot = *outputRoot
	cfg.LogDir = *logDir
	cfg.Partition = *partition
	cfg.Executable = *executable
	cfg.DryRun = *dryRun

	return buildConfig(cfg)
}

func parseScene(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("splatgrid scene", flag.ContinueOnError)
	flagSet.SetOutput(output)

	manifest := flagSet.String("manifest", "", "Path to the scene manifest (.hcl, .json, .yaml).")
	dataRoot := flagSet.String("data-root", "", "Directory containing one subdirectory per scene.")
	outputRoot := flagSet.String("output-root", "", "Directory receiving per-case output directories.")
	scene := flagSet.String("scene", "", "Name of the scene to process.")
	common := registerCommon(flagSet)

	cfg := app.Config{Command: app.CommandScene}
	if done, err := parseFlags(flagSet, args, common, &cfg); done || err != nil {
		return nil, done, err
	}
	cfg.ManifestPath = *manifest
	cfg.DataRoot = *dataRoot
	cfg.OutputRoot = *outputRoot
	cfg.Scene = *scene

	return buildConfig(cfg)
}

func parseAggregate(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("splatgrid aggregate", flag.ContinueOnError)
	flagSet.SetOutput(output)

	outputRoot := flagSet.String("output-root", "", "Directory containing the per-case output directories.")
	common := registerCommon(flagSet)

	cfg := app.Config{Command: app.CommandAggregate}
	if done, err := parseFlags(flagSet, args, common, &cfg); done || err != nil {
		return nil, done, err
	}
	cfg.OutputRoot = *outputRoot

	return buildConfig(cfg)
}

func parseWatch(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("splatgrid watch", flag.ContinueOnError)
	flagSet.SetOutput(output)

	jobs := flagSet.String("jobs", "", "Comma-separated scheduler job IDs to watch.")
	script := flagSet.String("script", "", "Path to a generated check_status.sh to read job IDs from.")
	common := registerCommon(flagSet)

	cfg := app.Config{Command: app.CommandWatch}
	if done, err := parseFlags(flagSet, args, common, &cfg); done || err != nil {
		return nil, done, err
	}
	for _, id := range strings.Split(*jobs, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			cfg.Jobs = append(cfg.Jobs, id)
		}
	}
	cfg.ScriptPath = *script

	return buildConfig(cfg)
}
