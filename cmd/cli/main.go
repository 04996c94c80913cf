// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/splatgrid/internal/app"
	"github.com/specialistvlad/splatgrid/internal/cli"
)

// main is the entrypoint for the splatgrid application.
func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Operator output goes to outW, structured logs to logW.
func run(outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	splatgridApp := app.NewApp(outW, logW, appConfig)
	return splatgridApp.Run(context.Background())
}
