// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package app wires configuration, logging and the command implementations
// into one runnable unit. Construction is side-effect free so tests can
// build an App against buffers and temp directories.
package app

import (
	"io"
	"log/slog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp is the constructor for the main application. Operator-facing
// output (summaries, tables, the watch TUI) goes to outW; structured logs
// go to logW so they never interleave with rendered output.
func NewApp(outW, logW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
	}
}

// Config returns the validated configuration. This is primarily for testing.
func (a *App) Config() *Config {
	return a.config
}
