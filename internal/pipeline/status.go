// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Status is the final disposition of one case. It is returned directly from
// the case runner and also persisted as a durable marker file in the case
// output directory, so batch-level reporting can re-read outcomes long after
// the scheduler job exited.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// statusFile is the durable marker's basename inside a case directory.
const statusFile = "STATUS"

// WriteStatus persists the marker atomically (write-temp-then-rename), so a
// reader never observes a half-written state.
func WriteStatus(caseDir string, status Status) error {
	path := filepath.Join(caseDir, statusFile)

	tmp, err := os.CreateTemp(caseDir, ".status-*")
	if err != nil {
		return fmt.Errorf("write status for %s: %w", caseDir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(string(status) + "\n"); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write status for %s: %w", caseDir, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write status for %s: %w", caseDir, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write status for %s: %w", caseDir, err)
	}
	return nil
}

// ReadStatus loads the durable marker for a case directory.
func ReadStatus(caseDir string) (Status, error) {
	data, err := os.ReadFile(filepath.Join(caseDir, statusFile))
	if err != nil {
		return "", fmt.Errorf("read status for %s: %w", caseDir, err)
	}

	switch s := Status(strings.TrimSpace(string(data))); s {
	case StatusPending, StatusSuccess, StatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("read status for %s: unknown status %q", caseDir, s)
	}
}
