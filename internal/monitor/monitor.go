// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package monitor generates the self-contained status script that a batch
// submission leaves behind. The script embeds the exact ordered job id list
// collected at submission time, so an operator can check on the batch from
// any shell with no splatgrid binary (or state) at hand.
package monitor

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/specialistvlad/splatgrid/internal/slurm"
)

var scriptTmpl = template.Must(template.New("check_status").Parse(`#!/bin/bash
# Generated by splatgrid; do not edit. Reports live scheduler state for the
# {{len .Records}} jobs of one batch submission.

JOB_IDS=({{range .Records}}{{.JobID}} {{end}})
SCENES=({{range .Records}}{{.Scene}} {{end}})

echo "Batch queue overview:"
squeue -j {{.IDList}} 2>/dev/null || true
echo

printf '%-12s %-32s %s\n' "JOB" "SCENE" "STATE"
for i in "${!JOB_IDS[@]}"; do
    id="${JOB_IDS[$i]}"
    scene="${SCENES[$i]}"
    state=$(squeue -h -j "$id" -o "%T" 2>/dev/null)
    if [ -z "$state" ]; then
        state="{{.UnknownState}}"
    fi
    printf '%-12s %-32s %s\n' "$id" "$scene" "$state"
done
`))

type scriptData struct {
	Records      []slurm.JobRecord
	IDList       string
	UnknownState string
}

// Script renders the monitor script for the given job records.
func Script(records []slurm.JobRecord) ([]byte, error) {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.JobID
	}

	var buf bytes.Buffer
	err := scriptTmpl.Execute(&buf, scriptData{
		Records:      records,
		IDList:       strings.Join(ids, ","),
		UnknownState: slurm.StateUnknown,
	})
	if err != nil {
		return nil, fmt.Errorf("render monitor script: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders the script and installs it executable at path.
func Write(path string, records []slurm.JobRecord) error {
	script, err := Script(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, script, 0o755); err != nil {
		return fmt.Errorf("write monitor script %s: %w", path, err)
	}
	return nil
}

// ParseJobIDs extracts the embedded job id list back out of a generated
// script. The watch command uses this so operators can point it at the
// artifact the submission already produced.
func ParseJobIDs(path string) ([]slurm.JobRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monitor script: %w", err)
	}

	var ids, scenes []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "JOB_IDS=("); ok {
			ids = strings.Fields(strings.TrimSuffix(v, ")"))
		}
		if v, ok := strings.CutPrefix(line, "SCENES=("); ok {
			scenes = strings.Fields(strings.TrimSuffix(v, ")"))
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("monitor script %s: no JOB_IDS line found", path)
	}

	records := make([]slurm.JobRecord, len(ids))
	for i, id := range ids {
		records[i] = slurm.JobRecord{JobID: id}
		if i < len(scenes) {
			records[i].Scene = scenes[i]
		}
	}
	return records, nil
}
