// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/splatgrid/internal/slurm"
	"github.com/stretchr/testify/require"
)

var records = []slurm.JobRecord{
	{Scene: "s1", JobID: "101"},
	{Scene: "s2", JobID: "102"},
	{Scene: "s3", JobID: "103"},
}

func TestScript_EmbedsIdsInOrder(t *testing.T) {
	t.Parallel()

	script, err := Script(records)
	require.NoError(t, err)

	text := string(script)
	require.True(t, strings.HasPrefix(text, "#!/bin/bash"))
	require.Contains(t, text, "JOB_IDS=(101 102 103 )")
	require.Contains(t, text, "SCENES=(s1 s2 s3 )")
	require.Contains(t, text, "squeue -j 101,102,103")
	require.Contains(t, text, slurm.StateUnknown)
}

func TestWrite_Executable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "check_status.sh")
	require.NoError(t, Write(path, records))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o111, "monitor script must be executable")
}

func TestParseJobIDs_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "check_status.sh")
	require.NoError(t, Write(path, records))

	parsed, err := ParseJobIDs(path)
	require.NoError(t, err)
	require.Equal(t, records, parsed)
}

func TestParseJobIDs_NotAScript(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "noise.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/bash\necho hi\n"), 0o755))

	_, err := ParseJobIDs(path)
	require.Error(t, err)
}
