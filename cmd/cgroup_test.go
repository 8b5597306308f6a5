// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunGetCgroupRejectsBadPid(t *testing.T) {
	require.Error(t, RunGetCgroup(0))
	require.Error(t, RunGetCgroup(-5))
}

func TestRunGetCgroupMissingProcess(t *testing.T) {
	// A pid far above pid_max never resolves; the command reports it
	// instead of printing the unresolved sentinel.
	require.Error(t, RunGetCgroup(1<<30))
}
