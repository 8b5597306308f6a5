// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisflux/cgfence/internal/clock"
	"github.com/aegisflux/cgfence/internal/ctlplane"
	"github.com/aegisflux/cgfence/internal/rules"
)

func startDaemonSocket(t *testing.T) string {
	t.Helper()
	clk := clock.NewManual(1)
	srv := ctlplane.NewServer(
		rules.NewSyscallSurface(16, clk),
		rules.NewEgressSurface(16, clk),
		clk, nil,
	)
	sock := filepath.Join(t.TempDir(), "ctl.sock")
	require.NoError(t, srv.Start(sock))
	t.Cleanup(srv.Stop)
	return sock
}

func TestRunAddSyscallRejectsUnknownNameWithoutDialing(t *testing.T) {
	// No daemon is running on this path; the name check must fire
	// before the dial, so the error is about the name, not the socket.
	err := RunAddSyscall(filepath.Join(t.TempDir(), "missing.sock"), 1, 10, "frobnicate", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown syscall")
}

func TestRunRemoveMissingRuleMessage(t *testing.T) {
	sock := startDaemonSocket(t)
	err := RunRemove(sock, ctlplane.SurfaceSyscall, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRunAddAndRemoveRoundTrip(t *testing.T) {
	sock := startDaemonSocket(t)
	require.NoError(t, RunAddSyscall(sock, 1, 12345, "execve", 60))
	require.NoError(t, RunRemove(sock, ctlplane.SurfaceSyscall, 1))
}
