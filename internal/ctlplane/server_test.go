// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ctlplane

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisflux/cgfence/internal/clock"
	"github.com/aegisflux/cgfence/internal/errors"
	"github.com/aegisflux/cgfence/internal/rules"
)

func startTestServer(t *testing.T) (*Client, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(1_000_000)
	sys := rules.NewSyscallSurface(16, clk)
	eg := rules.NewEgressSurface(16, clk)
	srv := NewServer(sys, eg, clk, nil)

	sock := filepath.Join(t.TempDir(), "ctl.sock")
	require.NoError(t, srv.Start(sock))
	t.Cleanup(srv.Stop)

	cl, err := Dial(sock)
	require.NoError(t, err)
	t.Cleanup(func() { cl.Close() })
	return cl, clk
}

func TestAddCheckRemoveRoundTrip(t *testing.T) {
	cl, _ := startTestServer(t)

	err := cl.AddSyscallRule(AddSyscallRuleArgs{
		RuleID: 1, CgroupID: 12345, Syscall: "execve", TTLSeconds: 3600,
	})
	require.NoError(t, err)

	active, err := cl.CheckRule(SurfaceSyscall, 1)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, cl.RemoveRule(SurfaceSyscall, 1))

	active, err = cl.CheckRule(SurfaceSyscall, 1)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestAddEgressAndList(t *testing.T) {
	cl, _ := startTestServer(t)

	err := cl.AddEgressRule(AddEgressRuleArgs{
		RuleID: 7, CgroupID: 42, DstIP: "8.8.8.8", DstPort: 53, TTLSeconds: 60,
	})
	require.NoError(t, err)

	infos, err := cl.ListRules(SurfaceEgress, 0)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, uint32(7), infos[0].RuleID)
	assert.Equal(t, uint64(42), infos[0].CgroupID)
	assert.Equal(t, SurfaceEgress, infos[0].Surface)
	assert.Equal(t, "dst 8.8.8.8:53", infos[0].Criteria)
	assert.True(t, infos[0].Active)
}

func TestListFlagsExpiredInactive(t *testing.T) {
	cl, clk := startTestServer(t)

	require.NoError(t, cl.AddSyscallRule(AddSyscallRuleArgs{
		RuleID: 1, CgroupID: 10, Syscall: "ptrace", TTLSeconds: 5,
	}))
	clk.Advance(6 * time.Second)

	infos, err := cl.ListRules(SurfaceSyscall, 0)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.False(t, infos[0].Active)
}

func TestErrorKindsSurviveTheWire(t *testing.T) {
	cl, _ := startTestServer(t)

	err := cl.RemoveRule(SurfaceSyscall, 99)
	require.Error(t, err)
	assert.Equal(t, errors.KindNotFound, errors.GetKind(err))

	err = cl.AddSyscallRule(AddSyscallRuleArgs{
		RuleID: 1, CgroupID: 10, Syscall: "frobnicate",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))

	err = cl.AddSyscallRule(AddSyscallRuleArgs{
		RuleID: 1, CgroupID: 0, Syscall: "execve",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))

	err = cl.RemoveRule("bogus", 1)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestCapacityKindSurvivesTheWire(t *testing.T) {
	clk := clock.NewManual(1)
	sys := rules.NewSyscallSurface(1, clk)
	eg := rules.NewEgressSurface(1, clk)
	srv := NewServer(sys, eg, clk, nil)

	sock := filepath.Join(t.TempDir(), "ctl.sock")
	require.NoError(t, srv.Start(sock))
	t.Cleanup(srv.Stop)
	cl, err := Dial(sock)
	require.NoError(t, err)
	t.Cleanup(func() { cl.Close() })

	require.NoError(t, cl.AddSyscallRule(AddSyscallRuleArgs{
		RuleID: 1, CgroupID: 10, Syscall: "execve",
	}))
	err = cl.AddSyscallRule(AddSyscallRuleArgs{
		RuleID: 2, CgroupID: 20, Syscall: "execve",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindCapacity, errors.GetKind(err))
}

func TestStatsReflectDecisions(t *testing.T) {
	clk := clock.NewManual(1)
	sys := rules.NewSyscallSurface(16, clk)
	eg := rules.NewEgressSurface(16, clk)
	srv := NewServer(sys, eg, clk, nil)

	sock := filepath.Join(t.TempDir(), "ctl.sock")
	require.NoError(t, srv.Start(sock))
	t.Cleanup(srv.Stop)
	cl, err := Dial(sock)
	require.NoError(t, err)
	t.Cleanup(func() { cl.Close() })

	require.NoError(t, cl.AddSyscallRule(AddSyscallRuleArgs{
		RuleID: 1, CgroupID: 500, Syscall: "execve",
	}))
	assert.Equal(t, rules.VerdictDeny, sys.Engine.Decide(500, rules.SyscallEvent{Nr: 59}))
	assert.Equal(t, rules.VerdictAllow, sys.Engine.Decide(500, rules.SyscallEvent{Nr: 101}))

	stats, err := cl.GetStats()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Syscall["syscalls_processed"])
	assert.Equal(t, uint64(1), stats.Syscall["syscalls_blocked"])
	assert.Equal(t, uint64(1), stats.Syscall["execve_blocked"])
	assert.Equal(t, uint64(0), stats.Egress["packets_processed"])
}

func TestDialUnavailableWhenNoDaemon(t *testing.T) {
	_, err := Dial(filepath.Join(t.TempDir(), "missing.sock"))
	require.Error(t, err)
	assert.Equal(t, errors.KindUnavailable, errors.GetKind(err))
}
