// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package kernel

import (
	"testing"
	"unsafe"

	"github.com/aegisflux/cgfence/internal/rules"
)

// The kernel structs are shared with the BPF objects; any size drift
// breaks map access silently.
func TestRecordSizes(t *testing.T) {
	if got := unsafe.Sizeof(denyConfig{}); got != 40 {
		t.Fatalf("denyConfig is %d bytes, want 40", got)
	}
	if got := unsafe.Sizeof(dropConfig{}); got != 32 {
		t.Fatalf("dropConfig is %d bytes, want 32", got)
	}
	if got := unsafe.Sizeof(syscallStats{}); got != 32 {
		t.Fatalf("syscallStats is %d bytes, want 32", got)
	}
	if got := unsafe.Sizeof(egressStats{}); got != 24 {
		t.Fatalf("egressStats is %d bytes, want 24", got)
	}
}

func TestNewDenyConfig(t *testing.T) {
	crit, err := rules.SyscallCriteriaFromName("execve")
	if err != nil {
		t.Fatal(err)
	}
	rec := newDenyConfig(rules.RuleConfig[rules.SyscallCriteria]{
		ID:          1,
		Cgroup:      12345,
		Criteria:    crit,
		TTLSeconds:  3600,
		CreatedAtNS: 99,
	})
	if rec.CgroupID != 12345 || rec.Syscall != 59 || rec.TTL != 3600 || rec.CreatedAt != 99 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if got := string(rec.SyscallName[:6]); got != "execve" {
		t.Fatalf("name = %q", got)
	}
	if rec.SyscallName[6] != 0 {
		t.Fatal("name not NUL terminated")
	}
}

func TestNewDenyConfigTruncatesLongName(t *testing.T) {
	rec := newDenyConfig(rules.RuleConfig[rules.SyscallCriteria]{
		Criteria: rules.SyscallCriteria{Nr: 1, Name: "a_very_long_syscall_name_indeed"},
	})
	if got := len(rec.SyscallName); got != 16 {
		t.Fatalf("name field is %d bytes", got)
	}
}

func TestNewDropConfigReversesIPBytes(t *testing.T) {
	crit, err := rules.DestinationFromString("8.8.8.8", 53)
	if err != nil {
		t.Fatal(err)
	}
	rec := newDropConfig(rules.RuleConfig[rules.DestinationCriteria]{
		ID:          2,
		Cgroup:      42,
		Criteria:    crit,
		TTLSeconds:  60,
		CreatedAtNS: 7,
	})
	// 8.8.8.8 survives reversal; 1.2.3.4 does not.
	if rec.DstIP != 0x08080808 {
		t.Fatalf("DstIP = %#x", rec.DstIP)
	}

	crit, err = rules.DestinationFromString("1.2.3.4", 80)
	if err != nil {
		t.Fatal(err)
	}
	rec = newDropConfig(rules.RuleConfig[rules.DestinationCriteria]{Criteria: crit})
	if rec.DstIP != 0x04030201 {
		t.Fatalf("DstIP = %#x, want network byte order as host load", rec.DstIP)
	}
	if rec.DstPort != 80 {
		t.Fatalf("DstPort = %d", rec.DstPort)
	}
}

func TestSumSyscallStatsFoldsCPUs(t *testing.T) {
	totals := sumSyscallStats([]syscallStats{
		{SyscallsBlocked: 1, SyscallsProcessed: 10, ExecveBlocked: 1},
		{SyscallsBlocked: 2, SyscallsProcessed: 20, PtraceBlocked: 2},
	})
	want := map[string]uint64{
		"syscalls_blocked":   3,
		"syscalls_processed": 30,
		"execve_blocked":     1,
		"ptrace_blocked":     2,
	}
	for name, v := range want {
		if totals[name] != v {
			t.Fatalf("%s = %d, want %d", name, totals[name], v)
		}
	}
}

func TestSumEgressStatsFoldsCPUs(t *testing.T) {
	totals := sumEgressStats([]egressStats{
		{PacketsDropped: 1, PacketsProcessed: 4, BytesDropped: 100},
		{PacketsDropped: 2, PacketsProcessed: 6, BytesDropped: 50},
	})
	if totals["packets_dropped"] != 3 || totals["packets_processed"] != 10 || totals["bytes_dropped"] != 150 {
		t.Fatalf("unexpected totals %v", totals)
	}
}

// The kernel totals fold into the userspace totals by name; every key
// the kernel produces must be a counter the surface knows.
func TestStatNamesCoverSurfaceCounters(t *testing.T) {
	for name := range sumSyscallStats(nil) {
		if !contains(rules.SyscallCounterNames, name) {
			t.Fatalf("kernel stat %q unknown to syscall surface", name)
		}
	}
	for name := range sumEgressStats(nil) {
		if !contains(rules.EgressCounterNames, name) {
			t.Fatalf("kernel stat %q unknown to egress surface", name)
		}
	}
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
