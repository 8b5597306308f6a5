// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package kernel mirrors rule state into the eBPF maps and reads the
// kernel's per-CPU statistics. The struct layouts here must match the
// BPF object files byte for byte.
package kernel

import (
	"math/bits"

	"github.com/aegisflux/cgfence/internal/rules"
)

// Map names inside the BPF objects.
const (
	mapDenyConfigs = "deny_configs"
	mapDropConfigs = "drop_configs"
	mapCgroupRules = "cgroup_rules"
	mapStats       = "stats"
)

// Program names inside the BPF objects.
const (
	progDenyExecveLSM    = "deny_execve_for_cgroup"
	progDenyExecveKprobe = "deny_execve_kprobe_for_cgroup"
	progDenyPtrace       = "deny_ptrace_for_cgroup"
	progDropEgress       = "drop_egress_by_cgroup"
)

// denyConfig mirrors struct deny_config in the syscall object. 40
// bytes, naturally aligned.
type denyConfig struct {
	CgroupID    uint64
	Syscall     uint32
	TTL         uint32
	CreatedAt   uint64
	SyscallName [16]byte
}

// dropConfig mirrors struct drop_config in the egress object. 32 bytes
// with explicit padding.
type dropConfig struct {
	DstIP     uint32
	DstPort   uint16
	_         [2]byte
	CgroupID  uint64
	TTL       uint32
	_         [4]byte
	CreatedAt uint64
}

// The stats maps are single-entry per-CPU arrays: key 0 holds one
// struct of counters per CPU. These mirror the anonymous value structs
// in the objects.

// syscallStats mirrors the syscall object's stats value. 32 bytes.
type syscallStats struct {
	SyscallsBlocked   uint64
	SyscallsProcessed uint64
	ExecveBlocked     uint64
	PtraceBlocked     uint64
}

// egressStats mirrors the egress object's stats value. 24 bytes.
type egressStats struct {
	PacketsDropped   uint64
	PacketsProcessed uint64
	BytesDropped     uint64
}

// sumSyscallStats folds the per-CPU values into the counter names the
// control plane reports. Must agree with rules.SyscallCounterNames.
func sumSyscallStats(perCPU []syscallStats) map[string]uint64 {
	out := map[string]uint64{
		"syscalls_blocked":   0,
		"syscalls_processed": 0,
		"execve_blocked":     0,
		"ptrace_blocked":     0,
	}
	for _, s := range perCPU {
		out["syscalls_blocked"] += s.SyscallsBlocked
		out["syscalls_processed"] += s.SyscallsProcessed
		out["execve_blocked"] += s.ExecveBlocked
		out["ptrace_blocked"] += s.PtraceBlocked
	}
	return out
}

func sumEgressStats(perCPU []egressStats) map[string]uint64 {
	out := map[string]uint64{
		"packets_dropped":   0,
		"packets_processed": 0,
		"bytes_dropped":     0,
	}
	for _, s := range perCPU {
		out["packets_dropped"] += s.PacketsDropped
		out["packets_processed"] += s.PacketsProcessed
		out["bytes_dropped"] += s.BytesDropped
	}
	return out
}

// newDenyConfig converts a userspace rule into its kernel record.
func newDenyConfig(cfg rules.RuleConfig[rules.SyscallCriteria]) denyConfig {
	out := denyConfig{
		CgroupID:  uint64(cfg.Cgroup),
		Syscall:   cfg.Criteria.Nr,
		TTL:       cfg.TTLSeconds,
		CreatedAt: cfg.CreatedAtNS,
	}
	copy(out.SyscallName[:], cfg.Criteria.Name)
	return out
}

// newDropConfig converts a userspace rule into its kernel record. The
// engine holds destination addresses as big-endian values; the XDP
// program compares against iph->daddr as a host-order load, so the
// bytes are reversed here.
func newDropConfig(cfg rules.RuleConfig[rules.DestinationCriteria]) dropConfig {
	return dropConfig{
		DstIP:     bits.ReverseBytes32(cfg.Criteria.IP),
		DstPort:   cfg.Criteria.Port,
		CgroupID:  uint64(cfg.Cgroup),
		TTL:       cfg.TTLSeconds,
		CreatedAt: cfg.CreatedAtNS,
	}
}
