// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ctlplane

// Surface names accepted by rule operations.
const (
	SurfaceSyscall = "syscall"
	SurfaceEgress  = "egress"
)

// AddSyscallRuleArgs installs a syscall denial rule for a cgroup.
type AddSyscallRuleArgs struct {
	RuleID     uint32
	CgroupID   uint64
	Syscall    string // name, resolved server-side
	TTLSeconds uint32
}

// AddEgressRuleArgs installs an egress drop rule for a cgroup.
type AddEgressRuleArgs struct {
	RuleID     uint32
	CgroupID   uint64
	DstIP      string // dotted quad
	DstPort    uint16
	TTLSeconds uint32
}

// AddRuleReply is empty; failure is carried as the call error.
type AddRuleReply struct{}

// RemoveRuleArgs removes a rule by id from one surface.
type RemoveRuleArgs struct {
	Surface string
	RuleID  uint32
}

// RemoveRuleReply is empty; failure is carried as the call error.
type RemoveRuleReply struct{}

// ListRulesArgs lists up to MaxCount stored rules of one surface.
// MaxCount <= 0 lists everything.
type ListRulesArgs struct {
	Surface  string
	MaxCount int
}

// RuleInfo is the wire form of a stored rule.
type RuleInfo struct {
	RuleID      uint32
	CgroupID    uint64
	Surface     string
	Criteria    string // human-readable match description
	TTLSeconds  uint32
	CreatedAtNS uint64
	Active      bool // liveness at list time; entry is returned either way
}

// ListRulesReply carries the snapshot.
type ListRulesReply struct {
	Rules []RuleInfo
}

// CheckRuleArgs asks whether a rule exists and its TTL has not elapsed.
type CheckRuleArgs struct {
	Surface string
	RuleID  uint32
}

// CheckRuleReply reports liveness.
type CheckRuleReply struct {
	Active bool
}

// StatsArgs requests counter aggregates.
type StatsArgs struct{}

// StatsReply carries summed counters per surface. When kernel
// enforcement is active the kernel per-CPU values are folded in.
type StatsReply struct {
	Syscall map[string]uint64
	Egress  map[string]uint64
}
