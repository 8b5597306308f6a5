// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package rules implements the per-cgroup deny rule store and the
// decision engine shared by both enforcement surfaces (syscall denial
// and egress packet drop). The engine is the hot path: it is invoked
// once per enforced event, performs no allocation, and fails open on
// every lookup miss or inconsistency. The manager is the cold path: it
// is the only writer apart from lazy expiry eviction.
package rules

import (
	"time"
)

// RuleID identifies a rule. IDs are caller-chosen; a second add with
// the same id replaces the prior config.
type RuleID uint32

// CgroupID identifies a cgroup. The zero value means "unresolved" and
// is never a valid key.
type CgroupID uint64

// Verdict is the outcome of a decision.
type Verdict int

const (
	// VerdictAllow lets the event proceed.
	VerdictAllow Verdict = iota
	// VerdictDeny blocks the event.
	VerdictDeny
)

func (v Verdict) String() string {
	if v == VerdictDeny {
		return "deny"
	}
	return "allow"
}

// Criteria is the match test an enforcement surface applies to its
// event type. Match runs on the hot path and must not allocate.
type Criteria[E any] interface {
	Match(ev E) bool
	Validate() error
}

// RuleConfig is a stored rule: match criteria scoped to one cgroup with
// a TTL measured from creation. Immutable once stored; replaced whole
// by an add with the same id.
type RuleConfig[C any] struct {
	ID          RuleID
	Cgroup      CgroupID
	Criteria    C
	TTLSeconds  uint32
	CreatedAtNS uint64
}

// Expired reports whether the rule's TTL has elapsed at nowNS.
// Liveness is never stored; it is always computed at read time.
func (c *RuleConfig[C]) Expired(nowNS uint64) bool {
	return nowNS-c.CreatedAtNS > uint64(c.TTLSeconds)*uint64(time.Second)
}

// DefaultTTLSeconds is applied when a caller passes a zero TTL.
const DefaultTTLSeconds = 3600
