// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package kernel

import (
	"github.com/aegisflux/cgfence/internal/config"
	"github.com/aegisflux/cgfence/internal/errors"
	"github.com/aegisflux/cgfence/internal/rules"
)

// Enforcer is unavailable off Linux; the daemon runs userspace-only.
type Enforcer struct{}

func New(*config.KernelConfig) (*Enforcer, error) {
	return nil, errors.New(errors.KindUnavailable, "kernel enforcement requires linux")
}

func (e *Enforcer) PutSyscallRule(rules.RuleConfig[rules.SyscallCriteria]) error { return nil }
func (e *Enforcer) DeleteSyscallRule(rules.RuleID, rules.CgroupID) error         { return nil }
func (e *Enforcer) PutEgressRule(rules.RuleConfig[rules.DestinationCriteria]) error {
	return nil
}
func (e *Enforcer) DeleteEgressRule(rules.RuleID, rules.CgroupID) error { return nil }
func (e *Enforcer) SyscallStats() (map[string]uint64, error)            { return map[string]uint64{}, nil }
func (e *Enforcer) EgressStats() (map[string]uint64, error)             { return map[string]uint64{}, nil }
func (e *Enforcer) Close()                                              {}
