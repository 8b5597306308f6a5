// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rules

import (
	"fmt"

	"github.com/aegisflux/cgfence/internal/clock"
	"github.com/aegisflux/cgfence/internal/errors"
	"github.com/aegisflux/cgfence/internal/syscalls"
)

// Category counters for the syscall surface, above the two engine
// counters.
const (
	CounterExecveBlocked Counter = 2
	CounterPtraceBlocked Counter = 3
)

// SyscallCounterNames orders the syscall surface counters by index.
var SyscallCounterNames = []string{
	"syscalls_processed",
	"syscalls_blocked",
	"execve_blocked",
	"ptrace_blocked",
}

// SyscallEvent is a syscall entry attributed to a cgroup.
type SyscallEvent struct {
	Nr uint32
}

// SyscallCriteria denies one syscall by number. Name is kept for
// display and mirrors into the kernel config record.
type SyscallCriteria struct {
	Nr   uint32
	Name string
}

// SyscallCriteriaFromName resolves a syscall name into criteria.
func SyscallCriteriaFromName(name string) (SyscallCriteria, error) {
	nr, err := syscalls.Number(name)
	if err != nil {
		return SyscallCriteria{}, err
	}
	return SyscallCriteria{Nr: nr, Name: name}, nil
}

// Match tests exact syscall number equality.
func (c SyscallCriteria) Match(ev SyscallEvent) bool {
	return ev.Nr == c.Nr
}

// Validate rejects criteria whose name does not resolve to the stored
// number. A number-only criteria (empty name) is accepted.
func (c SyscallCriteria) Validate() error {
	if c.Name == "" {
		return nil
	}
	nr, err := syscalls.Number(c.Name)
	if err != nil {
		return err
	}
	if nr != c.Nr {
		return errors.Errorf(errors.KindValidation,
			"syscall name %q resolves to %d, criteria has %d", c.Name, nr, c.Nr)
	}
	return nil
}

func (c SyscallCriteria) String() string {
	name := c.Name
	if name == "" {
		name = syscalls.Name(c.Nr)
	}
	return fmt.Sprintf("syscall %s(%d)", name, c.Nr)
}

// syscallDenyHook advances the per-category blocked counters. execve
// and execveat share a category.
func syscallDenyHook(sh *Shard, _ SyscallCriteria, ev SyscallEvent) {
	switch ev.Nr {
	case syscalls.NrExecve, syscalls.NrExecveat:
		sh.Add(CounterExecveBlocked, 1)
	case syscalls.NrPtrace:
		sh.Add(CounterPtraceBlocked, 1)
	}
}

// SyscallSurface bundles the engine and manager for syscall denial.
type SyscallSurface = Surface[SyscallEvent, SyscallCriteria]

// NewSyscallSurface creates the syscall denial surface.
func NewSyscallSurface(maxRules int, clk clock.Clock) *SyscallSurface {
	return NewSurface[SyscallEvent, SyscallCriteria](maxRules, clk, SyscallCounterNames, syscallDenyHook)
}
