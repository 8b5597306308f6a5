// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package syscalls maps syscall names to x86-64 syscall numbers for
// rule criteria. Only names in this table are accepted by the control
// plane; an unknown name is rejected before any table mutation.
package syscalls

import (
	"github.com/aegisflux/cgfence/internal/errors"
)

// Syscall numbers referenced by category statistics (x86-64).
const (
	NrExecve   uint32 = 59
	NrPtrace   uint32 = 101
	NrExecveat uint32 = 322
)

// byName covers the syscalls a sandbox policy plausibly denies. The
// numbers come from arch/x86/entry/syscalls/syscall_64.tbl.
var byName = map[string]uint32{
	"read":        0,
	"write":       1,
	"open":        2,
	"close":       3,
	"mmap":        9,
	"mprotect":    10,
	"ioctl":       16,
	"socket":      41,
	"connect":     42,
	"accept":      43,
	"sendto":      44,
	"recvfrom":    45,
	"bind":        49,
	"listen":      50,
	"clone":       56,
	"fork":        57,
	"vfork":       58,
	"execve":      59,
	"kill":        62,
	"ptrace":      101,
	"setuid":      105,
	"setgid":      106,
	"chroot":      161,
	"mount":       165,
	"umount2":     166,
	"reboot":      169,
	"init_module": 175,
	"openat":      257,
	"unshare":     272,
	"execveat":    322,
	"bpf":         321,
}

var byNumber = func() map[uint32]string {
	m := make(map[uint32]string, len(byName))
	for name, nr := range byName {
		m[nr] = name
	}
	return m
}()

// Number resolves a syscall name to its number. Unknown names return a
// validation error.
func Number(name string) (uint32, error) {
	nr, ok := byName[name]
	if !ok {
		return 0, errors.Errorf(errors.KindValidation, "unknown syscall name %q", name)
	}
	return nr, nil
}

// Name returns the name for a syscall number, or "unknown".
func Name(nr uint32) string {
	if name, ok := byNumber[nr]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether name is in the table.
func Valid(name string) bool {
	_, ok := byName[name]
	return ok
}
