// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package kernel

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// ResolveCgroupID returns the cgroup v2 id for a process, or 0 when it
// cannot be determined. 0 is the engine's unresolved sentinel, so a
// failed resolution degrades to allow rather than blocking anything.
func ResolveCgroupID(pid int) uint64 {
	path, err := cgroupPath(pid)
	if err != nil {
		return 0
	}
	id, err := cgroupID(path)
	if err != nil {
		return 0
	}
	return id
}

// cgroupPath reads the unified-hierarchy entry from /proc/<pid>/cgroup.
func cgroupPath(pid int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cgroup", pid))
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if rel, ok := strings.CutPrefix(line, "0::"); ok {
			return "/sys/fs/cgroup" + rel, nil
		}
	}
	return "", fmt.Errorf("no cgroup v2 entry for pid %d", pid)
}

// cgroupID resolves a cgroupfs path to the kernfs inode id the kernel
// reports from bpf_get_current_cgroup_id. The id is the first 8 bytes
// of the file handle, in host order.
func cgroupID(path string) (uint64, error) {
	handle, _, err := unix.NameToHandleAt(unix.AT_FDCWD, path, 0)
	if err != nil {
		return 0, err
	}
	bytes := handle.Bytes()
	if len(bytes) < 8 {
		return 0, fmt.Errorf("short cgroup handle for %s", path)
	}
	return binary.LittleEndian.Uint64(bytes[:8]), nil
}
