// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"fmt"

	"github.com/aegisflux/cgfence/internal/kernel"
)

// RunGetCgroup prints the cgroup v2 id of a process. This is the id
// the add commands take as --cgroup.
func RunGetCgroup(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	id := kernel.ResolveCgroupID(pid)
	if id == 0 {
		return fmt.Errorf("could not resolve cgroup id for pid %d (no such process, or no cgroup v2)", pid)
	}
	fmt.Println(id)
	return nil
}
