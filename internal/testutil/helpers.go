package testutil

import (
	"os"
	"testing"
)

// RequireKernel skips the test unless the CGFENCE_KERNEL_TEST
// environment variable is set. Tests that load BPF objects or resolve
// cgroup ids need a privileged Linux environment.
func RequireKernel(t *testing.T) {
	t.Helper()
	if os.Getenv("CGFENCE_KERNEL_TEST") == "" {
		t.Skip("Skipping test: requires CGFENCE_KERNEL_TEST environment")
	}
	if os.Geteuid() != 0 {
		t.Skip("Skipping test: requires root")
	}
}
