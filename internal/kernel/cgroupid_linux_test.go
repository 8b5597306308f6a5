// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package kernel

import (
	"os"
	"testing"

	"github.com/aegisflux/cgfence/internal/testutil"
)

func TestResolveCgroupIDSelf(t *testing.T) {
	testutil.RequireKernel(t)
	if id := ResolveCgroupID(os.Getpid()); id == 0 {
		t.Fatal("own cgroup id did not resolve")
	}
}

func TestResolveCgroupIDMissingPid(t *testing.T) {
	if id := ResolveCgroupID(1 << 30); id != 0 {
		t.Fatalf("bogus pid resolved to %d", id)
	}
}
