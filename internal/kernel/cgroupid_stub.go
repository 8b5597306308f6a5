// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package kernel

// ResolveCgroupID always reports unresolved off Linux.
func ResolveCgroupID(int) uint64 { return 0 }
