// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package brand provides centralized identity constants for the daemon
// and CLI so paths and names stay consistent across commands.
package brand

import (
	"os"
	"path/filepath"
)

const (
	Name       = "CGFence"
	LowerName  = "cgfence"
	BinaryName = "cgfence"

	ConfigFileName   = "cgfence.hcl"
	DefaultConfigDir = "/etc/cgfence"
	SocketName       = "cgfence.sock"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// GetRunDir returns the runtime directory for the pid file and control
// socket. Falls back to /tmp when /run is not writable (tests, non-root).
func GetRunDir() string {
	dir := filepath.Join("/run", LowerName)
	if err := os.MkdirAll(dir, 0o755); err == nil {
		return dir
	}
	dir = filepath.Join(os.TempDir(), LowerName)
	os.MkdirAll(dir, 0o755)
	return dir
}

// SocketPath returns the default control plane socket path.
func SocketPath() string {
	return filepath.Join(GetRunDir(), SocketName)
}

// PIDFile returns the daemon pid file path.
func PIDFile() string {
	return filepath.Join(GetRunDir(), LowerName+".pid")
}
