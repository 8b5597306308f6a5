// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/aegisflux/cgfence/internal/brand"
)

// RunStop signals the running daemon and waits for it to exit.
func RunStop() error {
	pidFile := brand.PIDFile()
	pid, running := readPID(pidFile)
	if pid == 0 {
		return fmt.Errorf("no PID file found at %s (is the daemon running?)", pidFile)
	}
	if !running {
		os.Remove(pidFile)
		return fmt.Errorf("daemon not running, removed stale PID file")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process not found: %w", err)
	}
	fmt.Printf("Stopping %s (PID: %d)...\n", brand.Name, pid)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending SIGTERM: %w", err)
	}

	// The daemon removes its pid file on clean shutdown.
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(pidFile); os.IsNotExist(err) {
			fmt.Println("Stopped.")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Println("Warning: PID file still exists, process may be slow to shut down.")
	return nil
}
