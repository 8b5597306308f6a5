// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/aegisflux/cgfence/internal/brand"
	"github.com/aegisflux/cgfence/internal/config"
)

// RunStart launches the daemon in the background.
func RunStart(configFile string) error {
	if configFile == "" {
		configFile = filepath.Join(brand.DefaultConfigDir, brand.ConfigFileName)
	}

	// Pre-flight: validate the config before forking so errors land on
	// the user's terminal instead of the daemon log.
	if _, err := config.Load(configFile); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	pidFile := brand.PIDFile()
	if pid, running := readPID(pidFile); running {
		return fmt.Errorf("daemon already running (PID: %d)", pid)
	} else if pid != 0 {
		fmt.Fprintf(os.Stderr, "Warning: removing stale PID file %s\n", pidFile)
		os.Remove(pidFile)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	logFile := filepath.Join(brand.GetRunDir(), brand.LowerName+".log")
	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logF.Close()

	c := exec.Command(exe, "daemon", "--config", configFile)
	c.Stdout = logF
	c.Stderr = logF
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := c.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}
	fmt.Printf("Started %s (PID: %d)\n", brand.Name, c.Process.Pid)
	fmt.Printf("Logs: %s\n", logFile)

	// Catch immediate startup failures before reporting success.
	done := make(chan error, 1)
	go func() { done <- c.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("daemon failed to start: %w", err)
		}
		return fmt.Errorf("daemon exited immediately (check logs: %s)", logFile)
	case <-time.After(500 * time.Millisecond):
		if err := c.Process.Signal(syscall.Signal(0)); err != nil {
			return fmt.Errorf("daemon died during startup (check logs: %s)", logFile)
		}
		return nil
	}
}

// readPID returns the pid recorded in path and whether that process is
// alive. A missing or malformed file reads as (0, false).
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return pid, false
	}
	return pid, process.Signal(syscall.Signal(0)) == nil
}
