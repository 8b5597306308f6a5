// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package cmd implements the cgfence subcommands.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aegisflux/cgfence/internal/brand"
	"github.com/aegisflux/cgfence/internal/clock"
	"github.com/aegisflux/cgfence/internal/config"
	"github.com/aegisflux/cgfence/internal/ctlplane"
	"github.com/aegisflux/cgfence/internal/kernel"
	"github.com/aegisflux/cgfence/internal/metrics"
	"github.com/aegisflux/cgfence/internal/rules"
)

// metricsSource adapts the two surfaces to the exporter.
type metricsSource struct {
	syscall *rules.SyscallSurface
	egress  *rules.EgressSurface
}

func (m *metricsSource) SyscallTotals() map[string]uint64 { return m.syscall.Manager.Stats() }
func (m *metricsSource) EgressTotals() map[string]uint64  { return m.egress.Manager.Stats() }
func (m *metricsSource) SyscallRuleCount() int            { return m.syscall.Manager.Count() }
func (m *metricsSource) EgressRuleCount() int             { return m.egress.Manager.Count() }

// RunDaemon runs the enforcement daemon in the foreground until
// SIGTERM or SIGINT.
func RunDaemon(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log.Printf("[daemon] %s %s starting: %s", brand.Name, brand.Version, cfg)

	clk := clock.NewMonotonic()
	sys := rules.NewSyscallSurface(cfg.MaxRules, clk)
	eg := rules.NewEgressSurface(cfg.MaxRules, clk)

	var enforcer ctlplane.Enforcer
	if k := cfg.Kernel; k != nil && k.Enabled {
		e, err := kernel.New(k)
		if err != nil {
			return err
		}
		defer e.Close()
		enforcer = e
	} else {
		log.Printf("[daemon] kernel enforcement disabled, userspace engine only")
	}

	server := ctlplane.NewServer(sys, eg, clk, enforcer)
	if err := server.Start(cfg.SocketPath); err != nil {
		return err
	}
	defer server.Stop()

	if cfg.MetricsAddr != "" {
		exporter := metrics.NewExporter(
			&metricsSource{syscall: sys, egress: eg},
			metrics.DefaultExportConfig(cfg.MetricsAddr),
		)
		if err := exporter.Start(context.Background()); err != nil {
			return err
		}
		defer exporter.Stop()
	}

	pidFile := brand.PIDFile()
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	defer os.Remove(pidFile)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	s := <-sig
	log.Printf("[daemon] received %s, shutting down", s)
	return nil
}
