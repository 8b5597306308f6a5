// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exports enforcement counters to Prometheus.
package metrics

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source provides the counter totals and rule counts the exporter
// publishes. Implemented over the two enforcement surfaces.
type Source interface {
	SyscallTotals() map[string]uint64
	EgressTotals() map[string]uint64
	SyscallRuleCount() int
	EgressRuleCount() int
}

// ExportConfig configures the exporter.
type ExportConfig struct {
	Addr           string
	UpdateInterval time.Duration
}

// DefaultExportConfig returns the exporter defaults.
func DefaultExportConfig(addr string) ExportConfig {
	return ExportConfig{
		Addr:           addr,
		UpdateInterval: 10 * time.Second,
	}
}

// Exporter publishes surface counters as Prometheus metrics. The
// enforcement counters are monotonic totals, so each update adds only
// the delta since the last scrape cycle.
type Exporter struct {
	source Source
	config ExportConfig

	registry *prometheus.Registry
	counters *prometheus.CounterVec
	rules    *prometheus.GaugeVec

	mu   sync.Mutex
	last map[string]uint64

	server *http.Server
	cancel context.CancelFunc
}

// NewExporter creates an exporter over source.
func NewExporter(source Source, config ExportConfig) *Exporter {
	e := &Exporter{
		source:   source,
		config:   config,
		registry: prometheus.NewRegistry(),
		last:     make(map[string]uint64),
	}

	e.counters = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cgfence_events_total",
			Help: "Enforcement events by surface and counter",
		},
		[]string{"surface", "counter"},
	)
	e.rules = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cgfence_rules",
			Help: "Stored rules by surface",
		},
		[]string{"surface"},
	)

	e.registry.MustRegister(e.counters)
	e.registry.MustRegister(e.rules)
	return e
}

// Start serves /metrics on the configured address and begins the
// periodic update loop.
func (e *Exporter) Start(ctx context.Context) error {
	ctx, e.cancel = context.WithCancel(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	e.server = &http.Server{Addr: e.config.Addr, Handler: mux}

	go func() {
		log.Printf("[metrics] serving on %s/metrics", e.config.Addr)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
	go e.periodicUpdate(ctx)
	return nil
}

func (e *Exporter) periodicUpdate(ctx context.Context) {
	ticker := time.NewTicker(e.config.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Update()
		}
	}
}

// Update refreshes the Prometheus metrics from the source.
func (e *Exporter) Update() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.apply("syscall", e.source.SyscallTotals())
	e.apply("egress", e.source.EgressTotals())
	e.rules.WithLabelValues("syscall").Set(float64(e.source.SyscallRuleCount()))
	e.rules.WithLabelValues("egress").Set(float64(e.source.EgressRuleCount()))
}

func (e *Exporter) apply(surface string, totals map[string]uint64) {
	for name, total := range totals {
		key := surface + "/" + name
		if delta := total - e.last[key]; delta > 0 {
			e.counters.WithLabelValues(surface, name).Add(float64(delta))
			e.last[key] = total
		}
	}
}

// Stop shuts down the HTTP server and the update loop.
func (e *Exporter) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.server.Shutdown(ctx); err != nil {
			log.Printf("[metrics] shutdown: %v", err)
		}
	}
}

// Registry exposes the metric registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }
