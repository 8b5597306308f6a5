// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	syscall map[string]uint64
	egress  map[string]uint64
	nSys    int
	nEg     int
}

func (f *fakeSource) SyscallTotals() map[string]uint64 { return f.syscall }
func (f *fakeSource) EgressTotals() map[string]uint64  { return f.egress }
func (f *fakeSource) SyscallRuleCount() int            { return f.nSys }
func (f *fakeSource) EgressRuleCount() int             { return f.nEg }

// counterValue digs one labeled sample out of the registry.
func counterValue(t *testing.T, e *Exporter, name, surface, counter string) float64 {
	t.Helper()
	families, err := e.Registry().Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["surface"] != surface {
				continue
			}
			if counter != "" && labels["counter"] != counter {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("no sample %s{surface=%q,counter=%q}", name, surface, counter)
	return 0
}

func TestUpdatePublishesDeltas(t *testing.T) {
	src := &fakeSource{
		syscall: map[string]uint64{"syscalls_processed": 10, "syscalls_blocked": 3},
		egress:  map[string]uint64{"packets_processed": 5},
		nSys:    2,
		nEg:     1,
	}
	e := NewExporter(src, DefaultExportConfig("127.0.0.1:0"))

	e.Update()
	assert.Equal(t, 10.0, counterValue(t, e, "cgfence_events_total", "syscall", "syscalls_processed"))
	assert.Equal(t, 3.0, counterValue(t, e, "cgfence_events_total", "syscall", "syscalls_blocked"))
	assert.Equal(t, 2.0, counterValue(t, e, "cgfence_rules", "syscall", ""))
	assert.Equal(t, 1.0, counterValue(t, e, "cgfence_rules", "egress", ""))

	// Totals grow; the counter advances by the delta only.
	src.syscall["syscalls_processed"] = 25
	src.nSys = 1
	e.Update()
	assert.Equal(t, 25.0, counterValue(t, e, "cgfence_events_total", "syscall", "syscalls_processed"))
	assert.Equal(t, 1.0, counterValue(t, e, "cgfence_rules", "syscall", ""))
}

func TestUpdateIgnoresUnchangedTotals(t *testing.T) {
	src := &fakeSource{
		syscall: map[string]uint64{"syscalls_blocked": 7},
		egress:  map[string]uint64{},
	}
	e := NewExporter(src, ExportConfig{Addr: "127.0.0.1:0", UpdateInterval: time.Second})

	e.Update()
	e.Update()
	e.Update()
	assert.Equal(t, 7.0, counterValue(t, e, "cgfence_events_total", "syscall", "syscalls_blocked"))
}
