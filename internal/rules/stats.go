// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rules

import (
	"math/bits"
	"runtime"
	"sync/atomic"
)

// Counter indexes a statistic within a Set. The first two indexes are
// fixed by the engine; surfaces define their category counters above
// them.
type Counter int

const (
	// CounterProcessed counts every decision with a resolved cgroup.
	CounterProcessed Counter = 0
	// CounterBlocked counts deny verdicts.
	CounterBlocked Counter = 1
)

// maxCounters keeps one shard inside a single cache line.
const maxCounters = 8

type shard struct {
	counters [maxCounters]atomic.Uint64
	_        [64]byte
}

// Set is a sharded group of monotonic counters. Increments go to one
// shard chosen by the caller's key so concurrent workers do not
// serialize on a single cache line; reads sum every shard. A reader may
// observe shards at slightly different instants, which is fine for
// monotonic diagnostic counters.
type Set struct {
	names  []string
	shards []shard
	mask   uint64
}

// NewSet creates a Set with one named counter per entry and one shard
// per CPU, rounded up to a power of two.
func NewSet(names ...string) *Set {
	if len(names) > maxCounters {
		panic("rules: too many counters in a set")
	}
	n := 1
	for n < runtime.NumCPU() {
		n <<= 1
	}
	return &Set{
		names:  names,
		shards: make([]shard, n),
		mask:   uint64(n - 1),
	}
}

// Shard picks the shard for key. Fibonacci hashing spreads dense
// cgroup ids across shards; a given cgroup always lands on the same
// shard, mirroring per-CPU map behavior under IRQ affinity.
func (s *Set) Shard(key uint64) *Shard {
	idx := (key * 0x9E3779B97F4A7C15) >> (64 - bits.TrailingZeros64(s.mask+1))
	return (*Shard)(&s.shards[idx&s.mask])
}

// Shard is a single writer stripe of a Set.
type Shard shard

// Add increments counter c by delta.
func (sh *Shard) Add(c Counter, delta uint64) {
	sh.counters[c].Add(delta)
}

// Read returns the summed value of counter c across all shards.
func (s *Set) Read(c Counter) uint64 {
	var total uint64
	for i := range s.shards {
		total += s.shards[i].counters[c].Load()
	}
	return total
}

// Totals sums every counter across all shards, keyed by counter name.
func (s *Set) Totals() map[string]uint64 {
	out := make(map[string]uint64, len(s.names))
	for c, name := range s.names {
		out[name] = s.Read(Counter(c))
	}
	return out
}

// Names returns the counter names in index order.
func (s *Set) Names() []string {
	return s.names
}
