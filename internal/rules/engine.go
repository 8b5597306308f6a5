// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rules

import (
	"github.com/aegisflux/cgfence/internal/clock"
)

// DenyHook records surface-specific category counters when an event is
// denied. It runs on the hot path and must not allocate.
type DenyHook[E any, C Criteria[E]] func(sh *Shard, crit C, ev E)

// Engine is the per-event decision function. It reads the store, never
// blocks, and degrades every failure mode to allow: an event that
// cannot be attributed or matched is never blocked.
type Engine[E any, C Criteria[E]] struct {
	store  *Store[C]
	stats  *Set
	clock  clock.Clock
	onDeny DenyHook[E, C]
}

// NewEngine creates an engine over store, recording into stats.
func NewEngine[E any, C Criteria[E]](store *Store[C], stats *Set, clk clock.Clock, onDeny DenyHook[E, C]) *Engine[E, C] {
	return &Engine[E, C]{store: store, stats: stats, clock: clk, onDeny: onDeny}
}

// Decide returns the verdict for an event originating from cg.
//
// The order of the checks is load-bearing: every early exit is an
// allow, and expiry is discovered here, lazily, as the only eviction
// besides the control plane. A link pointing at a deleted config is an
// in-flight control-plane mutation, not corruption; it reads as "no
// rule".
func (e *Engine[E, C]) Decide(cg CgroupID, ev E) Verdict {
	if cg == 0 {
		// Unresolved cgroup: allow without touching statistics.
		return VerdictAllow
	}

	sh := e.stats.Shard(uint64(cg))
	sh.Add(CounterProcessed, 1)

	id, ok := e.store.Link(cg)
	if !ok {
		return VerdictAllow
	}

	cfg, ok := e.store.Config(id)
	if !ok {
		return VerdictAllow
	}

	if cfg.Expired(e.clock.NowNS()) {
		e.store.DeleteConfig(id)
		e.store.DeleteLinkIf(cg, id)
		return VerdictAllow
	}

	if !cfg.Criteria.Match(ev) {
		return VerdictAllow
	}

	sh.Add(CounterBlocked, 1)
	if e.onDeny != nil {
		e.onDeny(sh, cfg.Criteria, ev)
	}
	return VerdictDeny
}
