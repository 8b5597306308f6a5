// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rules

import (
	"github.com/aegisflux/cgfence/internal/clock"
	"github.com/aegisflux/cgfence/internal/errors"
)

// Manager is the control-plane writer for one surface's store. All
// mutations are two independent table steps; the decision path is
// defined to be safe under every intermediate state, so no cross-table
// lock is taken here.
type Manager[E any, C Criteria[E]] struct {
	store *Store[C]
	stats *Set
	clock clock.Clock
}

// NewManager creates a manager over store.
func NewManager[E any, C Criteria[E]](store *Store[C], stats *Set, clk clock.Clock) *Manager[E, C] {
	return &Manager[E, C]{store: store, stats: stats, clock: clk}
}

// Add installs crit as the rule governing cg under id. An existing
// config under id is replaced whole. A zero ttl selects
// DefaultTTLSeconds.
//
// The write order is config first, then link. If the link write fails
// the config write is rolled back, so a failed add leaves no partial
// state. When the add re-points a cgroup that was governed by a
// different rule, that rule's now-orphaned config is deleted; when it
// re-points an id that governed a different cgroup, that cgroup's now
// stale link is released.
func (m *Manager[E, C]) Add(id RuleID, cg CgroupID, crit C, ttlSeconds uint32) error {
	if cg == 0 {
		return errors.New(errors.KindValidation, "cgroup id 0 is reserved for unresolved")
	}
	if err := crit.Validate(); err != nil {
		return err
	}
	if ttlSeconds == 0 {
		ttlSeconds = DefaultTTLSeconds
	}

	prevCfg, hadCfg := m.store.Config(id)
	prevID, hadLink := m.store.Link(cg)

	cfg := RuleConfig[C]{
		ID:          id,
		Cgroup:      cg,
		Criteria:    crit,
		TTLSeconds:  ttlSeconds,
		CreatedAtNS: m.clock.NowNS(),
	}
	if err := m.store.PutConfig(cfg); err != nil {
		return err
	}
	if err := m.store.PutLink(cg, id); err != nil {
		// Compensating rollback: restore the prior config if this was
		// a replacement, otherwise remove the half-written entry.
		if hadCfg {
			m.store.PutConfig(prevCfg)
		} else {
			m.store.DeleteConfig(id)
		}
		return err
	}

	// Reclaim the config orphaned by re-pointing this cgroup.
	if hadLink && prevID != id {
		m.store.DeleteConfig(prevID)
	}
	// Release the stale link left when id moved to a new cgroup.
	if hadCfg && prevCfg.Cgroup != cg {
		m.store.DeleteLinkIf(prevCfg.Cgroup, id)
	}
	return nil
}

// Get returns the config stored under id, expired or not.
func (m *Manager[E, C]) Get(id RuleID) (RuleConfig[C], bool) {
	return m.store.Config(id)
}

// Remove deletes the rule stored under id. The cgroup link is deleted
// first, and only if it still points at id; a link reassigned by a
// concurrent add belongs to the newer rule and is left in place.
func (m *Manager[E, C]) Remove(id RuleID) error {
	cfg, ok := m.store.Config(id)
	if !ok {
		return errors.Errorf(errors.KindNotFound, "rule %d not found", id)
	}
	m.store.DeleteLinkIf(cfg.Cgroup, id)
	m.store.DeleteConfig(id)
	return nil
}

// List returns up to max stored configs, expired entries included.
func (m *Manager[E, C]) List(max int) []RuleConfig[C] {
	return m.store.Snapshot(max)
}

// IsActive reports whether id exists and its TTL has not elapsed. An
// expired rule is evicted here exactly as the decision path would, so
// check and decide share one definition of expiry.
func (m *Manager[E, C]) IsActive(id RuleID) bool {
	cfg, ok := m.store.Config(id)
	if !ok {
		return false
	}
	if cfg.Expired(m.clock.NowNS()) {
		m.store.DeleteConfig(id)
		m.store.DeleteLinkIf(cfg.Cgroup, id)
		return false
	}
	return true
}

// Stats returns the summed counters for this surface.
func (m *Manager[E, C]) Stats() map[string]uint64 {
	return m.stats.Totals()
}

// Count returns the number of stored configs.
func (m *Manager[E, C]) Count() int {
	return m.store.Len()
}
