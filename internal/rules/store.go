// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rules

import (
	"sync"

	"github.com/aegisflux/cgfence/internal/errors"
)

// DefaultMaxRules bounds each table, matching the kernel map capacity.
const DefaultMaxRules = 1024

// Store holds the two tables: rule id -> config, and cgroup id -> rule
// id. Each table operation is atomic on its own; there is no lock
// ordering reads against the two-step mutations in the manager. The
// decision path therefore tolerates a link whose config is gone, and a
// config no link points at, by treating both as "no rule".
type Store[C any] struct {
	configMu sync.RWMutex
	configs  map[RuleID]RuleConfig[C]

	linkMu sync.RWMutex
	links  map[CgroupID]RuleID

	maxRules int
}

// NewStore creates a store bounding each table at maxRules entries.
// maxRules <= 0 selects DefaultMaxRules.
func NewStore[C any](maxRules int) *Store[C] {
	if maxRules <= 0 {
		maxRules = DefaultMaxRules
	}
	return &Store[C]{
		configs:  make(map[RuleID]RuleConfig[C], maxRules),
		links:    make(map[CgroupID]RuleID, maxRules),
		maxRules: maxRules,
	}
}

// Config returns the stored config for id.
func (s *Store[C]) Config(id RuleID) (RuleConfig[C], bool) {
	s.configMu.RLock()
	cfg, ok := s.configs[id]
	s.configMu.RUnlock()
	return cfg, ok
}

// PutConfig upserts a config. Inserting a new id into a full table
// fails with a capacity error; overwriting an existing id always
// succeeds.
func (s *Store[C]) PutConfig(cfg RuleConfig[C]) error {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	if _, exists := s.configs[cfg.ID]; !exists && len(s.configs) >= s.maxRules {
		return errors.Errorf(errors.KindCapacity, "rule table full (%d entries)", s.maxRules)
	}
	s.configs[cfg.ID] = cfg
	return nil
}

// DeleteConfig removes a config. Deleting a missing id is a no-op so
// cleanup paths stay idempotent.
func (s *Store[C]) DeleteConfig(id RuleID) {
	s.configMu.Lock()
	delete(s.configs, id)
	s.configMu.Unlock()
}

// Link returns the rule id currently governing cg.
func (s *Store[C]) Link(cg CgroupID) (RuleID, bool) {
	s.linkMu.RLock()
	id, ok := s.links[cg]
	s.linkMu.RUnlock()
	return id, ok
}

// PutLink upserts the cgroup -> rule link, subject to the same capacity
// bound as the config table.
func (s *Store[C]) PutLink(cg CgroupID, id RuleID) error {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()
	if _, exists := s.links[cg]; !exists && len(s.links) >= s.maxRules {
		return errors.Errorf(errors.KindCapacity, "cgroup table full (%d entries)", s.maxRules)
	}
	s.links[cg] = id
	return nil
}

// DeleteLink removes the link for cg unconditionally. Idempotent.
func (s *Store[C]) DeleteLink(cg CgroupID) {
	s.linkMu.Lock()
	delete(s.links, cg)
	s.linkMu.Unlock()
}

// DeleteLinkIf removes the link for cg only if it still points at id.
// A link reassigned by a concurrent add is left alone. Reports whether
// the link was deleted.
func (s *Store[C]) DeleteLinkIf(cg CgroupID, id RuleID) bool {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()
	if cur, ok := s.links[cg]; ok && cur == id {
		delete(s.links, cg)
		return true
	}
	return false
}

// Snapshot returns up to max stored configs in no particular order.
// Expired entries are included; liveness is a read-time property the
// caller applies if it wants only live rules.
func (s *Store[C]) Snapshot(max int) []RuleConfig[C] {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	if max <= 0 || max > len(s.configs) {
		max = len(s.configs)
	}
	out := make([]RuleConfig[C], 0, max)
	for _, cfg := range s.configs {
		if len(out) == max {
			break
		}
		out = append(out, cfg)
	}
	return out
}

// Len returns the number of stored configs.
func (s *Store[C]) Len() int {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return len(s.configs)
}

// LinkLen returns the number of cgroup links.
func (s *Store[C]) LinkLen() int {
	s.linkMu.RLock()
	defer s.linkMu.RUnlock()
	return len(s.links)
}
