// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rules

import (
	"github.com/aegisflux/cgfence/internal/clock"
)

// Surface wires one store and one stats set into the engine/manager
// pair for an enforcement surface. The engine and manager read and
// mutate the same tables; the surface owns nothing else.
type Surface[E any, C Criteria[E]] struct {
	Engine  *Engine[E, C]
	Manager *Manager[E, C]
	Stats   *Set
	store   *Store[C]
}

// NewSurface creates a surface with a fresh store bounded at maxRules.
func NewSurface[E any, C Criteria[E]](maxRules int, clk clock.Clock, counterNames []string, onDeny DenyHook[E, C]) *Surface[E, C] {
	store := NewStore[C](maxRules)
	stats := NewSet(counterNames...)
	return &Surface[E, C]{
		Engine:  NewEngine(store, stats, clk, onDeny),
		Manager: NewManager[E, C](store, stats, clk),
		Stats:   stats,
		store:   store,
	}
}
