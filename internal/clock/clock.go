// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package clock provides the monotonic nanosecond time source used for
// rule TTL accounting. All liveness comparisons in the rule engine go
// through a single Clock so tests can drive expiry deterministically.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock yields monotonic nanosecond timestamps. The zero point is
// arbitrary; only differences are meaningful.
type Clock interface {
	NowNS() uint64
}

// Monotonic is the production clock. It reads the Go runtime's
// monotonic reading relative to process start, which never goes
// backwards and is unaffected by wall clock adjustments.
type Monotonic struct {
	base time.Time
}

// NewMonotonic returns a Clock anchored at the current instant.
func NewMonotonic() *Monotonic {
	return &Monotonic{base: time.Now()}
}

func (m *Monotonic) NowNS() uint64 {
	return uint64(time.Since(m.base))
}

// Manual is a test clock advanced explicitly by the caller.
type Manual struct {
	ns atomic.Uint64
}

// NewManual returns a Manual clock starting at start nanoseconds.
func NewManual(start uint64) *Manual {
	m := &Manual{}
	m.ns.Store(start)
	return m
}

func (m *Manual) NowNS() uint64 {
	return m.ns.Load()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.ns.Add(uint64(d))
}

// Set jumps the clock to an absolute nanosecond value.
func (m *Manual) Set(ns uint64) {
	m.ns.Store(ns)
}
