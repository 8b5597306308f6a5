// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rules

import (
	"sync"
	"testing"
)

func TestSetReadSumsShards(t *testing.T) {
	set := NewSet("processed", "blocked")

	// Spread increments across many keys so multiple shards are hit.
	for key := uint64(1); key <= 1000; key++ {
		set.Shard(key).Add(CounterProcessed, 1)
	}
	set.Shard(7).Add(CounterBlocked, 3)

	if got := set.Read(CounterProcessed); got != 1000 {
		t.Errorf("processed = %d, want 1000", got)
	}
	if got := set.Read(CounterBlocked); got != 3 {
		t.Errorf("blocked = %d, want 3", got)
	}
}

func TestSetTotals(t *testing.T) {
	set := NewSet("a", "b", "c")
	set.Shard(1).Add(0, 5)
	set.Shard(2).Add(2, 7)

	totals := set.Totals()
	if totals["a"] != 5 || totals["b"] != 0 || totals["c"] != 7 {
		t.Errorf("unexpected totals: %v", totals)
	}
}

func TestSetShardStableForKey(t *testing.T) {
	set := NewSet("n")
	if set.Shard(12345) != set.Shard(12345) {
		t.Error("same key must map to the same shard")
	}
}

func TestSetConcurrentIncrements(t *testing.T) {
	set := NewSet("processed", "blocked")

	const workers = 8
	const perWorker = 10000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(key uint64) {
			defer wg.Done()
			sh := set.Shard(key)
			for i := 0; i < perWorker; i++ {
				sh.Add(CounterProcessed, 1)
				if i%10 == 0 {
					sh.Add(CounterBlocked, 1)
				}
			}
		}(uint64(w + 1))
	}
	wg.Wait()

	if got := set.Read(CounterProcessed); got != workers*perWorker {
		t.Errorf("processed = %d, want %d", got, workers*perWorker)
	}
	if got := set.Read(CounterBlocked); got != workers*perWorker/10 {
		t.Errorf("blocked = %d, want %d", got, workers*perWorker/10)
	}
}

func TestSetTooManyCountersPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for more counters than a shard holds")
		}
	}()
	NewSet("1", "2", "3", "4", "5", "6", "7", "8", "9")
}
