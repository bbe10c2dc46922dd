package globe

import (
	"sync"

	"climateglobe/core"
)

// MetricTable remembers the last metrics seen per region so a region picked
// by pointer or keyboard shows its latest numbers.
type MetricTable struct {
	mu   sync.RWMutex
	data map[core.RegionID]core.MetricSet
}

// NewMetricTable creates a table seeded with initial values
func NewMetricTable(seed map[core.RegionID]core.MetricSet) *MetricTable {
	t := &MetricTable{data: make(map[core.RegionID]core.MetricSet, len(seed))}
	for id, m := range seed {
		t.data[id] = m
	}
	return t
}

// Get returns the stored metrics for a region. Unknown regions return the
// zero MetricSet, which renders in the nominal tier.
func (t *MetricTable) Get(id core.RegionID) core.MetricSet {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data[id]
}

// Put records metrics for a region
func (t *MetricTable) Put(id core.RegionID, m core.MetricSet) {
	t.mu.Lock()
	t.data[id] = m
	t.mu.Unlock()
}

// Snapshot copies the table
func (t *MetricTable) Snapshot() map[core.RegionID]core.MetricSet {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[core.RegionID]core.MetricSet, len(t.data))
	for id, m := range t.data {
		out[id] = m
	}
	return out
}
