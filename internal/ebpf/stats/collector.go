// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package stats

import (
	"sync"
	"time"

	"ebaf/internal/classifier"
	"ebaf/internal/registry"
)

// Snapshot is a point-in-time read of the classifier's counters and
// the registry's per-domain drop rollup.
type Snapshot struct {
	Total      uint64
	Blocked    uint64
	Domains    []registry.DomainDrop
	CapturedAt time.Time
}

// Collector reads C1's stats array and C5's registry snapshot into a
// single Snapshot for the Prometheus/JSON exporter. The flat-file
// writer in cmd/ebaf reads the same two sources directly.
type Collector struct {
	mu         sync.Mutex
	classStats *classifier.Stats
	registry   *registry.Registry
	last       Snapshot
}

// NewCollector builds a collector over the classifier's stats map and
// the domain registry.
func NewCollector(classStats *classifier.Stats, reg *registry.Registry) *Collector {
	return &Collector{classStats: classStats, registry: reg}
}

// Collect reads the current counters and drop snapshot.
func (c *Collector) Collect() (Snapshot, error) {
	total, blocked, err := c.classStats.Read()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Total:      total,
		Blocked:    blocked,
		Domains:    c.registry.SnapshotForExport(),
		CapturedAt: time.Now(),
	}

	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()

	return snap, nil
}

// Last returns the most recently collected snapshot without touching
// the kernel maps again.
func (c *Collector) Last() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
